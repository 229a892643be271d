package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/atomsi-org/atomsi-dao/internal/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var opts config.InitOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create dao.toml in the current directory",
		Long: `Create dao.toml and the .atomsi/ data directory in the current directory.
An existing dao.toml is never overwritten.`,
		Example: `  atomsi init --name "Atom Labs" --symbol ATM --treasury 0xabc... \
    --signer 0x111... --signer 0x222...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			result, err := config.InitProject(cwd, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, step := range result.Steps {
				msg := step.Name
				if step.Message != "" {
					msg = step.Message
				}
				fmt.Fprintf(out, "%s %s\n", color.GreenString("✓"), msg)
			}
			if !result.AlreadyInitialized {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Next steps:")
				fmt.Fprintln(out, "  1. Add members and their roles under [members] in dao.toml")
				fmt.Fprintln(out, "  2. Set [blockchain] rpc_url and token_contract to read balances on chain,")
				fmt.Fprintln(out, "     or fund addresses locally with 'atomsi chain fund'")
				fmt.Fprintln(out, "  3. Export ATOMSI_ACTOR=<your address> and submit a proposal")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "DAO name")
	cmd.Flags().StringVar(&opts.TokenSymbol, "symbol", config.DefaultTokenSymbol, "Governance token symbol")
	cmd.Flags().StringVar(&opts.Treasury, "treasury", "", "Treasury address (required)")
	cmd.Flags().StringArrayVar(&opts.Signers, "signer", nil, "Treasury signer address (repeatable)")
	_ = cmd.MarkFlagRequired("treasury")

	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/atomsi-org/atomsi-dao/internal/cli/render"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
)

// NewChainCmd creates the chain command group for the local offline chain
func NewChainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Manage the local governance token chain",
		Long: `When no blockchain.rpc_url is configured, governance token balances live
on a local chain stored under .atomsi/. These commands seed it.`,
	}
	cmd.AddCommand(newChainFundCmd())
	return cmd
}

func newChainFundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fund <address> <amount>",
		Short: "Mint governance tokens to an address on the local chain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if a.LocalChain == nil {
				return domain.NotSupported("funding is only available on the local chain (blockchain.rpc_url is set)")
			}
			if _, err := authorize(a, tokenResource, domain.ActionCreate); err != nil {
				return err
			}

			amount, err := parseAmount(args[1], a.Config.DAO.TokenDecimals)
			if err != nil {
				return err
			}
			if err := a.LocalChain.Fund(cmd.Context(), args[0], amount); err != nil {
				return err
			}

			balance, err := a.LocalChain.Balance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.Config.JSON {
				_, err := renderJSON(a, cmd.OutOrStdout(), map[string]string{"address": args[0], "balance": balance.String()})
				return err
			}
			success(cmd, "Funded %s, balance now %s", args[0],
				render.FormatTokenAmount(balance, a.Config.DAO.TokenDecimals, governanceSymbol(a)))
			return nil
		},
	}
}

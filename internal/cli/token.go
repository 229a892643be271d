package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atomsi-org/atomsi-dao/internal/adapters/ledger"
	"github.com/atomsi-org/atomsi-dao/internal/app"
	"github.com/atomsi-org/atomsi-dao/internal/cli/render"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

const tokenResource = "token"

// NewTokenCmd creates the token command group
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "token",
		Aliases: []string{"tokens"},
		Short:   "Manage the tokens the treasury holds",
		Long: `The governance token lives on chain. Other tokens are tracked in the
local ledger and can be created, minted and burned here.`,
	}

	cmd.AddCommand(
		newTokenCreateCmd(),
		newTokenSupplyCmd("mint", "Mint tokens to an address"),
		newTokenSupplyCmd("burn", "Burn tokens from an address"),
		newTokenListCmd(),
		newTokenBalanceCmd(),
		newTokenTransferCmd(),
	)
	return cmd
}

func newTokenCreateCmd() *cobra.Command {
	var (
		name, supply, holder string
		decimals             uint8
	)

	cmd := &cobra.Command{
		Use:     "create <symbol>",
		Short:   "Create a local token",
		Example: `  atomsi token create USDC --name "USD Coin" --decimals 6 --supply 100000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if _, err := authorize(a, tokenResource, domain.ActionCreate); err != nil {
				return err
			}

			params := usecase.CreateTokenParams{
				Symbol:   args[0],
				Name:     name,
				Decimals: decimals,
				Holder:   holder,
			}
			if supply != "" {
				d := decimals
				if d == 0 {
					d = ledger.DefaultDecimals
				}
				if params.InitialSupply, err = parseAmount(supply, d); err != nil {
					return err
				}
			}

			token, err := a.Tokens.Create(cmd.Context(), params)
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), token); ok {
				return err
			}
			success(cmd, "Token %s created", token.Symbol)
			return render.NewTokensRenderer(cmd.OutOrStdout(), governanceSymbol(a)).RenderToken(token)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Token name (required)")
	cmd.Flags().Uint8Var(&decimals, "decimals", ledger.DefaultDecimals, "Decimal places")
	cmd.Flags().StringVar(&supply, "supply", "", "Initial supply in whole tokens")
	cmd.Flags().StringVar(&holder, "holder", "", "Receiver of the initial supply (defaults to the treasury)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// newTokenSupplyCmd builds mint and burn, which differ only in direction
func newTokenSupplyCmd(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <symbol> <address> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if _, err := authorize(a, tokenResource, domain.ActionCreate); err != nil {
				return err
			}

			ctx := cmd.Context()
			decimals, err := decimalsOf(ctx, a, args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2], decimals)
			if err != nil {
				return err
			}

			var token *models.Token
			if verb == "mint" {
				token, err = a.Tokens.Mint(ctx, args[0], args[1], amount)
			} else {
				token, err = a.Tokens.Burn(ctx, args[0], args[1], amount)
			}
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), token); ok {
				return err
			}
			success(cmd, "%s %s", strings.ToUpper(verb[:1])+verb[1:]+"ed", render.FormatTokenAmount(amount, decimals, token.Symbol))
			return render.NewTokensRenderer(cmd.OutOrStdout(), governanceSymbol(a)).RenderToken(token)
		},
	}
}

func newTokenListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List known tokens",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			tokens, err := a.Tokens.List(cmd.Context())
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), tokens); ok {
				return err
			}
			return render.NewTokensRenderer(cmd.OutOrStdout(), governanceSymbol(a)).Render(tokens)
		},
	}
}

func newTokenBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <symbol> [address]",
		Short: "Show an address's token balance",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			address, err := addressArg(a, args[1:])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			decimals, err := decimalsOf(ctx, a, args[0])
			if err != nil {
				return err
			}
			balance, err := a.Tokens.Balance(ctx, args[0], address)
			if err != nil {
				return err
			}

			result := struct {
				Address string `json:"address"`
				Symbol  string `json:"symbol"`
				Balance string `json:"balance"`
			}{address, strings.ToUpper(args[0]), balance.String()}
			if ok, err := renderJSON(a, cmd.OutOrStdout(), result); ok {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", address, render.FormatTokenAmount(balance, decimals, result.Symbol))
			return nil
		},
	}
}

func newTokenTransferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <symbol> <to> <amount>",
		Short: "Transfer tokens from the acting address",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			from, err := requireActor(a)
			if err != nil {
				return err
			}
			if strings.EqualFold(args[0], governanceSymbol(a)) {
				return governanceTransferErr(a)
			}

			ctx := cmd.Context()
			decimals, err := decimalsOf(ctx, a, args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2], decimals)
			if err != nil {
				return err
			}

			transfer, err := a.Tokens.Transfer(ctx, args[0], from, args[1], amount)
			if err != nil {
				return err
			}

			if ok, err := renderJSON(a, cmd.OutOrStdout(), transfer); ok {
				return err
			}
			return render.NewTokensRenderer(cmd.OutOrStdout(), governanceSymbol(a)).RenderTransfer(transfer, decimals)
		},
	}
}

// governance token transfers always leave the signing account, which is the
// treasury, so they go through proposals or the treasury workflow instead
func governanceTransferErr(a *app.App) error {
	return domain.NotSupported("%s moves through 'atomsi treasury create' or a transfer proposal", governanceSymbol(a))
}

package cli

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/atomsi-org/atomsi-dao/internal/app"
	"github.com/atomsi-org/atomsi-dao/internal/cli/render"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
)

// requireActor returns the checksummed --as address
func requireActor(a *app.App) (string, error) {
	if a.Config.Actor == "" {
		return "", domain.Unauthorized("no acting address: pass --as <address> or set ATOMSI_ACTOR")
	}
	return domain.NormalizeAddress(a.Config.Actor)
}

// authorize resolves the actor and checks its role may perform action on resource
func authorize(a *app.App, resource string, action domain.Action) (string, error) {
	actor, err := requireActor(a)
	if err != nil {
		return "", err
	}
	if _, err := a.Permissions.AuthorizeActor(actor, resource, action); err != nil {
		return "", err
	}
	return actor, nil
}

// addTransferFlags registers the --to/--amount/--token flags shared by
// transfer proposals and treasury transactions
func addTransferFlags(f *pflag.FlagSet, to, amount, token *string, what string) {
	f.StringVar(to, "to", "", what+" recipient")
	f.StringVar(amount, "amount", "", what+" amount in whole tokens")
	f.StringVar(token, "token", "", what+" token symbol (defaults to the governance token)")
}

// parseAmount converts a human amount such as "1.5" into base units
func parseAmount(s string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, domain.InvalidParameter("invalid amount %q", s)
	}
	if d.Sign() <= 0 {
		return nil, domain.InvalidParameter("amount must be greater than zero, got %s", s)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, domain.InvalidParameter("amount %s has more than %d decimal places", s, decimals)
	}
	return shifted.BigInt(), nil
}

// tokenDecimals returns the decimals of every known token. The governance
// token is always present even when the ledger can't be listed.
func tokenDecimals(ctx context.Context, a *app.App) render.Decimals {
	out := render.Decimals{
		strings.ToUpper(a.Config.DAO.TokenSymbol): a.Config.DAO.TokenDecimals,
	}
	tokens, err := a.Tokens.List(ctx)
	if err != nil {
		a.Log.Debug("token list unavailable, amounts shown for the governance token only", "error", err)
		return out
	}
	for _, t := range tokens {
		out[t.Symbol] = t.Decimals
	}
	return out
}

// decimalsOf returns the decimals of symbol or an error when it is unknown
func decimalsOf(ctx context.Context, a *app.App, symbol string) (uint8, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	d, ok := tokenDecimals(ctx, a)[symbol]
	if !ok {
		return 0, domain.NotFound("token", symbol)
	}
	return d, nil
}

// governanceSymbol is the default token for transfers
func governanceSymbol(a *app.App) string {
	return strings.ToUpper(a.Config.DAO.TokenSymbol)
}

// renderJSON writes v as JSON when --json is set and reports whether it did
func renderJSON[T any](a *app.App, out io.Writer, v T) (bool, error) {
	if !a.Config.JSON {
		return false, nil
	}
	return true, render.NewJSONRenderer[T](out).Render(v)
}

// confirm asks before an irreversible action; --non-interactive answers yes
func confirm(cmd *cobra.Command, a *app.App, prompt string) error {
	ok, err := a.Selector.Confirm(cmd.Context(), prompt)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("aborted")
	}
	return nil
}

func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf(format, args...)))
}

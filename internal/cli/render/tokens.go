package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// TokensRenderer renders the token registry
type TokensRenderer struct {
	out        io.Writer
	governance string
}

// NewTokensRenderer creates a new tokens renderer. governance is the
// governance token symbol, flagged in lists.
func NewTokensRenderer(out io.Writer, governance string) *TokensRenderer {
	return &TokensRenderer{out: out, governance: governance}
}

func (r *TokensRenderer) Render(tokens []*models.Token) error {
	if len(tokens) == 0 {
		fmt.Fprintln(r.out, "No tokens found")
		return nil
	}

	t := newTable(table.Row{"Symbol", "Name", "Decimals", "Supply", ""})
	for _, tok := range tokens {
		flag := ""
		if tok.Symbol == r.governance {
			flag = faintStyle.Sprint("governance")
		}
		t.AppendRow(table.Row{tok.Symbol, tok.Name, tok.Decimals, FormatAmount(tok.TotalSupply, tok.Decimals), flag})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderToken prints a single token line
func (r *TokensRenderer) RenderToken(tok *models.Token) error {
	fmt.Fprintf(r.out, "%s (%s), %d decimals, supply %s\n",
		labelStyle.Sprint(tok.Symbol), tok.Name, tok.Decimals, amountStyle.Sprint(FormatAmount(tok.TotalSupply, tok.Decimals)))
	return nil
}

// RenderTransfer prints a transfer record
func (r *TokensRenderer) RenderTransfer(tr *models.TokenTransfer, decimals uint8) error {
	fmt.Fprintf(r.out, "%s → %s  %s\n",
		addressStyle.Sprint(tr.From), addressStyle.Sprint(tr.To),
		amountStyle.Sprint(FormatTokenAmount(tr.Amount, decimals, tr.Symbol)))
	fmt.Fprintf(r.out, "  tx %s\n", faintStyle.Sprint(tr.TxHash))
	return nil
}

var _ Renderer[[]*models.Token] = (*TokensRenderer)(nil)

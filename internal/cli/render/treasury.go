package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

// TreasuryRenderer renders treasury transactions and balances
type TreasuryRenderer struct {
	out      io.Writer
	decimals Decimals
}

// NewTreasuryRenderer creates a new treasury renderer
func NewTreasuryRenderer(out io.Writer, decimals Decimals) *TreasuryRenderer {
	return &TreasuryRenderer{out: out, decimals: decimals}
}

func (r *TreasuryRenderer) amount(tx *models.TreasuryTransaction) string {
	return FormatTokenAmount(tx.Amount, r.decimals[tx.Token], tx.Token)
}

// Render renders a transaction list as a table
func (r *TreasuryRenderer) Render(txs []*models.TreasuryTransaction) error {
	if len(txs) == 0 {
		fmt.Fprintln(r.out, "No treasury transactions found")
		return nil
	}

	t := newTable(table.Row{"ID", "To", "Amount", "Status", "Approvals", "Created"})
	for _, tx := range txs {
		t.AppendRow(table.Row{
			tx.ShortID(),
			ShortAddress(tx.To),
			r.amount(tx),
			transactionStatus(tx.Status),
			fmt.Sprintf("%d/%d", tx.CurrentApprovals(), tx.RequiredApprovals),
			formatTime(tx.CreatedAt),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintf(r.out, "\n%d transaction(s)\n", len(txs))
	return nil
}

// RenderTransaction renders one transaction with its approvals
func (r *TreasuryRenderer) RenderTransaction(tx *models.TreasuryTransaction) error {
	fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Transaction"), tx.ID)
	if tx.Description != "" {
		fmt.Fprintf(r.out, "  About:     %s\n", tx.Description)
	}
	fmt.Fprintf(r.out, "  To:        %s\n", addressStyle.Sprint(tx.To))
	fmt.Fprintf(r.out, "  Amount:    %s\n", amountStyle.Sprint(r.amount(tx)))
	fmt.Fprintf(r.out, "  Status:    %s\n", transactionStatus(tx.Status))
	fmt.Fprintf(r.out, "  Approvals: %d/%d\n", tx.CurrentApprovals(), tx.RequiredApprovals)
	if tx.CreatedBy != "" {
		fmt.Fprintf(r.out, "  Created:   %s by %s\n", formatTime(tx.CreatedAt), addressStyle.Sprint(tx.CreatedBy))
	} else {
		fmt.Fprintf(r.out, "  Created:   %s\n", formatTime(tx.CreatedAt))
	}
	if tx.RejectedBy != "" {
		fmt.Fprintf(r.out, "  Rejected:  by %s\n", addressStyle.Sprint(tx.RejectedBy))
	}
	if tx.ExecutedAt != nil {
		fmt.Fprintf(r.out, "  Executed:  %s (%s)\n", formatTimePtr(tx.ExecutedAt), tx.ExecutionHash)
	}
	if msg, ok := tx.Metadata["error"]; ok {
		fmt.Fprintf(r.out, "  Error:     %s\n", msg)
	}

	if len(tx.Approvals) > 0 {
		t := newTable(table.Row{"Signer", "Approved"})
		for _, a := range tx.Approvals {
			t.AppendRow(table.Row{a.Signer, formatTime(a.ApprovedAt)})
		}
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, t.Render())
	}
	return nil
}

// RenderBalances renders the treasury balance sheet
func (r *TreasuryRenderer) RenderBalances(address string, balances []usecase.TokenBalance) error {
	fmt.Fprintf(r.out, "%s %s\n\n", labelStyle.Sprint("Treasury"), addressStyle.Sprint(address))

	sorted := make([]usecase.TokenBalance, len(balances))
	copy(sorted, balances)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Token.Symbol < sorted[j].Token.Symbol })

	t := newTable(table.Row{"Token", "Name", "Balance"})
	for _, b := range sorted {
		t.AppendRow(table.Row{b.Token.Symbol, b.Token.Name, FormatAmount(b.Balance, b.Token.Decimals)})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

var _ Renderer[[]*models.TreasuryTransaction] = (*TreasuryRenderer)(nil)

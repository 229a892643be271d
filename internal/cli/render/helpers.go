package render

import (
	"math/big"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

var (
	labelStyle   = color.New(color.Bold)
	faintStyle   = color.New(color.Faint)
	addressStyle = color.New(color.FgCyan)
	amountStyle  = color.New(color.FgHiWhite, color.Bold)

	titleCaser = cases.Title(language.English)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	// Extract just the error message part (after the last colon if it's an error chain)
	parts := strings.Split(message, ": ")
	msg := parts[len(parts)-1]

	// Capitalize first letter
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}

	return color.New(color.FgRed).Sprintf("❌ %s", msg)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// Label turns an identifier such as "contract_call" into "Contract Call"
func Label(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}

// FormatAmount renders a base-unit amount in whole token units
func FormatAmount(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// FormatTokenAmount is FormatAmount followed by the symbol
func FormatTokenAmount(amount *big.Int, decimals uint8, symbol string) string {
	return FormatAmount(amount, decimals) + " " + symbol
}

// ShortAddress abbreviates a 0x address as 0x1234…abcd
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

var proposalStateColors = map[models.ProposalState]*color.Color{
	models.ProposalStateDraft:     color.New(color.Faint),
	models.ProposalStateVoting:    color.New(color.FgYellow),
	models.ProposalStateApproved:  color.New(color.FgGreen),
	models.ProposalStateRejected:  color.New(color.FgRed),
	models.ProposalStateExecuting: color.New(color.FgMagenta),
	models.ProposalStateExecuted:  color.New(color.FgGreen, color.Bold),
	models.ProposalStateCancelled: color.New(color.FgHiBlack),
}

func proposalState(s models.ProposalState) string {
	if c, ok := proposalStateColors[s]; ok {
		return c.Sprint(Label(string(s)))
	}
	return Label(string(s))
}

var transactionStatusColors = map[models.TransactionStatus]*color.Color{
	models.TransactionStatusPending:   color.New(color.FgYellow),
	models.TransactionStatusApproved:  color.New(color.FgGreen),
	models.TransactionStatusExecuting: color.New(color.FgMagenta),
	models.TransactionStatusExecuted:  color.New(color.FgGreen, color.Bold),
	models.TransactionStatusFailed:    color.New(color.FgRed, color.Bold),
	models.TransactionStatusRejected:  color.New(color.FgRed),
}

func transactionStatus(s models.TransactionStatus) string {
	if c, ok := transactionStatusColors[s]; ok {
		return c.Sprint(Label(string(s)))
	}
	return Label(string(s))
}

// newTable returns a writer with the light box style used by every list
func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(header)
	return t
}

package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/atomsi-org/atomsi-dao/internal/cli/render"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// multiSelectModel is the bubbletea model for picking treasury transactions
type multiSelectModel struct {
	txs       []*models.TreasuryTransaction
	decimals  render.Decimals
	cursor    int
	selected  map[int]bool
	title     string
	done      bool
	cancelled bool
}

func initialMultiSelectModel(txs []*models.TreasuryTransaction, decimals render.Decimals, title string) multiSelectModel {
	return multiSelectModel{
		txs:      txs,
		decimals: decimals,
		selected: make(map[int]bool, len(txs)),
		title:    title,
	}
}

// Init is the initial command for bubbletea
func (m multiSelectModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses
func (m multiSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.txs)-1 {
			m.cursor++
		}
	case " ", "space":
		m.selected[m.cursor] = !m.selected[m.cursor]
	case "a":
		all := len(m.chosen()) < len(m.txs)
		for i := range m.txs {
			m.selected[i] = all
		}
	case "enter":
		if len(m.chosen()) > 0 {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// chosen returns the selected transactions in list order
func (m multiSelectModel) chosen() []*models.TreasuryTransaction {
	var out []*models.TreasuryTransaction
	for i, tx := range m.txs {
		if m.selected[i] {
			out = append(out, tx)
		}
	}
	return out
}

// View renders the UI
func (m multiSelectModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(color.New(color.FgCyan, color.Bold).Sprintf("%s\n\n", m.title))

	for i, tx := range m.txs {
		cursor := " "
		if m.cursor == i {
			cursor = color.New(color.FgCyan).Sprint("▸")
		}

		checkbox := color.New(color.FgWhite).Sprint("○")
		if m.selected[i] {
			checkbox = color.New(color.FgGreen).Sprint("✓")
		}

		amount := color.New(color.FgHiWhite).Sprint(render.FormatTokenAmount(tx.Amount, m.decimals[tx.Token], tx.Token))
		progress := color.New(color.FgYellow).Sprintf("(%d/%d)", tx.CurrentApprovals(), tx.RequiredApprovals)

		fmt.Fprintf(&b, "%s %s %s %s → %s %s %s\n",
			cursor, checkbox, tx.ShortID(), amount, render.ShortAddress(tx.To), progress,
			color.New(color.Faint).Sprint(tx.Description))
	}

	b.WriteString("\n")
	b.WriteString(color.New(color.FgYellow).Sprint("↑/↓: move  Space: toggle  a: all  Enter: confirm  q: quit\n"))

	return b.String()
}

// SelectTransactions shows a multi-select of txs and returns the chosen ones
func SelectTransactions(txs []*models.TreasuryTransaction, decimals render.Decimals, title string) ([]*models.TreasuryTransaction, error) {
	if len(txs) == 0 {
		return nil, fmt.Errorf("no transactions to select")
	}

	p := tea.NewProgram(initialMultiSelectModel(txs, decimals, title))
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("multi-select failed: %w", err)
	}

	m := finalModel.(multiSelectModel)
	if m.cancelled || !m.done {
		return nil, fmt.Errorf("selection cancelled")
	}
	return m.chosen(), nil
}

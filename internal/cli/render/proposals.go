package render

import (
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

// Decimals maps token symbols to their decimals. Unknown symbols render in base units.
type Decimals map[string]uint8

// ProposalsRenderer renders proposals
type ProposalsRenderer struct {
	out      io.Writer
	decimals Decimals
}

// NewProposalsRenderer creates a new proposals renderer
func NewProposalsRenderer(out io.Writer, decimals Decimals) *ProposalsRenderer {
	return &ProposalsRenderer{out: out, decimals: decimals}
}

// Render renders a proposal list as a table
func (r *ProposalsRenderer) Render(proposals []*models.Proposal) error {
	if len(proposals) == 0 {
		fmt.Fprintln(r.out, "No proposals found")
		return nil
	}

	t := newTable(table.Row{"ID", "Title", "Kind", "State", "Yes", "No", "Abstain", "Ends"})
	for _, p := range proposals {
		t.AppendRow(table.Row{
			p.ShortID(),
			truncate(p.Title, 40),
			Label(string(p.Payload.Kind)),
			proposalState(p.State),
			r.weight(p.YesVotes),
			r.weight(p.NoVotes),
			r.weight(p.AbstainVotes),
			formatTimePtr(p.VotingEndsAt),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintf(r.out, "\n%d proposal(s)\n", len(proposals))
	return nil
}

// RenderProposal renders one proposal with its payload and votes
func (r *ProposalsRenderer) RenderProposal(p *models.Proposal) error {
	fmt.Fprintf(r.out, "%s %s\n", labelStyle.Sprint("Proposal"), p.ID)
	fmt.Fprintf(r.out, "  Title:     %s\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(r.out, "  About:     %s\n", p.Description)
	}
	fmt.Fprintf(r.out, "  Proposer:  %s\n", addressStyle.Sprint(p.Proposer))
	fmt.Fprintf(r.out, "  State:     %s\n", proposalState(p.State))
	fmt.Fprintf(r.out, "  Created:   %s\n", formatTime(p.CreatedAt))
	if p.VotingStartsAt != nil {
		fmt.Fprintf(r.out, "  Voting:    %s → %s\n", formatTimePtr(p.VotingStartsAt), formatTimePtr(p.VotingEndsAt))
	}
	if p.ExecutedAt != nil {
		fmt.Fprintf(r.out, "  Executed:  %s (%s)\n", formatTimePtr(p.ExecutedAt), p.ExecutionHash)
	}

	fmt.Fprintf(r.out, "\n%s %s\n", labelStyle.Sprint("Payload"), Label(string(p.Payload.Kind)))
	r.renderPayload(p.Payload)

	fmt.Fprintf(r.out, "\n%s\n", labelStyle.Sprint("Tally"))
	fmt.Fprintf(r.out, "  Yes:      %s\n", r.weight(p.YesVotes))
	fmt.Fprintf(r.out, "  No:       %s\n", r.weight(p.NoVotes))
	fmt.Fprintf(r.out, "  Abstain:  %s\n", r.weight(p.AbstainVotes))

	if len(p.Votes) > 0 {
		t := newTable(table.Row{"Voter", "Choice", "Weight", "Cast"})
		for _, v := range p.Votes {
			t.AppendRow(table.Row{ShortAddress(v.Voter), Label(string(v.Choice)), r.weight(v.Weight), formatTime(v.CastAt)})
		}
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, t.Render())
	}

	if len(p.Metadata) > 0 {
		fmt.Fprintf(r.out, "\n%s\n", labelStyle.Sprint("Metadata"))
		r.renderMap(p.Metadata)
	}
	return nil
}

func (r *ProposalsRenderer) renderMap(m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(r.out, "  %s: %v\n", k, m[k])
	}
}

func (r *ProposalsRenderer) renderPayload(payload models.ProposalPayload) {
	switch payload.Kind {
	case models.ProposalKindTransfer:
		tr := payload.Transfer
		fmt.Fprintf(r.out, "  Send %s to %s\n",
			amountStyle.Sprint(FormatTokenAmount(tr.Amount, r.decimals[tr.Token], tr.Token)),
			addressStyle.Sprint(tr.To))
	case models.ProposalKindContractCall:
		cc := payload.ContractCall
		fmt.Fprintf(r.out, "  Call %s on %s\n", cc.Function, addressStyle.Sprint(cc.Target))
		if len(cc.Args) > 0 {
			fmt.Fprintf(r.out, "  Args: %s\n", strings.Join(cc.Args, ", "))
		}
	case models.ProposalKindParameterChange:
		pc := payload.ParameterChange
		fmt.Fprintf(r.out, "  Set %s = %v\n", pc.Name, pc.Value)
	case models.ProposalKindText:
		if payload.Text != nil && len(payload.Text.Metadata) > 0 {
			r.renderMap(payload.Text.Metadata)
		} else {
			fmt.Fprintln(r.out, faintStyle.Sprint("  (no executable effect)"))
		}
	}
}

// vote weights are printed unscaled
func (r *ProposalsRenderer) weight(w *big.Int) string {
	if w == nil {
		return "0"
	}
	return w.String()
}

// RenderProcessResult summarizes a finalization pass
func (r *ProposalsRenderer) RenderProcessResult(result *usecase.ProcessResult) error {
	if len(result.Finalized) == 0 {
		fmt.Fprintf(r.out, "No proposals ready to finalize (%d still voting)\n", result.Pending)
		return nil
	}

	t := newTable(table.Row{"ID", "Title", "Result", "Total", "Quorum", "Majority"})
	for _, f := range result.Finalized {
		t.AppendRow(table.Row{
			f.Proposal.ShortID(),
			truncate(f.Proposal.Title, 40),
			proposalState(f.Proposal.State),
			r.weight(f.Outcome.Total),
			r.weight(f.Outcome.QuorumThreshold),
			r.weight(f.Outcome.MajorityThreshold),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintf(r.out, "\n%d finalized, %d still voting\n", len(result.Finalized), result.Pending)
	return nil
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

var _ Renderer[[]*models.Proposal] = (*ProposalsRenderer)(nil)

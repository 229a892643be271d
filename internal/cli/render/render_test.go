package render

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

func init() {
	color.NoColor = true
}

func TestFormatAmount(t *testing.T) {
	oneAndHalf, _ := new(big.Int).SetString("1500000000000000000", 10)
	tests := []struct {
		amount   *big.Int
		decimals uint8
		want     string
	}{
		{nil, 18, "0"},
		{big.NewInt(0), 18, "0"},
		{oneAndHalf, 18, "1.5"},
		{big.NewInt(250), 0, "250"},
		{big.NewInt(1234567), 6, "1.234567"},
		{big.NewInt(1), 6, "0.000001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.amount, tt.decimals))
	}
	assert.Equal(t, "1.5 ATOM", FormatTokenAmount(oneAndHalf, 18, "ATOM"))
}

func TestLabelAndShortAddress(t *testing.T) {
	assert.Equal(t, "Contract Call", Label("contract_call"))
	assert.Equal(t, "Voting", Label("voting"))
	assert.Equal(t, "0x2000…0002", ShortAddress("0x2000000000000000000000000000000000000002"))
	assert.Equal(t, "0x12", ShortAddress("0x12"))
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "❌ Proposal not found", FormatError("failed to resolve: proposal not found"))
	assert.Equal(t, "✅ done", FormatSuccess("done"))
}

func sampleProposal() *models.Proposal {
	ends := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	return &models.Proposal{
		ID:           "aa11bb22-0000-0000-0000-000000000001",
		Title:        "Pay the auditors",
		Proposer:     "0x2000000000000000000000000000000000000002",
		Payload:      models.NewTransferPayload("0x9000000000000000000000000000000000000009", big.NewInt(2500000), "USDC"),
		State:        models.ProposalStateVoting,
		CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		VotingEndsAt: &ends,
		YesVotes:     big.NewInt(600),
		NoVotes:      big.NewInt(300),
		AbstainVotes: big.NewInt(0),
		Votes: []models.Vote{
			{Voter: "0x3000000000000000000000000000000000000003", Choice: models.VoteYes, Weight: big.NewInt(600)},
		},
		Metadata: map[string]any{"total_votes": "900"},
	}
}

func TestProposalsRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewProposalsRenderer(&buf, Decimals{"USDC": 6})

	require.NoError(t, r.Render([]*models.Proposal{sampleProposal()}))
	out := buf.String()
	assert.Contains(t, out, "aa11bb22")
	assert.Contains(t, out, "Pay the auditors")
	assert.Contains(t, out, "Transfer")
	assert.Contains(t, out, "Voting")
	assert.Contains(t, out, "1 proposal(s)")

	buf.Reset()
	require.NoError(t, r.RenderProposal(sampleProposal()))
	out = buf.String()
	assert.Contains(t, out, "Send 2.5 USDC to 0x9000000000000000000000000000000000000009")
	assert.Contains(t, out, "total_votes: 900")
	assert.Contains(t, out, "0x3000…0003")

	buf.Reset()
	require.NoError(t, r.Render(nil))
	assert.Equal(t, "No proposals found\n", buf.String())
}

func TestRenderProcessResult(t *testing.T) {
	var buf bytes.Buffer
	r := NewProposalsRenderer(&buf, nil)

	p := sampleProposal()
	p.State = models.ProposalStateApproved
	outcome := domain.Finalize(p.YesVotes, p.NoVotes, p.AbstainVotes, big.NewInt(900), 20, 50)
	require.NoError(t, r.RenderProcessResult(&usecase.ProcessResult{
		Finalized: []usecase.FinalizedProposal{{Proposal: p, Outcome: outcome}},
		Pending:   2,
	}))
	out := buf.String()
	assert.Contains(t, out, "Approved")
	assert.Contains(t, out, "180")
	assert.Contains(t, out, "1 finalized, 2 still voting")
}

func TestTreasuryRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewTreasuryRenderer(&buf, Decimals{"ATOM": 18})

	amount, _ := new(big.Int).SetString("2000000000000000000", 10)
	tx := &models.TreasuryTransaction{
		ID:                "ff00aa00-0000-0000-0000-000000000001",
		To:                "0x9000000000000000000000000000000000000009",
		Token:             "ATOM",
		Amount:            amount,
		Status:            models.TransactionStatusFailed,
		RequiredApprovals: 2,
		Approvals:         []models.Approval{{Signer: "0x6000000000000000000000000000000000000006"}},
		Metadata:          map[string]string{"error": "insufficient funds"},
	}

	require.NoError(t, r.Render([]*models.TreasuryTransaction{tx}))
	out := buf.String()
	assert.Contains(t, out, "2 ATOM")
	assert.Contains(t, out, "1/2")
	assert.Contains(t, out, "Failed")

	buf.Reset()
	require.NoError(t, r.RenderTransaction(tx))
	assert.Contains(t, buf.String(), "Error:     insufficient funds")
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONRenderer[map[string]int](&buf)
	require.NoError(t, r.Render(map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}

package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

func TestFinalize(t *testing.T) {
	tests := []struct {
		name          string
		yes, no, abst int64
		base          int64
		quorum        uint64
		majority      uint64
		wantState     models.ProposalState
		wantQuorum    int64
		wantMajority  int64
	}{
		{
			name: "cast basis approves 600/300/0",
			yes:  600, no: 300, abst: 0, base: 900,
			quorum: 20, majority: 50,
			wantState: models.ProposalStateApproved, wantQuorum: 180, wantMajority: 450,
		},
		{
			name: "supply basis rejects below quorum even when unanimous",
			yes:  100, base: 1000,
			quorum: 20, majority: 50,
			wantState: models.ProposalStateRejected, wantQuorum: 200, wantMajority: 50,
		},
		{
			name: "majority not reached",
			yes:  400, no: 500, base: 900,
			quorum: 20, majority: 50,
			wantState: models.ProposalStateRejected, wantQuorum: 180, wantMajority: 450,
		},
		{
			name: "exact majority approves",
			yes:  450, no: 450, base: 900,
			quorum: 20, majority: 50,
			wantState: models.ProposalStateApproved, wantQuorum: 180, wantMajority: 450,
		},
		{
			name:   "no votes with cast basis meets zero thresholds",
			quorum: 20, majority: 50,
			wantState: models.ProposalStateApproved,
		},
		{
			name: "no votes with supply basis misses quorum",
			base: 1000, quorum: 20, majority: 50,
			wantState: models.ProposalStateRejected, wantQuorum: 200,
		},
		{
			name: "integer division truncates thresholds",
			yes:  3, no: 2, base: 5,
			quorum: 33, majority: 67,
			wantState: models.ProposalStateApproved, wantQuorum: 1, wantMajority: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Finalize(big.NewInt(tt.yes), big.NewInt(tt.no), big.NewInt(tt.abst), big.NewInt(tt.base), tt.quorum, tt.majority)

			assert.Equal(t, tt.wantState, out.State)
			assert.Equal(t, tt.yes+tt.no+tt.abst, out.Total.Int64())
			assert.Equal(t, tt.wantQuorum, out.QuorumThreshold.Int64())
			assert.Equal(t, tt.wantMajority, out.MajorityThreshold.Int64())
		})
	}
}

func TestFinalizeHandlesNilTallies(t *testing.T) {
	out := Finalize(nil, nil, nil, nil, 20, 50)
	assert.Equal(t, models.ProposalStateApproved, out.State)
	assert.True(t, out.QuorumReached)
	assert.Equal(t, int64(0), out.Total.Int64())
}

func TestParseQuorumBasis(t *testing.T) {
	b, err := ParseQuorumBasis("")
	assert.NoError(t, err)
	assert.Equal(t, QuorumBasisCast, b)

	b, err = ParseQuorumBasis("Supply")
	assert.NoError(t, err)
	assert.Equal(t, QuorumBasisSupply, b)

	_, err = ParseQuorumBasis("members")
	assert.Error(t, err)
}

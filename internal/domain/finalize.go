package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// QuorumBasis selects what the quorum percentage is measured against
type QuorumBasis string

const (
	// QuorumBasisCast measures quorum against the total weight cast on the proposal
	QuorumBasisCast QuorumBasis = "cast"
	// QuorumBasisSupply measures quorum against the governance token's total supply
	QuorumBasisSupply QuorumBasis = "supply"
)

// ParseQuorumBasis accepts "cast" or "supply"; empty means cast.
func ParseQuorumBasis(s string) (QuorumBasis, error) {
	switch b := QuorumBasis(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return QuorumBasisCast, nil
	case QuorumBasisCast, QuorumBasisSupply:
		return b, nil
	}
	return "", fmt.Errorf("unknown quorum basis %q (expected cast or supply)", s)
}

// Outcome is the result of finalizing one proposal's tallies
type Outcome struct {
	Total             *big.Int
	QuorumThreshold   *big.Int
	MajorityThreshold *big.Int
	QuorumReached     bool
	State             models.ProposalState
}

// Finalize applies the quorum and majority rules with integer arithmetic:
//
//	quorum   = quorumPct * base / 100
//	majority = majorityPct * (yes + no) / 100
//
// base is the quorum basis (cast weight or total supply). With the cast basis a
// proposal nobody voted on has zero thresholds and is approved.
func Finalize(yes, no, abstain, base *big.Int, quorumPct, majorityPct uint64) Outcome {
	yes, no, abstain = orZero(yes), orZero(no), orZero(abstain)

	total := new(big.Int).Add(yes, no)
	total.Add(total, abstain)

	quorum := percentOf(quorumPct, orZero(base))
	majority := percentOf(majorityPct, new(big.Int).Add(yes, no))

	out := Outcome{
		Total:             total,
		QuorumThreshold:   quorum,
		MajorityThreshold: majority,
		QuorumReached:     total.Cmp(quorum) >= 0,
		State:             models.ProposalStateRejected,
	}
	if out.QuorumReached && yes.Cmp(majority) >= 0 {
		out.State = models.ProposalStateApproved
	}
	return out
}

func percentOf(pct uint64, v *big.Int) *big.Int {
	r := new(big.Int).Mul(new(big.Int).SetUint64(pct), v)
	return r.Quo(r, big.NewInt(100))
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

package models

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// VoteChoice is a voter's position on a proposal
type VoteChoice string

const (
	VoteYes     VoteChoice = "yes"
	VoteNo      VoteChoice = "no"
	VoteAbstain VoteChoice = "abstain"
)

// ParseVoteChoice accepts yes/no/abstain in any case.
func ParseVoteChoice(s string) (VoteChoice, error) {
	switch c := VoteChoice(strings.ToLower(strings.TrimSpace(s))); c {
	case VoteYes, VoteNo, VoteAbstain:
		return c, nil
	}
	return "", fmt.Errorf("unknown vote choice %q (expected yes, no or abstain)", s)
}

// Vote is a single recorded vote. Weight is a snapshot taken at cast time.
type Vote struct {
	Voter  string     `json:"voter"`
	Choice VoteChoice `json:"choice"`
	Weight *big.Int   `json:"weight"`
	CastAt time.Time  `json:"castAt"`
}

// VoteWeight is the output of a voting strategy
type VoteWeight struct {
	Value    *big.Int          `json:"value"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsZero reports whether the weight carries no voting power.
func (w VoteWeight) IsZero() bool {
	return w.Value == nil || w.Value.Sign() <= 0
}

// Delegation records voting power lent from Delegator to Delegate.
// Amount is the delegator's balance when the delegation was made.
type Delegation struct {
	Delegator string    `json:"delegator"`
	Delegate  string    `json:"delegate"`
	Amount    *big.Int  `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

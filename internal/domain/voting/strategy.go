// Package voting holds the closed set of vote-weighting strategies.
//
// A strategy turns a raw token balance into voting weight. Exactly three exist
// and the Strategy interface cannot be implemented outside this package.
package voting

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// Strategy labels accepted by FromLabel
const (
	LabelTokenWeighted = "token"
	LabelQuadratic     = "quadratic"
	LabelConviction    = "conviction"
)

// Conviction defaults
const (
	DefaultConvictionFactor uint64 = 5
	DefaultMaxConviction    uint64 = 10
)

// Strategy computes voting weight from a balance. Implementations are pure.
type Strategy interface {
	Name() string
	Description() string
	CalculateWeight(address string, balance *big.Int) models.VoteWeight

	sealed()
}

// Params configures the strategies that take parameters
type Params struct {
	ConvictionFactor uint64
	MaxConviction    uint64
}

// FromLabel returns the strategy for label. Unknown labels fall back to
// token-weighted and ok is false so the caller can warn.
func FromLabel(label string, params Params) (s Strategy, ok bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", LabelTokenWeighted, "token-weighted", "token_weighted", "tokenweighted":
		return TokenWeighted{}, true
	case LabelQuadratic:
		return Quadratic{}, true
	case LabelConviction:
		return NewConviction(params.ConvictionFactor, params.MaxConviction), true
	}
	return TokenWeighted{}, false
}

// TokenWeighted gives one unit of weight per token
type TokenWeighted struct{}

func (TokenWeighted) Name() string        { return "Token Weighted" }
func (TokenWeighted) Description() string { return "Voting power equals token balance" }

func (TokenWeighted) CalculateWeight(address string, balance *big.Int) models.VoteWeight {
	b := nonNegative(balance)
	return models.VoteWeight{
		Value: b,
		Metadata: map[string]string{
			"strategy": LabelTokenWeighted,
			"formula":  "balance",
		},
	}
}

func (TokenWeighted) sealed() {}

// Quadratic gives floor(sqrt(balance)) weight
type Quadratic struct{}

func (Quadratic) Name() string        { return "Quadratic" }
func (Quadratic) Description() string { return "Voting power equals the square root of token balance" }

func (Quadratic) CalculateWeight(address string, balance *big.Int) models.VoteWeight {
	b := nonNegative(balance)
	return models.VoteWeight{
		Value: new(big.Int).Sqrt(b),
		Metadata: map[string]string{
			"strategy":         LabelQuadratic,
			"formula":          "sqrt(balance)",
			"original_balance": b.String(),
		},
	}
}

func (Quadratic) sealed() {}

// Conviction multiplies the balance by a fixed factor clamped to Max.
//
// The multiplier does not grow with holding time. This is a named
// simplification: the weight metadata says so and no time tracking exists.
type Conviction struct {
	Factor uint64
	Max    uint64
}

// NewConviction applies defaults for zero values.
func NewConviction(factor, maxConviction uint64) Conviction {
	if factor == 0 {
		factor = DefaultConvictionFactor
	}
	if maxConviction == 0 {
		maxConviction = DefaultMaxConviction
	}
	return Conviction{Factor: factor, Max: maxConviction}
}

func (c Conviction) Name() string { return "Conviction" }
func (c Conviction) Description() string {
	return "Voting power equals token balance times a fixed conviction multiplier"
}

// Multiplier is min(Factor, Max).
func (c Conviction) Multiplier() uint64 {
	if c.Factor > c.Max {
		return c.Max
	}
	return c.Factor
}

func (c Conviction) CalculateWeight(address string, balance *big.Int) models.VoteWeight {
	b := nonNegative(balance)
	m := c.Multiplier()
	return models.VoteWeight{
		Value: new(big.Int).Mul(b, new(big.Int).SetUint64(m)),
		Metadata: map[string]string{
			"strategy":         LabelConviction,
			"formula":          "balance * conviction",
			"original_balance": b.String(),
			"conviction":       strconv.FormatUint(m, 10),
			"simplification":   "fixed multiplier",
		},
	}
}

func (Conviction) sealed() {}

func nonNegative(b *big.Int) *big.Int {
	if b == nil || b.Sign() < 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(b)
}

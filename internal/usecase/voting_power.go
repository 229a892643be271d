package usecase

import (
	"context"
	"log/slog"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/domain/voting"
)

// VotingPower resolves an address to voting weight through the balance
// oracle and the configured strategy.
type VotingPower struct {
	oracle   BalanceOracle
	strategy voting.Strategy
}

// NewVotingPower selects the strategy once from the configured label.
func NewVotingPower(cfg *config.RuntimeConfig, oracle BalanceOracle, log *slog.Logger) *VotingPower {
	strategy, ok := voting.FromLabel(cfg.Governance.Strategy, voting.Params{
		ConvictionFactor: cfg.Governance.ConvictionFactor,
		MaxConviction:    cfg.Governance.MaxConviction,
	})
	if !ok {
		log.Warn("unknown voting strategy, using token-weighted", "strategy", cfg.Governance.Strategy)
	}
	return &VotingPower{oracle: oracle, strategy: strategy}
}

// Weight fetches the balance of address and applies the strategy.
func (v *VotingPower) Weight(ctx context.Context, address string) (models.VoteWeight, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return models.VoteWeight{}, err
	}
	balance, err := v.oracle.Balance(ctx, addr)
	if err != nil {
		return models.VoteWeight{}, domain.BlockchainError("balance lookup", err)
	}
	return v.strategy.CalculateWeight(addr, balance), nil
}

// Strategy returns the active strategy.
func (v *VotingPower) Strategy() voting.Strategy {
	return v.strategy
}

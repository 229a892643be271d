package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/domain/voting"
)

// GovernanceEngine resolves voting weight and tracks delegation. Vote
// submission and finalization are forwarded to the ProposalManager.
type GovernanceEngine struct {
	power       *VotingPower
	oracle      BalanceOracle
	delegations DelegationRepository
	proposals   *ProposalManager
	clock       Clock
	log         *slog.Logger
}

// NewGovernanceEngine creates a new governance engine
func NewGovernanceEngine(
	power *VotingPower,
	oracle BalanceOracle,
	delegations DelegationRepository,
	proposals *ProposalManager,
	clock Clock,
	log *slog.Logger,
) *GovernanceEngine {
	return &GovernanceEngine{
		power:       power,
		oracle:      oracle,
		delegations: delegations,
		proposals:   proposals,
		clock:       clock,
		log:         log.With("component", "governance"),
	}
}

// Strategy returns the active voting strategy.
func (e *GovernanceEngine) Strategy() voting.Strategy {
	return e.power.Strategy()
}

// GetVotingWeight returns the weight of address under the active strategy.
func (e *GovernanceEngine) GetVotingWeight(ctx context.Context, address string) (models.VoteWeight, error) {
	return e.power.Weight(ctx, address)
}

// GetVotingPower returns only the weight value.
func (e *GovernanceEngine) GetVotingPower(ctx context.Context, address string) (*big.Int, error) {
	w, err := e.power.Weight(ctx, address)
	if err != nil {
		return nil, err
	}
	return w.Value, nil
}

// DelegateVotingPower records a delegation snapshotting the delegator's
// current balance. Delegating again to the same delegate replaces the earlier
// row; delegating to another delegate adds a row and keeps the first.
func (e *GovernanceEngine) DelegateVotingPower(ctx context.Context, delegator, delegate string) (*models.Delegation, error) {
	from, err := domain.NormalizeAddress(delegator)
	if err != nil {
		return nil, err
	}
	to, err := domain.NormalizeAddress(delegate)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, domain.InvalidParameter("cannot delegate voting power to yourself")
	}

	balance, err := e.oracle.Balance(ctx, from)
	if err != nil {
		return nil, domain.BlockchainError("balance lookup", err)
	}
	if balance.Sign() <= 0 {
		return nil, domain.Unauthorized("%s has no tokens to delegate", from)
	}

	d := &models.Delegation{
		Delegator: from,
		Delegate:  to,
		Amount:    new(big.Int).Set(balance),
		CreatedAt: e.clock.Now(),
	}
	if err := e.delegations.SaveDelegation(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save delegation: %w", err)
	}

	e.log.Info("voting power delegated", "delegator", from, "delegate", to, "amount", d.Amount)
	return d, nil
}

// RevokeDelegation removes the delegation from delegator to delegate.
// Revoking a delegation that doesn't exist is a no-op.
func (e *GovernanceEngine) RevokeDelegation(ctx context.Context, delegator, delegate string) error {
	from, err := domain.NormalizeAddress(delegator)
	if err != nil {
		return err
	}
	to, err := domain.NormalizeAddress(delegate)
	if err != nil {
		return err
	}
	if err := e.delegations.DeleteDelegation(ctx, from, to); err != nil {
		return fmt.Errorf("failed to delete delegation: %w", err)
	}
	e.log.Info("delegation revoked", "delegator", from, "delegate", to)
	return nil
}

// GetDelegatedVotingPower sums the snapshot amounts delegated to delegate.
func (e *GovernanceEngine) GetDelegatedVotingPower(ctx context.Context, delegate string) (*big.Int, error) {
	delegations, err := e.ListDelegations(ctx, delegate)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, d := range delegations {
		total.Add(total, d.Amount)
	}
	return total, nil
}

// ListDelegations returns every delegation pointing at delegate.
func (e *GovernanceEngine) ListDelegations(ctx context.Context, delegate string) ([]*models.Delegation, error) {
	to, err := domain.NormalizeAddress(delegate)
	if err != nil {
		return nil, err
	}
	delegations, err := e.delegations.ListDelegationsTo(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list delegations: %w", err)
	}
	return delegations, nil
}

// SubmitVote forwards to ProposalManager.Vote.
func (e *GovernanceEngine) SubmitVote(ctx context.Context, proposalID, voter string, choice models.VoteChoice) (*models.Vote, error) {
	return e.proposals.Vote(ctx, proposalID, voter, choice)
}

// Process forwards to ProposalManager.ProcessProposals.
func (e *GovernanceEngine) Process(ctx context.Context) (*ProcessResult, error) {
	return e.proposals.ProcessProposals(ctx)
}

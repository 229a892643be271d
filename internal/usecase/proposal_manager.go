package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// errAlreadyExecuted aborts an execution claim on an executed entity so the
// caller can turn it into a no-op.
var errAlreadyExecuted = errors.New("already executed")

// GovernanceRules are the resolved [governance] settings
type GovernanceRules struct {
	ProposalThreshold  *big.Int
	VotingPeriod       time.Duration
	QuorumPercentage   uint64
	MajorityPercentage uint64
	QuorumBasis        domain.QuorumBasis
}

// RulesFromConfig validates the governance section.
func RulesFromConfig(cfg config.GovernanceConfig) (GovernanceRules, error) {
	basis, err := domain.ParseQuorumBasis(cfg.QuorumBasis)
	if err != nil {
		return GovernanceRules{}, err
	}
	if cfg.QuorumPercentage > 100 {
		return GovernanceRules{}, fmt.Errorf("quorum_percentage must be between 0 and 100, got %d", cfg.QuorumPercentage)
	}
	if cfg.MajorityPercentage > 100 {
		return GovernanceRules{}, fmt.Errorf("majority_percentage must be between 0 and 100, got %d", cfg.MajorityPercentage)
	}
	if cfg.VotingPeriod <= 0 {
		return GovernanceRules{}, fmt.Errorf("voting_period must be positive, got %s", cfg.VotingPeriod)
	}
	threshold := new(big.Int)
	if cfg.ProposalThreshold != nil {
		if cfg.ProposalThreshold.Sign() < 0 {
			return GovernanceRules{}, fmt.Errorf("proposal_threshold must not be negative")
		}
		threshold.Set(cfg.ProposalThreshold)
	}
	return GovernanceRules{
		ProposalThreshold:  threshold,
		VotingPeriod:       cfg.VotingPeriod,
		QuorumPercentage:   cfg.QuorumPercentage,
		MajorityPercentage: cfg.MajorityPercentage,
		QuorumBasis:        basis,
	}, nil
}

// SubmitProposalParams contains parameters for submitting a proposal
type SubmitProposalParams struct {
	Title       string
	Description string
	Proposer    string
	Payload     models.ProposalPayload
	Metadata    map[string]any
}

// FinalizedProposal pairs a finalized proposal with the numbers behind it
type FinalizedProposal struct {
	Proposal *models.Proposal
	Outcome  domain.Outcome
}

// ProcessResult contains the result of a finalization sweep
type ProcessResult struct {
	Finalized []FinalizedProposal
	Pending   int // proposals still inside their voting window
}

// ProposalManager owns the proposal lifecycle:
//
//	draft -> voting -> approved -> executed
//	               \-> rejected
//	draft, voting -> cancelled
type ProposalManager struct {
	rules     GovernanceRules
	treasury  string
	proposals ProposalRepository
	power     *VotingPower
	oracle    BalanceOracle
	ledger    TokenLedger
	clock     Clock
	metrics   MetricsRecorder
	log       *slog.Logger
}

// NewProposalManager creates a new proposal manager
func NewProposalManager(
	cfg *config.RuntimeConfig,
	proposals ProposalRepository,
	power *VotingPower,
	oracle BalanceOracle,
	ledger TokenLedger,
	clock Clock,
	metrics MetricsRecorder,
	log *slog.Logger,
) (*ProposalManager, error) {
	rules, err := RulesFromConfig(cfg.Governance)
	if err != nil {
		return nil, fmt.Errorf("invalid governance config: %w", err)
	}
	treasury, err := domain.NormalizeAddress(cfg.Treasury.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid treasury address: %w", err)
	}
	return &ProposalManager{
		rules:     rules,
		treasury:  treasury,
		proposals: proposals,
		power:     power,
		oracle:    oracle,
		ledger:    ledger,
		clock:     clock,
		metrics:   metrics,
		log:       log.With("component", "proposals"),
	}, nil
}

// SubmitProposal validates and stores a new draft proposal.
func (m *ProposalManager) SubmitProposal(ctx context.Context, params SubmitProposalParams) (*models.Proposal, error) {
	proposer, err := domain.NormalizeAddress(params.Proposer)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, domain.InvalidParameter("title must not be empty")
	}
	if strings.TrimSpace(params.Description) == "" {
		return nil, domain.InvalidParameter("description must not be empty")
	}
	payload, err := validatePayload(params.Payload)
	if err != nil {
		return nil, err
	}

	balance, err := m.oracle.Balance(ctx, proposer)
	if err != nil {
		return nil, domain.BlockchainError("balance lookup", err)
	}
	if balance.Cmp(m.rules.ProposalThreshold) < 0 {
		return nil, domain.Unauthorized("balance %s is below the proposal threshold %s", balance, m.rules.ProposalThreshold)
	}

	now := m.clock.Now()
	metadata := params.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}
	p := &models.Proposal{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(params.Title),
		Description:  params.Description,
		Proposer:     proposer,
		Payload:      payload,
		State:        models.ProposalStateDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
		Metadata:     metadata,
		YesVotes:     new(big.Int),
		NoVotes:      new(big.Int),
		AbstainVotes: new(big.Int),
		Votes:        []models.Vote{},
	}
	if err := m.proposals.SaveProposal(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save proposal: %w", err)
	}

	m.metrics.ProposalTransition(p.State)
	m.log.Info("proposal submitted", "proposal", p.ID, "kind", p.Payload.Kind, "proposer", proposer)
	return p, nil
}

// validatePayload checks the variant-specific fields and normalizes addresses.
func validatePayload(in models.ProposalPayload) (models.ProposalPayload, error) {
	switch in.Kind {
	case models.ProposalKindTransfer:
		t := in.Transfer
		if t == nil {
			return in, domain.InvalidParameter("transfer proposal is missing its transfer details")
		}
		to, err := domain.NormalizeAddress(t.To)
		if err != nil {
			return in, domain.InvalidParameter("invalid recipient address %q", t.To)
		}
		if t.Amount == nil || t.Amount.Sign() <= 0 {
			return in, domain.InvalidParameter("transfer amount must be greater than zero")
		}
		if strings.TrimSpace(t.Token) == "" {
			return in, domain.InvalidParameter("transfer token must not be empty")
		}
		return models.NewTransferPayload(to, new(big.Int).Set(t.Amount), strings.ToUpper(strings.TrimSpace(t.Token))), nil

	case models.ProposalKindContractCall:
		c := in.ContractCall
		if c == nil {
			return in, domain.InvalidParameter("contract call proposal is missing its call details")
		}
		target, err := domain.NormalizeAddress(c.Target)
		if err != nil {
			return in, domain.InvalidParameter("invalid contract address %q", c.Target)
		}
		if strings.TrimSpace(c.Function) == "" {
			return in, domain.InvalidParameter("contract function must not be empty")
		}
		return models.NewContractCallPayload(target, strings.TrimSpace(c.Function), c.Args), nil

	case models.ProposalKindParameterChange:
		pc := in.ParameterChange
		if pc == nil {
			return in, domain.InvalidParameter("parameter change proposal is missing its parameter")
		}
		if strings.TrimSpace(pc.Name) == "" {
			return in, domain.InvalidParameter("parameter name must not be empty")
		}
		if pc.Value == nil {
			return in, domain.InvalidParameter("parameter value must not be null")
		}
		return in, nil

	case models.ProposalKindText:
		if in.Text == nil {
			return models.NewTextPayload(nil), nil
		}
		return in, nil
	}
	return in, domain.InvalidParameter("unknown proposal kind %q", in.Kind)
}

// StartVoting opens the voting window on a draft proposal.
func (m *ProposalManager) StartVoting(ctx context.Context, id string) (*models.Proposal, error) {
	now := m.clock.Now()
	p, err := m.proposals.UpdateProposal(ctx, id, func(p *models.Proposal) error {
		if p.State != models.ProposalStateDraft {
			return domain.InvalidParameter("proposal %s is %s, voting can only start on a draft", p.ID, p.State)
		}
		start, end := now, now.Add(m.rules.VotingPeriod)
		p.VotingStartsAt = &start
		p.VotingEndsAt = &end
		p.State = models.ProposalStateVoting
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.metrics.ProposalTransition(p.State)
	m.log.Info("voting started", "proposal", p.ID, "ends", p.VotingEndsAt)
	return p, nil
}

// Vote records voter's choice with a weight snapshot. The voter's weight is
// resolved before the proposal is locked; state, window and duplicate checks
// are repeated inside the atomic update.
func (m *ProposalManager) Vote(ctx context.Context, id, voter string, choice models.VoteChoice) (*models.Vote, error) {
	addr, err := domain.NormalizeAddress(voter)
	if err != nil {
		return nil, err
	}
	if _, err := models.ParseVoteChoice(string(choice)); err != nil {
		return nil, domain.InvalidParameter("%s", err)
	}

	current, err := m.proposals.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVotable(current, addr, m.clock.Now()); err != nil {
		return nil, err
	}

	weight, err := m.power.Weight(ctx, addr)
	if err != nil {
		return nil, err
	}
	if weight.IsZero() {
		return nil, domain.Unauthorized("%s has no voting power", addr)
	}

	var vote models.Vote
	_, err = m.proposals.UpdateProposal(ctx, id, func(p *models.Proposal) error {
		now := m.clock.Now()
		if err := checkVotable(p, addr, now); err != nil {
			return err
		}
		vote = models.Vote{
			Voter:  addr,
			Choice: choice,
			Weight: new(big.Int).Set(weight.Value),
			CastAt: now,
		}
		p.RecordVote(vote)
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.metrics.VoteCast(choice)
	m.log.Info("vote cast", "proposal", id, "voter", addr, "choice", choice, "weight", vote.Weight)
	return &vote, nil
}

func checkVotable(p *models.Proposal, voter string, now time.Time) error {
	if p.State != models.ProposalStateVoting {
		return domain.InvalidParameter("proposal %s is %s, not open for voting", p.ID, p.State)
	}
	if !p.VotingOpen(now) {
		return domain.Unauthorized("voting on proposal %s is outside its voting window", p.ID)
	}
	if p.HasVoted(voter) {
		return domain.AlreadyExists("%s already voted on proposal %s", voter, p.ID)
	}
	return nil
}

// ProcessProposals finalizes every voting proposal whose window has closed.
// It is safe to run repeatedly and concurrently: each proposal is re-checked
// inside its atomic update and finalized at most once. Failures on individual
// proposals don't stop the sweep and are joined into the returned error.
func (m *ProposalManager) ProcessProposals(ctx context.Context) (*ProcessResult, error) {
	open, err := m.proposals.ListProposals(ctx, domain.ProposalFilter{State: models.ProposalStateVoting})
	if err != nil {
		return nil, fmt.Errorf("failed to list voting proposals: %w", err)
	}

	now := m.clock.Now()
	result := &ProcessResult{}

	var supply *big.Int
	var errs []error
	for _, candidate := range open {
		if !candidate.VotingEnded(now) {
			result.Pending++
			continue
		}

		if m.rules.QuorumBasis == domain.QuorumBasisSupply && supply == nil {
			if supply, err = m.oracle.TotalSupply(ctx); err != nil {
				return result, domain.BlockchainError("total supply lookup", err)
			}
		}

		var outcome domain.Outcome
		finalized := false
		updated, err := m.proposals.UpdateProposal(ctx, candidate.ID, func(p *models.Proposal) error {
			finalized = false
			if p.State != models.ProposalStateVoting || !p.VotingEnded(now) {
				return nil
			}
			base := p.TotalVotes()
			if m.rules.QuorumBasis == domain.QuorumBasisSupply {
				base = supply
			}
			outcome = domain.Finalize(p.YesVotes, p.NoVotes, p.AbstainVotes, base, m.rules.QuorumPercentage, m.rules.MajorityPercentage)

			if p.Metadata == nil {
				p.Metadata = make(map[string]any)
			}
			p.Metadata["total_votes"] = outcome.Total.String()
			p.Metadata["quorum_threshold"] = outcome.QuorumThreshold.String()
			p.Metadata["majority_threshold"] = outcome.MajorityThreshold.String()
			p.State = outcome.State
			p.UpdatedAt = now
			finalized = true
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to finalize proposal %s: %w", candidate.ID, err))
			continue
		}
		if !finalized {
			continue
		}

		result.Finalized = append(result.Finalized, FinalizedProposal{Proposal: updated, Outcome: outcome})
		m.metrics.ProposalTransition(updated.State)
		m.log.Info("proposal finalized",
			"proposal", updated.ID,
			"state", updated.State,
			"total", outcome.Total,
			"quorum", outcome.QuorumThreshold,
			"majority", outcome.MajorityThreshold,
		)
	}

	return result, errors.Join(errs...)
}

// ExecuteProposal applies the effect of an approved proposal. Executing an
// executed proposal is a no-op. Parameter changes are not supported and leave
// the proposal approved. When the external effect fails the proposal returns
// to approved so execution can be retried.
func (m *ProposalManager) ExecuteProposal(ctx context.Context, id string) (*models.Proposal, error) {
	current, err := m.proposals.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	switch current.State {
	case models.ProposalStateExecuted:
		return current, nil
	case models.ProposalStateApproved:
	case models.ProposalStateExecuting:
		return nil, domain.InvalidParameter("proposal %s is already being executed", id)
	default:
		return nil, domain.InvalidParameter("proposal %s is %s, only approved proposals can be executed", id, current.State)
	}
	if current.Payload.Kind == models.ProposalKindParameterChange {
		return nil, domain.NotSupported("parameter change proposals cannot be executed yet")
	}

	claimed, err := m.proposals.UpdateProposal(ctx, id, func(p *models.Proposal) error {
		switch p.State {
		case models.ProposalStateExecuted:
			return errAlreadyExecuted
		case models.ProposalStateApproved:
			p.State = models.ProposalStateExecuting
			p.UpdatedAt = m.clock.Now()
			return nil
		case models.ProposalStateExecuting:
			return domain.InvalidParameter("proposal %s is already being executed", id)
		}
		return domain.InvalidParameter("proposal %s is %s, only approved proposals can be executed", id, p.State)
	})
	if errors.Is(err, errAlreadyExecuted) {
		return m.proposals.GetProposal(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	hash, effectErr := m.dispatch(ctx, claimed)
	// the outcome is recorded even when ctx was what failed the effect
	record := context.WithoutCancel(ctx)
	if effectErr != nil {
		m.metrics.ExecutionFailed("proposal")
		m.log.Error("proposal execution failed", "proposal", id, "error", effectErr)
		if _, err := m.proposals.UpdateProposal(record, id, func(p *models.Proposal) error {
			if p.State == models.ProposalStateExecuting {
				p.State = models.ProposalStateApproved
				if p.Metadata == nil {
					p.Metadata = make(map[string]any)
				}
				p.Metadata["last_execution_error"] = effectErr.Error()
				p.UpdatedAt = m.clock.Now()
			}
			return nil
		}); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to execute proposal %s: %w", id, effectErr), err)
		}
		return nil, fmt.Errorf("failed to execute proposal %s: %w", id, effectErr)
	}

	executed, err := m.proposals.UpdateProposal(record, id, func(p *models.Proposal) error {
		now := m.clock.Now()
		p.State = models.ProposalStateExecuted
		p.ExecutedAt = &now
		p.ExecutionHash = hash
		p.UpdatedAt = now
		delete(p.Metadata, "last_execution_error")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("proposal %s executed (hash %q) but could not be recorded: %w", id, hash, err)
	}

	m.metrics.ProposalTransition(executed.State)
	m.log.Info("proposal executed", "proposal", id, "kind", executed.Payload.Kind, "hash", hash)
	return executed, nil
}

// dispatch performs the external effect and returns its transaction hash.
func (m *ProposalManager) dispatch(ctx context.Context, p *models.Proposal) (string, error) {
	switch p.Payload.Kind {
	case models.ProposalKindTransfer:
		t := p.Payload.Transfer
		transfer, err := m.ledger.Transfer(ctx, t.Token, m.treasury, t.To, t.Amount)
		if err != nil {
			return "", err
		}
		return transfer.TxHash, nil
	case models.ProposalKindContractCall:
		c := p.Payload.ContractCall
		receipt, err := m.oracle.CallContract(ctx, c.Target, c.Function, c.Args)
		if err != nil {
			return "", domain.BlockchainError("contract call", err)
		}
		return receipt.TxHash, nil
	case models.ProposalKindText:
		return "", nil
	}
	return "", domain.NotSupported("%s proposals cannot be executed", p.Payload.Kind)
}

// CancelProposal cancels a draft or voting proposal on behalf of its proposer.
func (m *ProposalManager) CancelProposal(ctx context.Context, id, canceller string) (*models.Proposal, error) {
	addr, err := domain.NormalizeAddress(canceller)
	if err != nil {
		return nil, err
	}
	p, err := m.proposals.UpdateProposal(ctx, id, func(p *models.Proposal) error {
		if p.State != models.ProposalStateDraft && p.State != models.ProposalStateVoting {
			return domain.InvalidParameter("proposal %s is %s, only draft or voting proposals can be cancelled", p.ID, p.State)
		}
		if p.Proposer != addr {
			return domain.Unauthorized("only the proposer can cancel proposal %s", p.ID)
		}
		p.State = models.ProposalStateCancelled
		p.UpdatedAt = m.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.metrics.ProposalTransition(p.State)
	m.log.Info("proposal cancelled", "proposal", p.ID)
	return p, nil
}

// GetProposal returns a proposal by id.
func (m *ProposalManager) GetProposal(ctx context.Context, id string) (*models.Proposal, error) {
	return m.proposals.GetProposal(ctx, id)
}

// ListProposals returns proposals matching filter, oldest first.
func (m *ProposalManager) ListProposals(ctx context.Context, filter domain.ProposalFilter) ([]*models.Proposal, error) {
	return m.proposals.ListProposals(ctx, filter)
}

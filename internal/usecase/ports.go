package usecase

import (
	"context"
	"math/big"
	"time"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// BalanceOracle is the chain-facing view of the governance token
type BalanceOracle interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
	TotalSupply(ctx context.Context) (*big.Int, error)
	IsValidAddress(address string) bool
	// Sender is the signing account SendTransaction debits
	Sender() string
	// SendTransaction moves governance tokens from the oracle's signing account
	SendTransaction(ctx context.Context, to string, amount *big.Int) (*models.Receipt, error)
	CallContract(ctx context.Context, address, function string, args []string) (*models.Receipt, error)
}

// ProposalRepository handles persistence of proposals.
//
// UpdateProposal runs mutate against the stored proposal inside a single
// storage transaction: concurrent updates of the same id are serialized and a
// non-nil error from mutate discards every change.
type ProposalRepository interface {
	GetProposal(ctx context.Context, id string) (*models.Proposal, error)
	ListProposals(ctx context.Context, filter domain.ProposalFilter) ([]*models.Proposal, error)
	SaveProposal(ctx context.Context, proposal *models.Proposal) error
	UpdateProposal(ctx context.Context, id string, mutate func(*models.Proposal) error) (*models.Proposal, error)
}

// TransactionRepository handles persistence of treasury transactions, with the
// same atomic update contract as ProposalRepository.
type TransactionRepository interface {
	GetTransaction(ctx context.Context, id string) (*models.TreasuryTransaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*models.TreasuryTransaction, error)
	SaveTransaction(ctx context.Context, tx *models.TreasuryTransaction) error
	UpdateTransaction(ctx context.Context, id string, mutate func(*models.TreasuryTransaction) error) (*models.TreasuryTransaction, error)
}

// DelegationRepository stores delegations keyed by (delegator, delegate)
type DelegationRepository interface {
	// SaveDelegation inserts or replaces the row for the pair
	SaveDelegation(ctx context.Context, delegation *models.Delegation) error
	// DeleteDelegation removes the row for the pair; absent rows are not an error
	DeleteDelegation(ctx context.Context, delegator, delegate string) error
	ListDelegationsTo(ctx context.Context, delegate string) ([]*models.Delegation, error)
	ListDelegationsFrom(ctx context.Context, delegator string) ([]*models.Delegation, error)
}

// TokenLedger tracks token balances. Transfer debits and credits atomically.
type TokenLedger interface {
	TokenExists(ctx context.Context, symbol string) (bool, error)
	GetToken(ctx context.Context, symbol string) (*models.Token, error)
	ListTokens(ctx context.Context) ([]*models.Token, error)
	GetBalance(ctx context.Context, symbol, address string) (*big.Int, error)
	Transfer(ctx context.Context, symbol, from, to string, amount *big.Int) (*models.TokenTransfer, error)
	CreateToken(ctx context.Context, token *models.Token) error
	Mint(ctx context.Context, symbol, to string, amount *big.Int) error
	Burn(ctx context.Context, symbol, from string, amount *big.Int) error
}

// PermissionStore persists permission overrides, member roles and signers
type PermissionStore interface {
	// LoadPermissions returns nil and no error when nothing was saved
	LoadPermissions() (*domain.PermissionState, error)
	SavePermissions(state *domain.PermissionState) error
}

// InteractiveSelector handles interactive disambiguation
type InteractiveSelector interface {
	SelectProposal(ctx context.Context, proposals []*models.Proposal, prompt string) (*models.Proposal, error)
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// MetricsRecorder observes state transitions
type MetricsRecorder interface {
	ProposalTransition(state models.ProposalState)
	VoteCast(choice models.VoteChoice)
	TreasuryTransition(status models.TransactionStatus)
	ExecutionFailed(kind string)
}

// NopMetrics discards every observation
type NopMetrics struct{}

func (NopMetrics) ProposalTransition(models.ProposalState)     {}
func (NopMetrics) VoteCast(models.VoteChoice)                  {}
func (NopMetrics) TreasuryTransition(models.TransactionStatus) {}
func (NopMetrics) ExecutionFailed(string)                      {}

// Clock abstracts the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage   string
	Message string
	Spinner bool
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

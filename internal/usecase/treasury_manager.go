package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// CreateTransactionParams contains parameters for a treasury transaction
type CreateTransactionParams struct {
	Description string
	To          string
	Token       string
	Amount      *big.Int
	// RequiredApprovals falls back to the configured default when zero
	RequiredApprovals int
	CreatedBy         string
}

// TokenBalance is one line of the treasury balance sheet
type TokenBalance struct {
	Token   *models.Token
	Balance *big.Int
}

// TreasuryManager runs the multi-approval workflow for treasury transfers:
//
//	pending -> approved -> executed | failed
//	pending -> rejected
type TreasuryManager struct {
	address         string
	defaultRequired int
	transactions    TransactionRepository
	ledger          TokenLedger
	permissions     *PermissionManager
	clock           Clock
	metrics         MetricsRecorder
	log             *slog.Logger
}

// NewTreasuryManager creates a new treasury manager
func NewTreasuryManager(
	cfg *config.RuntimeConfig,
	transactions TransactionRepository,
	ledger TokenLedger,
	permissions *PermissionManager,
	clock Clock,
	metrics MetricsRecorder,
	log *slog.Logger,
) (*TreasuryManager, error) {
	address, err := domain.NormalizeAddress(cfg.Treasury.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid treasury address: %w", err)
	}
	required := cfg.Treasury.RequiredApprovals
	if required == 0 {
		required = 1
	}
	if required < 0 {
		return nil, fmt.Errorf("treasury.required_approvals must be at least 1, got %d", required)
	}
	return &TreasuryManager{
		address:         address,
		defaultRequired: required,
		transactions:    transactions,
		ledger:          ledger,
		permissions:     permissions,
		clock:           clock,
		metrics:         metrics,
		log:             log.With("component", "treasury"),
	}, nil
}

// Address returns the treasury account.
func (m *TreasuryManager) Address() string {
	return m.address
}

// CreateTransaction validates the request against the treasury balance and
// stores it as pending with no approvals.
func (m *TreasuryManager) CreateTransaction(ctx context.Context, params CreateTransactionParams) (*models.TreasuryTransaction, error) {
	if strings.TrimSpace(params.Description) == "" {
		return nil, domain.InvalidParameter("description must not be empty")
	}
	to, err := domain.NormalizeAddress(params.To)
	if err != nil {
		return nil, domain.InvalidParameter("invalid recipient address %q", params.To)
	}
	if params.Amount == nil || params.Amount.Sign() <= 0 {
		return nil, domain.InvalidParameter("amount must be greater than zero")
	}
	symbol := strings.ToUpper(strings.TrimSpace(params.Token))
	if symbol == "" {
		return nil, domain.InvalidParameter("token must not be empty")
	}

	required := params.RequiredApprovals
	if required == 0 {
		required = m.defaultRequired
	}
	if required < 1 {
		return nil, domain.InvalidParameter("required approvals must be at least 1")
	}
	if signers := m.permissions.SignerCount(); required > signers {
		return nil, domain.InvalidParameter("%d approvals required but only %d signers are configured", required, signers)
	}

	exists, err := m.ledger.TokenExists(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token %s: %w", symbol, err)
	}
	if !exists {
		return nil, domain.InvalidParameter("token %s does not exist", symbol)
	}
	balance, err := m.ledger.GetBalance(ctx, symbol, m.address)
	if err != nil {
		return nil, fmt.Errorf("failed to read treasury balance: %w", err)
	}
	if balance.Cmp(params.Amount) < 0 {
		return nil, domain.InvalidParameter("insufficient treasury balance: have %s %s, need %s", balance, symbol, params.Amount)
	}

	var createdBy string
	if params.CreatedBy != "" {
		if createdBy, err = domain.NormalizeAddress(params.CreatedBy); err != nil {
			return nil, err
		}
	}

	now := m.clock.Now()
	tx := &models.TreasuryTransaction{
		ID:                uuid.NewString(),
		Description:       strings.TrimSpace(params.Description),
		To:                to,
		Token:             symbol,
		Amount:            new(big.Int).Set(params.Amount),
		Status:            models.TransactionStatusPending,
		RequiredApprovals: required,
		Approvals:         []models.Approval{},
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
		Metadata:          map[string]string{},
	}
	if err := m.transactions.SaveTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	m.metrics.TreasuryTransition(tx.Status)
	m.log.Info("treasury transaction created", "tx", tx.ID, "to", to, "amount", tx.Amount, "token", symbol, "required", required)
	return tx, nil
}

// ApproveTransaction records approver's approval. The approval that reaches
// the threshold moves the transaction to approved and executes it; exactly one
// caller observes that transition even under concurrent approvals.
func (m *TreasuryManager) ApproveTransaction(ctx context.Context, id, approver string) (*models.TreasuryTransaction, error) {
	signer, err := domain.NormalizeAddress(approver)
	if err != nil {
		return nil, err
	}

	var reachedThreshold bool
	tx, err := m.transactions.UpdateTransaction(ctx, id, func(tx *models.TreasuryTransaction) error {
		reachedThreshold = false
		if tx.Status != models.TransactionStatusPending {
			return domain.InvalidParameter("transaction %s is %s, only pending transactions can be approved", tx.ID, tx.Status)
		}
		if !m.permissions.IsSigner(signer) {
			return domain.Unauthorized("%s is not a treasury signer", signer)
		}
		if tx.HasApproved(signer) {
			return domain.InvalidParameter("%s already approved transaction %s", signer, tx.ID)
		}
		now := m.clock.Now()
		tx.Approvals = append(tx.Approvals, models.Approval{Signer: signer, ApprovedAt: now})
		tx.UpdatedAt = now
		if tx.ThresholdReached() {
			tx.Status = models.TransactionStatusApproved
			reachedThreshold = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("treasury transaction approved", "tx", id, "approver", signer,
		"approvals", tx.CurrentApprovals(), "required", tx.RequiredApprovals)
	if !reachedThreshold {
		return tx, nil
	}

	m.metrics.TreasuryTransition(tx.Status)
	executed, err := m.ExecuteTransaction(ctx, id)
	if err != nil {
		return executed, fmt.Errorf("transaction %s approved but execution failed: %w", id, err)
	}
	return executed, nil
}

// RejectTransaction rejects a pending transaction on behalf of a signer.
func (m *TreasuryManager) RejectTransaction(ctx context.Context, id, rejector string) (*models.TreasuryTransaction, error) {
	signer, err := domain.NormalizeAddress(rejector)
	if err != nil {
		return nil, err
	}
	tx, err := m.transactions.UpdateTransaction(ctx, id, func(tx *models.TreasuryTransaction) error {
		if tx.Status != models.TransactionStatusPending {
			return domain.InvalidParameter("transaction %s is %s, only pending transactions can be rejected", tx.ID, tx.Status)
		}
		if !m.permissions.IsSigner(signer) {
			return domain.Unauthorized("%s is not a treasury signer", signer)
		}
		tx.Status = models.TransactionStatusRejected
		tx.RejectedBy = signer
		tx.UpdatedAt = m.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.metrics.TreasuryTransition(tx.Status)
	m.log.Info("treasury transaction rejected", "tx", id, "rejector", signer)
	return tx, nil
}

// ExecuteTransaction transfers the funds of an approved transaction. The
// transaction is claimed first so a concurrent executor can't transfer twice;
// executing an executed transaction is a no-op. A failed transfer moves the
// transaction to failed with the reason in Metadata["error"].
func (m *TreasuryManager) ExecuteTransaction(ctx context.Context, id string) (*models.TreasuryTransaction, error) {
	claimed, err := m.transactions.UpdateTransaction(ctx, id, func(tx *models.TreasuryTransaction) error {
		switch tx.Status {
		case models.TransactionStatusExecuted:
			return errAlreadyExecuted
		case models.TransactionStatusApproved:
			tx.Status = models.TransactionStatusExecuting
			tx.UpdatedAt = m.clock.Now()
			return nil
		case models.TransactionStatusExecuting:
			return domain.InvalidParameter("transaction %s is already being executed", tx.ID)
		}
		return domain.InvalidParameter("transaction %s is %s, only approved transactions can be executed", tx.ID, tx.Status)
	})
	if errors.Is(err, errAlreadyExecuted) {
		return m.transactions.GetTransaction(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	transfer, transferErr := m.ledger.Transfer(ctx, claimed.Token, m.address, claimed.To, claimed.Amount)
	// the outcome is recorded even when ctx was what failed the transfer
	record := context.WithoutCancel(ctx)
	if transferErr != nil {
		m.metrics.ExecutionFailed("treasury")
		m.log.Error("treasury transfer failed", "tx", id, "error", transferErr)
		failed, err := m.transactions.UpdateTransaction(record, id, func(tx *models.TreasuryTransaction) error {
			tx.Status = models.TransactionStatusFailed
			if tx.Metadata == nil {
				tx.Metadata = make(map[string]string)
			}
			tx.Metadata["error"] = transferErr.Error()
			tx.UpdatedAt = m.clock.Now()
			return nil
		})
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to execute transaction %s: %w", id, transferErr), err)
		}
		m.metrics.TreasuryTransition(failed.Status)
		return failed, fmt.Errorf("failed to execute transaction %s: %w", id, transferErr)
	}

	executed, err := m.transactions.UpdateTransaction(record, id, func(tx *models.TreasuryTransaction) error {
		now := m.clock.Now()
		tx.Status = models.TransactionStatusExecuted
		tx.ExecutedAt = &now
		tx.ExecutionHash = transfer.TxHash
		tx.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("transaction %s transferred (hash %q) but could not be recorded: %w", id, transfer.TxHash, err)
	}

	m.metrics.TreasuryTransition(executed.Status)
	m.log.Info("treasury transaction executed", "tx", id, "hash", transfer.TxHash)
	return executed, nil
}

// GetBalance returns the treasury's balance of symbol.
func (m *TreasuryManager) GetBalance(ctx context.Context, symbol string) (*big.Int, error) {
	return m.ledger.GetBalance(ctx, symbol, m.address)
}

// GetBalances returns the treasury's balance of every known token. Balances
// are read concurrently.
func (m *TreasuryManager) GetBalances(ctx context.Context) ([]TokenBalance, error) {
	tokens, err := m.ledger.ListTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	balances := make([]TokenBalance, len(tokens))
	g, gctx := errgroup.WithContext(ctx)
	for i, token := range tokens {
		g.Go(func() error {
			b, err := m.ledger.GetBalance(gctx, token.Symbol, m.address)
			if err != nil {
				return fmt.Errorf("failed to read %s balance: %w", token.Symbol, err)
			}
			balances[i] = TokenBalance{Token: token, Balance: b}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return balances, nil
}

// GetTransaction returns a treasury transaction by id.
func (m *TreasuryManager) GetTransaction(ctx context.Context, id string) (*models.TreasuryTransaction, error) {
	return m.transactions.GetTransaction(ctx, id)
}

// ListTransactions returns transactions matching filter, oldest first.
func (m *TreasuryManager) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*models.TreasuryTransaction, error) {
	return m.transactions.ListTransactions(ctx, filter)
}

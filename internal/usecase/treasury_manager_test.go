package usecase_test

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

// newGrantToken creates a local GRT token with supply held by the treasury
func newGrantToken(t *testing.T, env *testEnv, supply int64) {
	t.Helper()
	_, err := env.tokens.Create(env.ctx, usecase.CreateTokenParams{
		Symbol:        "grt",
		Name:          "Grant Token",
		InitialSupply: big.NewInt(supply),
	})
	require.NoError(t, err)
}

func createTx(t *testing.T, env *testEnv, amount int64) *models.TreasuryTransaction {
	t.Helper()
	tx, err := env.treasury.CreateTransaction(env.ctx, usecase.CreateTransactionParams{
		Description: "Q2 grants",
		To:          recipient,
		Token:       "GRT",
		Amount:      big.NewInt(amount),
		CreatedBy:   signer1,
	})
	require.NoError(t, err)
	return tx
}

func TestTreasuryApprovalFlow(t *testing.T) {
	env := newTestEnv(t)
	newGrantToken(t, env, 1000)

	tx := createTx(t, env, 400)
	assert.Equal(t, models.TransactionStatusPending, tx.Status)
	assert.Equal(t, 0, tx.CurrentApprovals())
	assert.Equal(t, 2, tx.RequiredApprovals)

	tx, err := env.treasury.ApproveTransaction(env.ctx, tx.ID, signer1)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, tx.Status)
	assert.Equal(t, 1, tx.CurrentApprovals())

	t.Run("same signer twice", func(t *testing.T) {
		_, err := env.treasury.ApproveTransaction(env.ctx, tx.ID, signer1)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)

		got, err := env.treasury.GetTransaction(env.ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.CurrentApprovals())
	})

	t.Run("non signer", func(t *testing.T) {
		_, err := env.treasury.ApproveTransaction(env.ctx, tx.ID, alice)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	tx, err = env.treasury.ApproveTransaction(env.ctx, tx.ID, signer2)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusExecuted, tx.Status)
	assert.NotEmpty(t, tx.ExecutionHash)
	assert.NotNil(t, tx.ExecutedAt)
	assert.Equal(t, int64(400), env.balance(t, "GRT", recipient))
	assert.Equal(t, int64(600), env.balance(t, "GRT", treasuryAddr))

	t.Run("second execute does not move funds", func(t *testing.T) {
		again, err := env.treasury.ExecuteTransaction(env.ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusExecuted, again.Status)
		assert.Equal(t, int64(400), env.balance(t, "GRT", recipient))
	})

	t.Run("approving an executed transaction", func(t *testing.T) {
		_, err := env.treasury.ApproveTransaction(env.ctx, tx.ID, signer3)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})
}

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestEnv(t)
	newGrantToken(t, env, 100)

	tests := []struct {
		name   string
		params usecase.CreateTransactionParams
	}{
		{"unknown token", usecase.CreateTransactionParams{Description: "d", To: recipient, Token: "NOPE", Amount: big.NewInt(1)}},
		{"over balance", usecase.CreateTransactionParams{Description: "d", To: recipient, Token: "GRT", Amount: big.NewInt(101)}},
		{"zero amount", usecase.CreateTransactionParams{Description: "d", To: recipient, Token: "GRT", Amount: big.NewInt(0)}},
		{"bad recipient", usecase.CreateTransactionParams{Description: "d", To: "bogus", Token: "GRT", Amount: big.NewInt(1)}},
		{"empty description", usecase.CreateTransactionParams{To: recipient, Token: "GRT", Amount: big.NewInt(1)}},
		{"more approvals than signers", usecase.CreateTransactionParams{Description: "d", To: recipient, Token: "GRT", Amount: big.NewInt(1), RequiredApprovals: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.treasury.CreateTransaction(env.ctx, tt.params)
			assert.ErrorIs(t, err, domain.ErrInvalidParameter)
		})
	}
}

func TestRejectTransaction(t *testing.T) {
	env := newTestEnv(t)
	newGrantToken(t, env, 100)
	tx := createTx(t, env, 50)

	_, err := env.treasury.RejectTransaction(env.ctx, tx.ID, bob)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	rejected, err := env.treasury.RejectTransaction(env.ctx, tx.ID, signer3)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRejected, rejected.Status)
	assert.Equal(t, signer3, rejected.RejectedBy)

	_, err = env.treasury.ApproveTransaction(env.ctx, tx.ID, signer1)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = env.treasury.ExecuteTransaction(env.ctx, tx.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestTreasuryExecutionFailure(t *testing.T) {
	env := newTestEnv(t)
	newGrantToken(t, env, 100)
	tx := createTx(t, env, 80)

	// drain the treasury between creation and approval
	_, err := env.tokens.Burn(env.ctx, "GRT", treasuryAddr, big.NewInt(50))
	require.NoError(t, err)

	_, err = env.treasury.ApproveTransaction(env.ctx, tx.ID, signer1)
	require.NoError(t, err)
	failed, err := env.treasury.ApproveTransaction(env.ctx, tx.ID, signer2)
	require.Error(t, err)
	require.NotNil(t, failed)
	assert.Equal(t, models.TransactionStatusFailed, failed.Status)
	assert.Contains(t, failed.Metadata["error"], "insufficient")

	got, err := env.treasury.GetTransaction(env.ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, got.Status)
	assert.Equal(t, int64(0), env.balance(t, "GRT", recipient))

	// failed is terminal
	_, err = env.treasury.ExecuteTransaction(env.ctx, tx.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestTreasuryExecutionCancelledRecordsFailure(t *testing.T) {
	env := newTestEnv(t)
	newGrantToken(t, env, 100)
	tx := createTx(t, env, 80)

	ctx, cancel := context.WithCancel(env.ctx)
	defer cancel()
	treasury, err := usecase.NewTreasuryManager(env.cfg, env.transactions,
		&cancellingLedger{TokenLedger: env.ledger, cancel: cancel},
		env.permissions, env.clock, usecase.NopMetrics{}, discardLogger())
	require.NoError(t, err)

	_, err = treasury.ApproveTransaction(ctx, tx.ID, signer1)
	require.NoError(t, err)
	failed, err := treasury.ApproveTransaction(ctx, tx.ID, signer2)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, failed)
	assert.Equal(t, models.TransactionStatusFailed, failed.Status)

	got, err := env.treasury.GetTransaction(env.ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, got.Status)
	assert.Contains(t, got.Metadata["error"], context.Canceled.Error())
	assert.Equal(t, int64(0), env.balance(t, "GRT", recipient))
}

func TestConcurrentApprovalsExecuteOnce(t *testing.T) {
	env := newTestEnv(t)
	newGrantToken(t, env, 1000)
	tx := createTx(t, env, 300)

	var wg sync.WaitGroup
	for _, s := range []string{signer1, signer2, signer3} {
		wg.Add(1)
		go func(s string) {
			defer wg.Done()
			_, _ = env.treasury.ApproveTransaction(env.ctx, tx.ID, s)
		}(s)
	}
	wg.Wait()

	got, err := env.treasury.GetTransaction(env.ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusExecuted, got.Status)
	assert.Equal(t, 2, got.CurrentApprovals())
	assert.Equal(t, int64(300), env.balance(t, "GRT", recipient))
	assert.Equal(t, int64(700), env.balance(t, "GRT", treasuryAddr))
}

func TestSingleApprovalExecutesImmediately(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.RuntimeConfig) {
		cfg.Treasury.RequiredApprovals = 1
	})
	env.fund(t, treasuryAddr, 1000)

	tx, err := env.treasury.CreateTransaction(env.ctx, usecase.CreateTransactionParams{
		Description: "Pay the host",
		To:          recipient,
		Token:       "atom",
		Amount:      big.NewInt(10),
	})
	require.NoError(t, err)

	tx, err = env.treasury.ApproveTransaction(env.ctx, tx.ID, signer2)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusExecuted, tx.Status)
	assert.Equal(t, int64(10), env.balance(t, "ATOM", recipient))
}

func TestTreasuryBalances(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, treasuryAddr, 5000)
	newGrantToken(t, env, 250)

	balances, err := env.treasury.GetBalances(env.ctx)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "ATOM", balances[0].Token.Symbol)
	assert.Equal(t, int64(5000), balances[0].Balance.Int64())
	assert.Equal(t, "GRT", balances[1].Token.Symbol)
	assert.Equal(t, int64(250), balances[1].Balance.Int64())

	b, err := env.treasury.GetBalance(env.ctx, "grt")
	require.NoError(t, err)
	assert.Equal(t, int64(250), b.Int64())
}

func TestListTransactionsFilter(t *testing.T) {
	env := newTestEnv(t)
	newGrantToken(t, env, 1000)
	first := createTx(t, env, 10)
	second := createTx(t, env, 20)
	_, err := env.treasury.RejectTransaction(env.ctx, second.ID, signer1)
	require.NoError(t, err)

	pending, err := env.treasury.ListTransactions(env.ctx, domain.TransactionFilter{Status: models.TransactionStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)
}

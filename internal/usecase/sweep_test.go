package usecase_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	governancerepo "github.com/atomsi-org/atomsi-dao/internal/adapters/repository/governance"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

type recordingObserver struct {
	mu        sync.Mutex
	sweeps    int
	finalized int
}

func (o *recordingObserver) ObserveSweep(started time.Time, finalized int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sweeps++
	o.finalized += finalized
}

func (o *recordingObserver) counts() (int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sweeps, o.finalized
}

func TestSweepOnce(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, alice, 1000)
	newGrantToken(t, env, 1000)

	p := submitText(t, env, alice)
	_, err := env.proposals.StartVoting(env.ctx, p.ID)
	require.NoError(t, err)
	_, err = env.engine.SubmitVote(env.ctx, p.ID, alice, models.VoteYes)
	require.NoError(t, err)

	// an approved transaction whose execution never ran
	tx := createTx(t, env, 100)
	_, err = env.transactions.UpdateTransaction(env.ctx, tx.ID, func(tx *models.TreasuryTransaction) error {
		tx.Status = models.TransactionStatusApproved
		return nil
	})
	require.NoError(t, err)

	observer := &recordingObserver{}
	sweeper := usecase.NewSweeper(env.cfg, env.engine, env.treasury, observer, discardLogger())

	env.clock.Advance(73 * time.Hour)
	result, err := sweeper.SweepOnce(env.ctx)
	require.NoError(t, err)

	require.Len(t, result.Proposals.Finalized, 1)
	assert.Equal(t, models.ProposalStateApproved, result.Proposals.Finalized[0].Proposal.State)
	require.Len(t, result.Treasury, 1)
	assert.Equal(t, models.TransactionStatusExecuted, result.Treasury[0].Status)
	assert.Equal(t, int64(100), env.balance(t, "GRT", recipient))

	sweeps, finalized := observer.counts()
	assert.Equal(t, 1, sweeps)
	assert.Equal(t, 1, finalized)

	// nothing left to do
	result, err = sweeper.SweepOnce(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Proposals.Finalized)
	assert.Empty(t, result.Treasury)
}

// supplyDownOracle serves balances but cannot report the total supply
type supplyDownOracle struct {
	usecase.BalanceOracle
}

func (supplyDownOracle) TotalSupply(ctx context.Context) (*big.Int, error) {
	return nil, errors.New("rpc unavailable")
}

func TestSweepOnceContinuesPastFinalizeErrors(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.RuntimeConfig) {
		cfg.Governance.QuorumBasis = "supply"
	})
	env.fund(t, alice, 1000)
	newGrantToken(t, env, 1000)

	p := submitText(t, env, alice)
	_, err := env.proposals.StartVoting(env.ctx, p.ID)
	require.NoError(t, err)

	tx := createTx(t, env, 100)
	_, err = env.transactions.UpdateTransaction(env.ctx, tx.ID, func(tx *models.TreasuryTransaction) error {
		tx.Status = models.TransactionStatusApproved
		return nil
	})
	require.NoError(t, err)

	oracle := supplyDownOracle{BalanceOracle: env.chain}
	proposals, err := usecase.NewProposalManager(env.cfg, governancerepo.NewProposalRepository(env.store),
		env.power, oracle, env.ledger, env.clock, usecase.NopMetrics{}, discardLogger())
	require.NoError(t, err)
	engine := usecase.NewGovernanceEngine(env.power, oracle, governancerepo.NewDelegationRepository(env.store),
		proposals, env.clock, discardLogger())

	observer := &recordingObserver{}
	sweeper := usecase.NewSweeper(env.cfg, engine, env.treasury, observer, discardLogger())

	env.clock.Advance(73 * time.Hour)
	result, err := sweeper.SweepOnce(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Proposals.Finalized)
	require.Len(t, result.Treasury, 1)
	assert.Equal(t, models.TransactionStatusExecuted, result.Treasury[0].Status)

	sweeps, _ := observer.counts()
	assert.Equal(t, 1, sweeps)

	// the proposal is left for the next pass
	got, err := env.proposals.GetProposal(env.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStateVoting, got.State)
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.RuntimeConfig) {
		cfg.Daemon.SweepInterval = 10 * time.Millisecond
	})
	observer := &recordingObserver{}
	sweeper := usecase.NewSweeper(env.cfg, env.engine, env.treasury, observer, discardLogger())

	ctx, cancel := context.WithCancel(env.ctx)
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx, nil) }()

	require.Eventually(t, func() bool {
		sweeps, _ := observer.counts()
		return sweeps >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeperRejectsZeroInterval(t *testing.T) {
	env := newTestEnv(t)
	sweeper := usecase.NewSweeper(env.cfg, env.engine, env.treasury, nil, discardLogger())
	assert.Error(t, sweeper.Run(env.ctx, nil))
}

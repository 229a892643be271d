package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atomsi-org/atomsi-dao/internal/adapters/blockchain"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/ledger"
	governancerepo "github.com/atomsi-org/atomsi-dao/internal/adapters/repository/governance"
	treasuryrepo "github.com/atomsi-org/atomsi-dao/internal/adapters/repository/treasury"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/storage"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

const (
	treasuryAddr = "0x1000000000000000000000000000000000000001"
	alice        = "0x2000000000000000000000000000000000000002"
	bob          = "0x3000000000000000000000000000000000000003"
	carol        = "0x4000000000000000000000000000000000000004"
	dave         = "0x5000000000000000000000000000000000000005"
	signer1      = "0x6000000000000000000000000000000000000006"
	signer2      = "0x7000000000000000000000000000000000000007"
	signer3      = "0x8000000000000000000000000000000000000008"
	recipient    = "0x9000000000000000000000000000000000000009"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	ctx         context.Context
	cfg         *config.RuntimeConfig
	clock       *fakeClock
	chain       *blockchain.LocalChain
	ledger      *ledger.Ledger
	proposals   *usecase.ProposalManager
	engine      *usecase.GovernanceEngine
	treasury    *usecase.TreasuryManager
	permissions *usecase.PermissionManager
	tokens      *usecase.ManageTokens

	store        *storage.LevelDBBackend
	power        *usecase.VotingPower
	transactions *treasuryrepo.TransactionRepository
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{
		DAO: config.DAOConfig{
			Name:          "Test DAO",
			TokenSymbol:   "ATOM",
			TokenDecimals: 18,
		},
		Governance: config.GovernanceConfig{
			Strategy:           "token",
			ProposalThreshold:  big.NewInt(500),
			VotingPeriod:       72 * time.Hour,
			QuorumPercentage:   20,
			MajorityPercentage: 50,
		},
		Treasury: config.TreasuryConfig{
			Address:           treasuryAddr,
			Signers:           []string{signer1, signer2, signer3},
			RequiredApprovals: 2,
		},
	}
}

// newTestEnv wires every manager over an in-memory LevelDB and a local chain
func newTestEnv(t *testing.T, mutate ...func(*config.RuntimeConfig)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	st, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	clock := newFakeClock()
	log := discardLogger()

	chain, err := blockchain.NewLocalChain(st, cfg.Treasury.Address)
	require.NoError(t, err)

	l := ledger.NewLedger(cfg, st, chain, clock)

	permissions, err := usecase.NewPermissionManager(cfg, nil, log)
	require.NoError(t, err)

	power := usecase.NewVotingPower(cfg, chain, log)
	proposals, err := usecase.NewProposalManager(cfg, governancerepo.NewProposalRepository(st), power, chain, l, clock, usecase.NopMetrics{}, log)
	require.NoError(t, err)

	engine := usecase.NewGovernanceEngine(power, chain, governancerepo.NewDelegationRepository(st), proposals, clock, log)

	transactions := treasuryrepo.NewTransactionRepository(st)
	treasury, err := usecase.NewTreasuryManager(cfg, transactions, l, permissions, clock, usecase.NopMetrics{}, log)
	require.NoError(t, err)

	return &testEnv{
		ctx:         context.Background(),
		cfg:         cfg,
		clock:       clock,
		chain:       chain,
		ledger:      l,
		proposals:   proposals,
		engine:      engine,
		treasury:    treasury,
		permissions: permissions,
		tokens:      usecase.NewManageTokens(cfg, l, log),

		store:        st,
		power:        power,
		transactions: transactions,
	}
}

// cancellingLedger cancels the caller's context inside Transfer and fails
// with its error, the way an RPC call does when --timeout fires mid-transfer
type cancellingLedger struct {
	usecase.TokenLedger
	cancel context.CancelFunc
}

func (l *cancellingLedger) Transfer(ctx context.Context, symbol, from, to string, amount *big.Int) (*models.TokenTransfer, error) {
	l.cancel()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (e *testEnv) fund(t *testing.T, address string, amount int64) {
	t.Helper()
	require.NoError(t, e.chain.Fund(e.ctx, address, big.NewInt(amount)))
}

func (e *testEnv) balance(t *testing.T, symbol, address string) int64 {
	t.Helper()
	b, err := e.ledger.GetBalance(e.ctx, symbol, address)
	require.NoError(t, err)
	return b.Int64()
}

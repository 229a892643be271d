package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/wire"

	"github.com/atomsi-org/atomsi-dao/internal/adapters/blockchain"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/fs"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/interactive"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/ledger"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/metrics"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/progress"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/repository/governance"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/repository/treasury"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/resolvers"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/storage"
	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

const defaultDialTimeout = 30 * time.Second

// ProvideStorage opens the LevelDB store configured in [storage]
func ProvideStorage(cfg *config.RuntimeConfig, log *slog.Logger) (*storage.LevelDBBackend, func(), error) {
	st, err := storage.Open(cfg.Storage.Scheme, cfg.Storage.Path)
	if errors.Is(err, storage.ErrLocked) {
		return nil, nil, fmt.Errorf("failed to open storage: %w\n"+
			"Is 'atomsi daemon' running? Stop it, or sweep with 'atomsi daemon --once' from a scheduler instead", err)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	log.Debug("storage opened", "scheme", cfg.Storage.Scheme, "path", cfg.Storage.Path)

	cleanup := func() {
		if err := st.Close(); err != nil {
			log.Warn("failed to close storage", "error", err)
		}
	}
	return st, cleanup, nil
}

// ProvideLocalChain returns the offline chain, or nil when an RPC URL is configured
func ProvideLocalChain(cfg *config.RuntimeConfig, store *storage.LevelDBBackend) (*blockchain.LocalChain, error) {
	if !cfg.IsLocalChain() {
		return nil, nil
	}
	return blockchain.NewLocalChain(store, cfg.Treasury.Address)
}

// ProvideBalanceOracle picks the local chain or dials the configured RPC endpoint
func ProvideBalanceOracle(cfg *config.RuntimeConfig, local *blockchain.LocalChain, log *slog.Logger) (usecase.BalanceOracle, func(), error) {
	if local != nil {
		log.Debug("using local chain", "sender", local.Sender())
		return local, func() {}, nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	oracle, err := blockchain.NewEthereumOracle(ctx, cfg.Blockchain)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", cfg.Blockchain.RPCURL, err)
	}
	if err := verifyTreasurySender(cfg, oracle); err != nil {
		oracle.Close()
		return nil, nil, err
	}
	log.Debug("connected to chain", "rpc", cfg.Blockchain.RPCURL, "chain_id", cfg.Blockchain.ChainID)
	return oracle, oracle.Close, nil
}

// verifyTreasurySender rejects a signing key that does not belong to the treasury
func verifyTreasurySender(cfg *config.RuntimeConfig, oracle usecase.BalanceOracle) error {
	if !strings.EqualFold(oracle.Sender(), cfg.Treasury.Address) {
		return domain.InvalidParameter("blockchain.private_key signs for %s but treasury.address is %s", oracle.Sender(), cfg.Treasury.Address)
	}
	return nil
}

// ProvideClock provides the wall clock
func ProvideClock() usecase.Clock {
	return usecase.SystemClock{}
}

// StorageSet provides the LevelDB store and the repositories on top of it
var StorageSet = wire.NewSet(
	ProvideStorage,

	governance.NewProposalRepository,
	wire.Bind(new(usecase.ProposalRepository), new(*governance.ProposalRepository)),

	governance.NewDelegationRepository,
	wire.Bind(new(usecase.DelegationRepository), new(*governance.DelegationRepository)),

	treasury.NewTransactionRepository,
	wire.Bind(new(usecase.TransactionRepository), new(*treasury.TransactionRepository)),
)

// BlockchainSet provides the balance oracle
var BlockchainSet = wire.NewSet(
	ProvideLocalChain,
	ProvideBalanceOracle,
)

// LedgerSet provides the token ledger
var LedgerSet = wire.NewSet(
	ledger.NewLedger,
	wire.Bind(new(usecase.TokenLedger), new(*ledger.Ledger)),
)

// MetricsSet provides the Prometheus recorder
var MetricsSet = wire.NewSet(
	metrics.New,
	wire.Bind(new(usecase.MetricsRecorder), new(*metrics.Metrics)),
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewPermissionFileStore,
	wire.Bind(new(usecase.PermissionStore), new(*fs.PermissionFileStore)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.InteractiveSelector), new(*interactive.SelectorAdapter)),
)

// ResolverSet provides reference resolvers
var ResolverSet = wire.NewSet(
	resolvers.NewProposalResolver,
	resolvers.NewTransactionResolver,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ProvideClock,
	progress.NewSink,

	StorageSet,
	BlockchainSet,
	LedgerSet,
	MetricsSet,
	FSSet,
	InteractiveSet,
	ResolverSet,
)

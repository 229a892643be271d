package app

import (
	"log/slog"

	"github.com/atomsi-org/atomsi-dao/internal/adapters/blockchain"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/metrics"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/resolvers"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Selector usecase.InteractiveSelector
	Progress usecase.ProgressSink
	Metrics  *metrics.Metrics
	// LocalChain is nil when an RPC endpoint is configured
	LocalChain *blockchain.LocalChain

	// Resolvers
	Proposals    *resolvers.ProposalResolver
	Transactions *resolvers.TransactionResolver

	// Use cases
	Permissions     *usecase.PermissionManager
	Governance      *usecase.GovernanceEngine
	ProposalManager *usecase.ProposalManager
	Treasury        *usecase.TreasuryManager
	Tokens          *usecase.ManageTokens
	Sweeper         *usecase.Sweeper
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	selector usecase.InteractiveSelector,
	progress usecase.ProgressSink,
	recorder *metrics.Metrics,
	localChain *blockchain.LocalChain,
	proposalResolver *resolvers.ProposalResolver,
	transactionResolver *resolvers.TransactionResolver,
	permissions *usecase.PermissionManager,
	governance *usecase.GovernanceEngine,
	proposalManager *usecase.ProposalManager,
	treasury *usecase.TreasuryManager,
	tokens *usecase.ManageTokens,
	sweeper *usecase.Sweeper,
) *App {
	return &App{
		Config:          cfg,
		Log:             log,
		Selector:        selector,
		Progress:        progress,
		Metrics:         recorder,
		LocalChain:      localChain,
		Proposals:       proposalResolver,
		Transactions:    transactionResolver,
		Permissions:     permissions,
		Governance:      governance,
		ProposalManager: proposalManager,
		Treasury:        treasury,
		Tokens:          tokens,
		Sweeper:         sweeper,
	}
}

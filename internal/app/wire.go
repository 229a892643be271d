//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/atomsi-org/atomsi-dao/internal/adapters"
	"github.com/atomsi-org/atomsi-dao/internal/adapters/metrics"
	"github.com/atomsi-org/atomsi-dao/internal/config"
	"github.com/atomsi-org/atomsi-dao/internal/logging"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, func(), error) {
	wire.Build(
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,
		wire.Bind(new(usecase.SweepObserver), new(*metrics.Metrics)),

		// Use cases
		usecase.NewPermissionManager,
		usecase.NewVotingPower,
		usecase.NewProposalManager,
		usecase.NewGovernanceEngine,
		usecase.NewTreasuryManager,
		usecase.NewManageTokens,
		usecase.NewSweeper,

		// App
		NewApp,
	)
	return nil, nil, nil
}

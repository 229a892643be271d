package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

// SweepObserver is told about every completed sweep
type SweepObserver interface {
	ObserveSweep(started time.Time, finalized int)
}

// SweepResult summarizes one sweep
type SweepResult struct {
	Proposals *ProcessResult
	// Treasury lists the approved transactions the sweep tried to execute
	Treasury []*models.TreasuryTransaction
}

// Sweeper periodically finalizes proposals whose voting window has closed and
// executes treasury transactions left in the approved state.
type Sweeper struct {
	engine   *GovernanceEngine
	treasury *TreasuryManager
	interval time.Duration
	observer SweepObserver
	log      *slog.Logger
}

// NewSweeper creates a new sweeper
func NewSweeper(
	cfg *config.RuntimeConfig,
	engine *GovernanceEngine,
	treasury *TreasuryManager,
	observer SweepObserver,
	log *slog.Logger,
) *Sweeper {
	return &Sweeper{
		engine:   engine,
		treasury: treasury,
		interval: cfg.Daemon.SweepInterval,
		observer: observer,
		log:      log.With("component", "sweeper"),
	}
}

// Interval returns the configured time between sweeps
func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// SweepOnce runs a single pass. Proposals that fail to finalize are logged and
// retried on the next pass; the treasury pass still runs.
func (s *Sweeper) SweepOnce(ctx context.Context) (*SweepResult, error) {
	started := time.Now()

	processed, err := s.engine.Process(ctx)
	if processed == nil {
		return nil, err
	}
	if err != nil {
		s.log.Warn("some proposals were not finalized", "error", err)
	}
	result := &SweepResult{Proposals: processed}

	approved, err := s.treasury.ListTransactions(ctx, domain.TransactionFilter{Status: models.TransactionStatusApproved})
	if err != nil {
		return nil, err
	}
	for _, tx := range approved {
		executed, err := s.treasury.ExecuteTransaction(ctx, tx.ID)
		if err != nil {
			// failures are recorded on the transaction itself
			s.log.Warn("treasury execution failed", "tx", tx.ID, "error", err)
			if executed == nil {
				continue
			}
		}
		result.Treasury = append(result.Treasury, executed)
	}

	if s.observer != nil {
		s.observer.ObserveSweep(started, len(processed.Finalized))
	}
	return result, nil
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
// Errors of a single sweep are logged and do not stop the loop.
func (s *Sweeper) Run(ctx context.Context, onSweep func(*SweepResult)) error {
	if s.interval <= 0 {
		return domain.InvalidParameter("sweep interval must be positive")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		result, err := s.SweepOnce(ctx)
		switch {
		case err == nil:
			if onSweep != nil {
				onSweep(result)
			}
		case errors.Is(err, context.Canceled):
			return nil
		default:
			s.log.Error("sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

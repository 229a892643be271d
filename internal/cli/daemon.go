package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/atomsi-org/atomsi-dao/internal/app"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

const shutdownGrace = 5 * time.Second

// NewDaemonCmd creates the daemon command
func NewDaemonCmd() *cobra.Command {
	var (
		listen string
		once   bool
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Finalize proposals and execute approved transfers on an interval",
		Long: `Run the sweeper: every daemon.sweep_interval it finalizes proposals whose
voting window has closed and executes treasury transactions left in the
approved state. When daemon.metrics_listen (or --metrics-listen) is set,
Prometheus metrics are served on /metrics.

The daemon keeps the data directory open for its whole run, so other atomsi
commands on the same project fail until it stops. To sweep next to
interactive use, run 'atomsi daemon --once' from cron or a systemd timer.`,
		Annotations: map[string]string{annotationLongRunning: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			if once {
				result, err := a.Sweeper.SweepOnce(cmd.Context())
				if err != nil {
					return err
				}
				if ok, err := renderJSON(a, cmd.OutOrStdout(), result); ok {
					return err
				}
				logSweep(a, result)
				fmt.Fprintf(cmd.OutOrStdout(), "Finalized %d proposal(s), executed %d transaction(s)\n",
					len(result.Proposals.Finalized), len(result.Treasury))
				return nil
			}

			if listen == "" {
				listen = a.Config.Daemon.MetricsListen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, a, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "metrics-listen", "", "Address for the metrics endpoint, e.g. :9464")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single sweep and exit")
	return cmd
}

func runDaemon(ctx context.Context, a *app.App, listen string) error {
	g, ctx := errgroup.WithContext(ctx)

	a.Log.Info("daemon started", "interval", a.Sweeper.Interval(), "metrics", listen)
	g.Go(func() error {
		return a.Sweeper.Run(ctx, func(result *usecase.SweepResult) {
			logSweep(a, result)
		})
	})

	if listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.Metrics.Handler())
		srv := &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	a.Log.Info("daemon stopped")
	return err
}

func logSweep(a *app.App, result *usecase.SweepResult) {
	for _, f := range result.Proposals.Finalized {
		a.Log.Info("proposal finalized",
			"proposal", f.Proposal.ID,
			"state", f.Proposal.State,
			"quorum_reached", f.Outcome.QuorumReached)
	}
	for _, tx := range result.Treasury {
		a.Log.Info("treasury transaction swept", "tx", tx.ID, "status", tx.Status)
	}
}

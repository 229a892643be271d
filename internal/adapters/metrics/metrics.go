// Package metrics exposes governance and treasury activity to Prometheus
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

const namespace = "atomsi"

// Metrics holds the collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	ProposalTransitions *prometheus.CounterVec
	VotesCast           *prometheus.CounterVec
	TreasuryTransitions *prometheus.CounterVec
	ExecutionFailures   *prometheus.CounterVec

	SweepDuration  prometheus.Histogram
	SweepFinalized prometheus.Counter
	LastSweep      prometheus.Gauge
}

// New creates and registers all collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ProposalTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposal_transitions_total",
			Help:      "Proposals entering each state",
		}, []string{"state"}),
		VotesCast: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Votes recorded by choice",
		}, []string{"choice"}),
		TreasuryTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "treasury_transitions_total",
			Help:      "Treasury transactions entering each status",
		}, []string{"status"}),
		ExecutionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "execution_failures_total",
			Help:      "Failed proposal and treasury executions",
		}, []string{"kind"}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of proposal finalization sweeps",
			Buckets:   prometheus.DefBuckets,
		}),
		SweepFinalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_finalized_total",
			Help:      "Proposals finalized by sweeps",
		}),
		LastSweep: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix time of the last completed sweep",
		}),
	}
}

func (m *Metrics) ProposalTransition(state models.ProposalState) {
	m.ProposalTransitions.WithLabelValues(string(state)).Inc()
}

func (m *Metrics) VoteCast(choice models.VoteChoice) {
	m.VotesCast.WithLabelValues(string(choice)).Inc()
}

func (m *Metrics) TreasuryTransition(status models.TransactionStatus) {
	m.TreasuryTransitions.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) ExecutionFailed(kind string) {
	m.ExecutionFailures.WithLabelValues(kind).Inc()
}

// ObserveSweep records one completed sweep
func (m *Metrics) ObserveSweep(started time.Time, finalized int) {
	m.SweepDuration.Observe(time.Since(started).Seconds())
	m.SweepFinalized.Add(float64(finalized))
	m.LastSweep.SetToCurrentTime()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ usecase.MetricsRecorder = (*Metrics)(nil)

// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "memesim"

// Observation statuses used as the status label.
const (
	StatusScored  = "scored"
	StatusSkipped = "skipped"
)

// Metrics holds all Prometheus metrics for a simulation process.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Event flow
	ObservationsTotal *prometheus.CounterVec
	RejectionsTotal   *prometheus.CounterVec
	AdmissionsTotal   *prometheus.CounterVec

	// Portfolio
	TradesClosed     *prometheus.CounterVec
	OpenPositions    prometheus.Gauge
	AvailableCapital prometheus.Gauge
	RealizedPnL      prometheus.Gauge
	TicksProcessed   prometheus.Counter

	// Persistence
	LedgerFailures prometheus.Counter

	// Runs
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	TickLatency prometheus.Histogram
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ObservationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "observations_total",
			Help:      "Total number of observations received by status",
		}, []string{"status"}),
		RejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "rejections_total",
			Help:      "Total number of filter rejections by reason",
		}, []string{"reason"}),
		AdmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "admissions_total",
			Help:      "Total number of admitted observations by portfolio outcome",
		}, []string{"outcome"}),

		TradesClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "trades_closed_total",
			Help:      "Total number of closed trades by exit reason",
		}, []string{"exit_reason"}),
		OpenPositions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "open_positions",
			Help:      "Number of open positions at the last tick boundary",
		}),
		AvailableCapital: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "available_capital_sol",
			Help:      "Uncommitted capital in SOL at the last tick boundary",
		}),
		RealizedPnL: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "realized_pnl_sol",
			Help:      "Realized profit and loss in SOL",
		}),
		TicksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "ticks_processed_total",
			Help:      "Total number of simulated ticks processed",
		}),

		LedgerFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "failures_total",
			Help:      "Total number of ledger writes that failed",
		}),

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by mode and status",
		}, []string{"mode", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall-clock simulation run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"mode"}),
		TickLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "tick_latency_seconds",
			Help:      "Wall-clock time spent processing one tick",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint serving g.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordObservation counts one observation with the given status.
func (m *Metrics) RecordObservation(status string) {
	if m == nil {
		return
	}
	m.ObservationsTotal.WithLabelValues(status).Inc()
}

// RecordRejection counts a filter rejection.
func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.RejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordAdmission counts the portfolio outcome for an admitted observation.
func (m *Metrics) RecordAdmission(outcome string) {
	if m == nil {
		return
	}
	m.AdmissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordTrade counts a closed trade.
func (m *Metrics) RecordTrade(exitReason string) {
	if m == nil {
		return
	}
	m.TradesClosed.WithLabelValues(exitReason).Inc()
}

// RecordLedgerFailure counts a failed ledger write.
func (m *Metrics) RecordLedgerFailure() {
	if m == nil {
		return
	}
	m.LedgerFailures.Inc()
}

// RecordTick updates the tick counters and portfolio gauges.
func (m *Metrics) RecordTick(seconds float64, openPositions int, available, realized float64) {
	if m == nil {
		return
	}
	m.TicksProcessed.Inc()
	m.TickLatency.Observe(seconds)
	m.OpenPositions.Set(float64(openPositions))
	m.AvailableCapital.Set(available)
	m.RealizedPnL.Set(realized)
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(mode, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(mode, status).Inc()
	m.RunDuration.WithLabelValues(mode).Observe(durationSeconds)
}

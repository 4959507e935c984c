package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the consent manager. All
// methods are nil-safe so components can run without metrics wired in.
type Metrics struct {
	// Backend call latency by operation (purposes, consents, stats, upsert, bulk, ...)
	BackendLatency *prometheus.HistogramVec

	// Backend call failures by operation
	BackendErrors *prometheus.CounterVec

	// Session initialization outcomes: ready | error | abandoned
	InitOutcome *prometheus.CounterVec

	// Consent mutations by kind (single | bulk) and outcome (success | failure)
	MutationOutcome *prometheus.CounterVec

	// Stats refresh outcomes: success | failure | stale
	StatsRefresh *prometheus.CounterVec

	// Visitor identifiers minted or adopted, by source (generated | legacy)
	IdentitiesResolved *prometheus.CounterVec

	// Live BFF sessions
	ActiveSessions prometheus.Gauge
}

// New creates the metrics and registers them with the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics with reg; tests pass a fresh registry
// so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consentmgr_backend_request_duration_seconds",
			Help:    "Duration of consent backend requests by operation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),

		BackendErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentmgr_backend_errors_total",
			Help: "Failed consent backend requests by operation",
		}, []string{"operation"}),

		InitOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentmgr_session_initializations_total",
			Help: "Session initializations by outcome",
		}, []string{"outcome"}),

		MutationOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentmgr_consent_mutations_total",
			Help: "Consent mutations by kind and outcome",
		}, []string{"kind", "outcome"}),

		StatsRefresh: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentmgr_stats_refreshes_total",
			Help: "Aggregate statistics refreshes by outcome",
		}, []string{"outcome"}),

		IdentitiesResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentmgr_identities_created_total",
			Help: "Visitor identifiers written to a store, by source",
		}, []string{"source"}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "consentmgr_active_sessions",
			Help: "Session controllers currently held by the server",
		}),
	}
}

// ObserveBackend records the duration and outcome of one backend call.
func (m *Metrics) ObserveBackend(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.BackendLatency.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		m.BackendErrors.WithLabelValues(operation).Inc()
	}
}

// IncrementInit records a session initialization outcome.
func (m *Metrics) IncrementInit(outcome string) {
	if m != nil {
		m.InitOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementMutation records a consent mutation outcome.
func (m *Metrics) IncrementMutation(kind, outcome string) {
	if m != nil {
		m.MutationOutcome.WithLabelValues(kind, outcome).Inc()
	}
}

// IncrementStatsRefresh records a stats refresh outcome.
func (m *Metrics) IncrementStatsRefresh(outcome string) {
	if m != nil {
		m.StatsRefresh.WithLabelValues(outcome).Inc()
	}
}

// IncrementIdentities counts identifiers written to a store.
func (m *Metrics) IncrementIdentities(source string) {
	if m != nil {
		m.IdentitiesResolved.WithLabelValues(source).Inc()
	}
}

// SetActiveSessions publishes the current session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}

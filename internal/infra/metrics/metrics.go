// Package metrics exposes Prometheus instruments for the credential lifecycle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Operation labels.
const (
	OpCreate       = "create"
	OpLogin        = "login"
	OpChange       = "change_password"
	OpRequestReset = "request_reset"
	OpConsumeReset = "consume_reset"
	OpSessionCheck = "session_check"
	OpSweepResets  = "sweep_resets"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// CredentialMetrics groups the credential counters and histograms.
// A nil *CredentialMetrics records nothing.
type CredentialMetrics struct {
	Events       *prometheus.CounterVec
	HashDuration prometheus.Histogram
	SweptResets  prometheus.Counter
}

// New creates the instruments and registers them with reg.
// Panics if registration fails (following prometheus convention).
func New(reg prometheus.Registerer) *CredentialMetrics {
	m := &CredentialMetrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tours",
			Subsystem: "credential",
			Name:      "events_total",
			Help:      "Credential lifecycle operations by outcome",
		}, []string{"operation", "outcome"}),
		HashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tours",
			Subsystem: "credential",
			Name:      "hash_duration_seconds",
			Help:      "Time spent deriving password hashes",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),
		SweptResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tours",
			Subsystem: "credential",
			Name:      "swept_resets_total",
			Help:      "Expired reset tokens cleared by the sweeper",
		}),
	}

	reg.MustRegister(m.Events, m.HashDuration, m.SweptResets)

	return m
}

// RecordEvent increments the event counter for operation and outcome.
func (m *CredentialMetrics) RecordEvent(operation, outcome string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(operation, outcome).Inc()
}

// ObserveHash records how long one hash derivation took.
func (m *CredentialMetrics) ObserveHash(d time.Duration) {
	if m == nil {
		return
	}
	m.HashDuration.Observe(d.Seconds())
}

// AddSwept adds n cleared reset tokens.
func (m *CredentialMetrics) AddSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SweptResets.Add(float64(n))
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

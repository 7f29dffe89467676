// Package metrics exposes issuance and verification counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Issuance results
const (
	IssueOK        = "ok"
	IssueInvalid   = "invalid"
	IssueDuplicate = "duplicate"
	IssueError     = "error"
)

// Metrics holds the server collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry      *prometheus.Registry
	issued        *prometheus.CounterVec
	verifications *prometheus.CounterVec
	verifyLatency *prometheus.HistogramVec
	logsPruned    prometheus.Counter
}

// New creates collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		issued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certsrv_issued_total",
				Help: "Certificate issuance attempts by result",
			},
			[]string{"result"},
		),
		verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "certsrv_verifications_total",
				Help: "Verification requests by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		verifyLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "certsrv_verify_duration_seconds",
				Help:    "Verification latency by mode",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		logsPruned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "certsrv_verification_logs_pruned_total",
				Help: "Verification log rows removed by retention",
			},
		),
	}
}

// ObserveIssue records one issuance attempt.
func (m *Metrics) ObserveIssue(result string) {
	if m == nil {
		return
	}
	m.issued.WithLabelValues(result).Inc()
}

// ObserveVerification records one verification with its latency.
func (m *Metrics) ObserveVerification(mode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(mode, outcome).Inc()
	m.verifyLatency.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ObservePruned records removed verification log rows.
func (m *Metrics) ObservePruned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.logsPruned.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Package metrics exposes Prometheus collectors for upstream traffic. The
// collectors are fed by the client's response observers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ailover/larkrelay/internal/larkapi"
)

// UpstreamMetrics tracks upstream request outcomes and latency.
//
// Metrics:
//   - larkrelay_upstream_requests_total: request count by method, outcome
//   - larkrelay_upstream_request_duration_seconds: round-trip latency histogram
type UpstreamMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Observed outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// NewUpstreamMetrics creates and registers upstream metrics with the provided
// registry.
func NewUpstreamMetrics(registry *prometheus.Registry) *UpstreamMetrics {
	m := &UpstreamMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "larkrelay",
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of upstream Lark API requests",
			},
			[]string{"method", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "larkrelay",
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "Duration of upstream Lark API round trips in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	if registry != nil {
		registry.MustRegister(m.requests, m.duration)
	}
	return m
}

// ResponseObserver returns the post-call hook that feeds these collectors.
func (m *UpstreamMetrics) ResponseObserver() larkapi.ResponseObserver {
	return func(method, url string, status int, elapsed time.Duration, err error) {
		outcome := OutcomeOK
		switch {
		case err != nil:
			outcome = OutcomeError
		case status >= 400:
			outcome = OutcomeRejected
		}
		m.requests.WithLabelValues(method, outcome).Inc()
		m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
	}
}

// Package metrics is nfs2d's Prometheus instrumentation: per-procedure
// request counters and latency histograms for the NFS and NLM/KLM
// dispatchers, exposed over HTTP for scraping.
//
// Metrics collection is optional and globally gated: call Init once at
// startup, or leave it uncalled to run with zero collection overhead —
// every recording method on a nil *Metrics is a no-op, mirroring the
// pass-nil-to-disable convention used throughout the example pack's own
// metrics interfaces.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry
	enabled  bool
)

// Init creates the process-wide metrics registry. Must be called before
// New if metrics are wanted; otherwise New returns nil and
// instrumentation is skipped everywhere.
func Init() {
	registry = prometheus.NewRegistry()
	enabled = true
}

// IsEnabled reports whether Init has been called.
func IsEnabled() bool {
	return enabled
}

// GetRegistry returns the process-wide registry. Only valid after Init.
func GetRegistry() *prometheus.Registry {
	return registry
}

// Handler returns the HTTP handler serving the registry in Prometheus
// exposition format, for mounting at /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Metrics instruments nfs2d's RPC dispatchers: one counter per
// (procedure, status) pair, a latency histogram per procedure, and gauges
// for currently-registered file handles and held locks.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	handleCount prometheus.Gauge
	lockCount   prometheus.Gauge
}

// New constructs a Metrics instance, or returns nil if Init has not been
// called.
func New() *Metrics {
	if !IsEnabled() {
		return nil
	}

	return &Metrics{
		requests: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfs2d_requests_total",
				Help: "Total number of RPC requests by service, procedure and status.",
			},
			[]string{"service", "procedure", "status"},
		),
		duration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nfs2d_request_duration_seconds",
				Help:    "RPC request handling latency by service and procedure.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "procedure"},
		),
		handleCount: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "nfs2d_handles_registered",
			Help: "Number of file handles currently registered.",
		}),
		lockCount: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "nfs2d_locks_held",
			Help: "Number of byte-range locks currently held.",
		}),
	}
}

// RecordRequest records one completed RPC call.
func (m *Metrics) RecordRequest(service, procedure, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(service, procedure, status).Inc()
	m.duration.WithLabelValues(service, procedure).Observe(d.Seconds())
}

// SetHandleCount updates the registered-handle gauge.
func (m *Metrics) SetHandleCount(n int) {
	if m == nil {
		return
	}
	m.handleCount.Set(float64(n))
}

// SetLockCount updates the held-lock gauge.
func (m *Metrics) SetLockCount(n int) {
	if m == nil {
		return
	}
	m.lockCount.Set(float64(n))
}

// Package metrics holds the Prometheus collectors of the service.
//
// A Metrics value owns its registry so that tests can build as many as they
// need without colliding on the global one. All methods are safe on a nil
// receiver.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bakery"

// Metrics bundles the collectors.
type Metrics struct {
	registry *prometheus.Registry

	RequestTotal    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SyncGaps        *prometheus.CounterVec
	ReconcileFixes  *prometheus.CounterVec
}

// New creates the collectors and registers them with a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SyncGaps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_gaps_total",
				Help:      "Embedded-copy writes that failed after the primary write succeeded.",
			},
			[]string{"link", "op"},
		),
		ReconcileFixes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_repairs_total",
				Help:      "Owner documents whose embedded array was rebuilt by reconciliation.",
			},
			[]string{"link"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestTotal,
		m.RequestDuration,
		m.SyncGaps,
		m.ReconcileFixes,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// SyncGap records an embedded write that did not follow its primary write.
func (m *Metrics) SyncGap(link, op string) {
	if m == nil {
		return
	}
	m.SyncGaps.WithLabelValues(link, op).Inc()
}

// Repaired records an owner rebuilt by reconciliation.
func (m *Metrics) Repaired(link string) {
	if m == nil {
		return
	}
	m.ReconcileFixes.WithLabelValues(link).Inc()
}

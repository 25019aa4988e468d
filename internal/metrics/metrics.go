// Package metrics exposes the engine's prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "smartwealth"

// Result label values
const (
	ResultHit     = "hit"
	ResultReload  = "reload"
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics owns a private registry and every collector registered on it.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	cacheLoads          *prometheus.CounterVec
	cacheReloadDuration *prometheus.HistogramVec
	cacheRows           *prometheus.GaugeVec
	queryExecutions     *prometheus.CounterVec
	queryDuration       *prometheus.HistogramVec
	validationDrops     *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
}

// New creates the collectors and registers them with a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		cacheLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "cache",
				Name:      "loads_total",
				Help:      "Cache load calls by dataset and result.",
			}, []string{"dataset", "result"}),

		cacheReloadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "cache",
				Name:      "reload_seconds",
				Help:      "Duration of full dataset reloads.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
			}, []string{"dataset"}),

		cacheRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "cache",
				Name:      "snapshot_rows",
				Help:      "Rows held by the current snapshot.",
			}, []string{"dataset"}),

		queryExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "query",
				Name:      "executions_total",
				Help:      "Plan executions by dataset, mode and result.",
			}, []string{"dataset", "mode", "result"}),

		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "query",
				Name:      "duration_seconds",
				Help:      "Plan execution latency.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"dataset", "mode"}),

		validationDrops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "plan",
				Name:      "validation_drops_total",
				Help:      "Intent fields dropped or replaced during compilation.",
			}, []string{"kind"}),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method and status code.",
			}, []string{"method", "code"}),
	}

	m.registry.MustRegister(
		m.cacheLoads,
		m.cacheReloadDuration,
		m.cacheRows,
		m.queryExecutions,
		m.queryDuration,
		m.validationDrops,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit(dataset string) {
	if m == nil {
		return
	}
	m.cacheLoads.WithLabelValues(dataset, ResultHit).Inc()
}

func (m *Metrics) CacheReload(dataset string, took time.Duration, rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.cacheLoads.WithLabelValues(dataset, ResultError).Inc()
		return
	}
	m.cacheLoads.WithLabelValues(dataset, ResultReload).Inc()
	m.cacheReloadDuration.WithLabelValues(dataset).Observe(took.Seconds())
	m.cacheRows.WithLabelValues(dataset).Set(float64(rows))
}

// SnapshotRows sets the row gauge without counting a reload, used when
// priming from persisted snapshots
func (m *Metrics) SnapshotRows(dataset string, rows int) {
	if m == nil {
		return
	}
	m.cacheRows.WithLabelValues(dataset).Set(float64(rows))
}

func (m *Metrics) Query(dataset, mode string, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.queryExecutions.WithLabelValues(dataset, mode, result).Inc()
	m.queryDuration.WithLabelValues(dataset, mode).Observe(took.Seconds())
}

func (m *Metrics) ValidationDrop(kind string) {
	if m == nil {
		return
	}
	m.validationDrops.WithLabelValues(kind).Inc()
}

func (m *Metrics) Request(method string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, statusText(code)).Inc()
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Package metrics exposes Prometheus instrumentation for calculations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "take_home_pay"

// Outcome labels for calculations.
const (
	OutcomeOK       = "ok"
	OutcomeWarning  = "warning"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry     *prometheus.Registry
	calculations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Salary breakdown calculations by mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Time spent producing a breakdown.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"mode"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Delegated breakdown cache lookups by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by path and status code.",
		}, []string{"path", "code"}),
	}

	m.registry.MustRegister(
		m.calculations,
		m.duration,
		m.cacheLookups,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCalculation records one calculation.
func (m *Metrics) ObserveCalculation(mode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(mode, outcome).Inc()
	m.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ObserveCacheLookup records a cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveRequest records one HTTP API response.
func (m *Metrics) ObserveRequest(path string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

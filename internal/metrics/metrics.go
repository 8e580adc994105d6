// Package metrics provides Prometheus metrics for the stats API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for latency histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// WithRegistry sets the registry metrics are registered on and served from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager owns every collector the service exports.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter

	storeQueries       *prometheus.CounterVec
	storeQueryDuration *prometheus.HistogramVec

	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec

	poolConns    *prometheus.GaugeVec
	poolMaxConns prometheus.Gauge
}

// NewManager creates a Manager. Without WithRegistry it uses a fresh
// registry that also carries the Go and process collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "kzstats",
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.buckets,
	}, []string{"route", "method"})

	m.rateLimited = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	})

	m.storeQueries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "queries_total",
		Help:      "Store queries by operation and result",
	}, []string{"operation", "result"})

	m.storeQueryDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "query_duration_seconds",
		Help:      "Store query duration in seconds",
		Buckets:   m.buckets,
	}, []string{"operation"})

	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	m.breakerTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "circuit_breaker_transitions_total",
		Help:      "Circuit breaker state transitions",
	}, []string{"name", "from", "to"})

	m.poolConns = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "pool",
		Name:      "connections",
		Help:      "Connection pool connections by state",
	}, []string{"state"})

	m.poolMaxConns = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "pool",
		Name:      "max_connections",
		Help:      "Configured maximum pool size",
	})
}

// Registry returns the registry the collectors live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one finished request.
func (m *Manager) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// IncRateLimited counts a rejected request.
func (m *Manager) IncRateLimited() {
	m.rateLimited.Inc()
}

// ObserveQuery records one store query. result is "ok", "not_found",
// "error" or "rejected".
func (m *Manager) ObserveQuery(operation, result string, elapsed time.Duration) {
	m.storeQueries.WithLabelValues(operation, result).Inc()
	m.storeQueryDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SetBreakerState publishes the breaker's current state.
func (m *Manager) SetBreakerState(name string, state float64) {
	m.breakerState.WithLabelValues(name).Set(state)
}

// BreakerTransition counts a state change.
func (m *Manager) BreakerTransition(name, from, to string) {
	m.breakerTransitions.WithLabelValues(name, from, to).Inc()
}

// PoolStats is a point-in-time view of the connection pool
type PoolStats struct {
	Total    int32
	Idle     int32
	Acquired int32
	Max      int32
}

// SetPoolStats publishes pool gauges.
func (m *Manager) SetPoolStats(s PoolStats) {
	m.poolConns.WithLabelValues("total").Set(float64(s.Total))
	m.poolConns.WithLabelValues("idle").Set(float64(s.Idle))
	m.poolConns.WithLabelValues("acquired").Set(float64(s.Acquired))
	m.poolMaxConns.Set(float64(s.Max))
}

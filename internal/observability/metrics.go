package observability

import (
	"database/sql"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	aggregateOps       *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec
	aggregateRetries   *prometheus.CounterVec
	invariantBreaks    *prometheus.CounterVec

	bestEffortFailures *prometheus.CounterVec
	iterations         *prometheus.CounterVec
	engagement         *prometheus.CounterVec
	notifications      *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process-wide metrics, or nil when metrics are off.
func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once. It returns nil when disabled.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "it_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "it_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "it_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		aggregateOps: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "it_aggregate_operation_duration_seconds",
			Help:    "Aggregate write duration by operation/status.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"operation", "status"}),
		aggregateConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "it_aggregate_conflicts_total",
			Help: "Aggregate writes that failed with a conflict.",
		}, []string{"operation"}),
		aggregateRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "it_aggregate_retryable_total",
			Help: "Aggregate writes that failed with a retryable error.",
		}, []string{"operation"}),
		invariantBreaks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "it_aggregate_invariant_violations_total",
			Help: "Aggregate writes rejected by a lineage invariant.",
		}, []string{"operation"}),
		bestEffortFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "it_best_effort_failures_total",
			Help: "Swallowed failures of fire-and-forget side effects.",
		}, []string{"operation"}),
		iterations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "it_iterations_total",
			Help: "Iteration lifecycle events by event/track.",
		}, []string{"event", "track"}),
		engagement: f.NewCounterVec(prometheus.CounterOpts{
			Name: "it_engagement_total",
			Help: "Engagement actions by action.",
		}, []string{"action"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "it_notifications_total",
			Help: "Notifications published by backend/status.",
		}, []string{"backend", "status"}),
	}
}

// Registry exposes the underlying registry to tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterDBStats exports database/sql pool statistics.
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) {
	if m == nil || db == nil {
		return
	}
	_ = m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.WithLabelValues(clean(op), clean(status)).Observe(dur.Seconds())
	if status == "invariant_violation" {
		m.invariantBreaks.WithLabelValues(clean(op)).Inc()
	}
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.WithLabelValues(clean(op)).Inc()
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.WithLabelValues(clean(op)).Inc()
}

func (m *Metrics) IncBestEffortFailure(op string) {
	if m == nil {
		return
	}
	m.bestEffortFailures.WithLabelValues(clean(op)).Inc()
}

func (m *Metrics) IncIteration(event, track string) {
	if m == nil {
		return
	}
	m.iterations.WithLabelValues(clean(event), clean(track)).Inc()
}

func (m *Metrics) IncEngagement(action string) {
	if m == nil {
		return
	}
	m.engagement.WithLabelValues(clean(action)).Inc()
}

func (m *Metrics) IncNotification(backend, status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(clean(backend), clean(status)).Inc()
}

func clean(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

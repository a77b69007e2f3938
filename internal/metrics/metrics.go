// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopbase"

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	PanicsTotal         *prometheus.CounterVec

	// Catalog metrics
	MutationsTotal    *prometheus.CounterVec
	TrashPurgedTotal  *prometheus.CounterVec
	RevalidateFailure prometheus.Counter

	registerer prometheus.Registerer
	logger     *slog.Logger
}

// New creates and registers all metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, nil)
}

// NewWithRegistry creates and registers all metrics with a custom registry.
func NewWithRegistry(registerer prometheus.Registerer, logger *slog.Logger) *Metrics {
	factory := promauto.With(registerer)
	if logger == nil {
		logger = slog.Default()
	}

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "endpoint"},
		),
		PanicsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_panics_total",
				Help:      "Total number of handler panics recovered, by route",
			},
			[]string{"endpoint"},
		),
		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resource_mutations_total",
				Help:      "Total number of catalog mutations by resource, operation and outcome",
			},
			[]string{"resource", "operation", "outcome"},
		),
		TrashPurgedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trash_purged_total",
				Help:      "Total number of trashed rows removed by the retention job",
			},
			[]string{"resource"},
		),
		RevalidateFailure: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "revalidate_failures_total",
				Help:      "Total number of cache revalidation messages that could not be published",
			},
		),
		registerer: registerer,
		logger:     logger,
	}
}

// RegisterDB exposes connection pool statistics of db.
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	return m.registerer.Register(collectors.NewDBStatsCollector(db, name))
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.safeExecute("RecordHTTPRequest", func() {
		m.HTTPRequestsTotal.WithLabelValues(method, endpoint, categorizeStatus(statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	})
}

// ObservePanic counts a recovered handler panic.
func (m *Metrics) ObservePanic(route string) {
	m.safeExecute("ObservePanic", func() {
		m.PanicsTotal.WithLabelValues(route).Inc()
	})
}

// ObserveMutation counts one catalog mutation. outcome is an error kind such
// as "ok", "conflict" or "validation".
func (m *Metrics) ObserveMutation(resource, operation, outcome string) {
	m.safeExecute("ObserveMutation", func() {
		m.MutationsTotal.WithLabelValues(resource, operation, outcome).Inc()
	})
}

// ObservePurge counts rows removed by the trash retention job.
func (m *Metrics) ObservePurge(resource string, n int64) {
	if n <= 0 {
		return
	}
	m.safeExecute("ObservePurge", func() {
		m.TrashPurgedTotal.WithLabelValues(resource).Add(float64(n))
	})
}

// ObserveRevalidateFailure counts a cache invalidation that was dropped.
func (m *Metrics) ObserveRevalidateFailure() {
	m.safeExecute("ObserveRevalidateFailure", func() {
		m.RevalidateFailure.Inc()
	})
}

// ShouldSkipEndpoint reports whether path is excluded from HTTP metrics.
func ShouldSkipEndpoint(path string) bool {
	return path == "/metrics" || path == "/health" || path == "/health/live"
}

// categorizeStatus converts status code to category (2xx, 3xx, 4xx, 5xx).
func categorizeStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// safeExecute wraps metric operations with panic recovery.
func (m *Metrics) safeExecute(operation string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic in metrics operation",
				slog.String("operation", operation),
				slog.Any("panic", r),
			)
		}
	}()
	fn()
}

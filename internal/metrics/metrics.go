package metrics

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Business metrics are registered lazily on the MetricsManager registry and
// recorded only when enabled through SetBusinessMetricsEnabled.
var (
	HTTPRequestsTotal       *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec
	HTTPActiveConnections   prometheus.Gauge
	EntityOperationsTotal   *prometheus.CounterVec
	StoreOperationsTotal    *prometheus.CounterVec
	StoreOperationDuration  *prometheus.HistogramVec
	RiskScoreAllocatedTotal prometheus.Counter

	businessEnabled atomic.Bool
	httpMetricsOnce sync.Once
)

// SetBusinessMetricsEnabled toggles HTTP, entity and store metrics.
func SetBusinessMetricsEnabled(enabled bool) {
	businessEnabled.Store(enabled)
}

func initializeBusinessMetrics() {
	httpMetricsOnce.Do(func() {
		HTTPRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		)

		HTTPRequestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		)

		HTTPActiveConnections = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Number of active HTTP connections",
			},
		)

		EntityOperationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_entity_operations_total",
				Help: "Total number of entity operations by outcome",
			},
			[]string{"entity", "operation", "result"},
		)

		StoreOperationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docstore_operations_total",
				Help: "Total number of document store operations",
			},
			[]string{"backend", "operation", "status"},
		)

		StoreOperationDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docstore_operation_duration_seconds",
				Help:    "Duration of document store operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		)

		RiskScoreAllocatedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clinic_risk_scores_allocated_total",
				Help: "Total number of risk score ordinals allocated",
			},
		)

		mm := GetInstance()
		mm.registry.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			HTTPActiveConnections,
			EntityOperationsTotal,
			StoreOperationsTotal,
			StoreOperationDuration,
			RiskScoreAllocatedTotal,
		)
	})
}

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if !businessEnabled.Load() {
		return
	}
	initializeBusinessMetrics()

	status := strconv.Itoa(statusCode)

	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordEntityOperation counts a handler outcome, e.g. ("patient", "create", "success").
func RecordEntityOperation(entity, operation, result string) {
	if !businessEnabled.Load() {
		return
	}
	initializeBusinessMetrics()

	EntityOperationsTotal.WithLabelValues(entity, operation, result).Inc()
}

// RecordStoreOperation records a document store call and its latency.
func RecordStoreOperation(backend, operation, status string, duration time.Duration) {
	if !businessEnabled.Load() {
		return
	}
	initializeBusinessMetrics()

	StoreOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordRiskScoreAllocated counts ordinal allocations.
func RecordRiskScoreAllocated() {
	if !businessEnabled.Load() {
		return
	}
	initializeBusinessMetrics()

	RiskScoreAllocatedTotal.Inc()
}

// IncActiveConnections increments active connections
func IncActiveConnections() {
	if !businessEnabled.Load() {
		return
	}
	initializeBusinessMetrics()

	HTTPActiveConnections.Inc()
}

// DecActiveConnections decrements active connections
func DecActiveConnections() {
	if !businessEnabled.Load() {
		return
	}
	initializeBusinessMetrics()

	HTTPActiveConnections.Dec()
}

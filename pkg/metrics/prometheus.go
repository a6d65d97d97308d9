// Package metrics provides Prometheus metrics for the Caliper audit service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the Caliper service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Business Metrics - What really matters for an audit pipeline
	auditsEvaluated   prometheus.Counter
	auditsDuplicate   prometheus.Counter
	evaluationLatency prometheus.Histogram
	verdicts          *prometheus.CounterVec
	scoringWarnings   prometheus.Counter

	// Report Metrics - Aggregation pipeline performance
	reportRequests    prometheus.Counter
	reportPartial     prometheus.Counter
	reportLatency     prometheus.Histogram
	reportRowsScanned prometheus.Counter

	// Fetch Pool Metrics - Per-table scan fan-out
	fetchWorkerCount  prometheus.Gauge
	fetchTablesTotal  prometheus.Counter
	fetchErrors       prometheus.Counter
	fetchTableLatency prometheus.Histogram

	// Store Metrics - Audit persistence
	storeAuditsTotal   prometheus.Gauge
	storeInsertLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram
	storeErrors        prometheus.Counter

	// Catalog Metrics - Loaded reference data
	scorecardCount prometheus.Gauge
	rosterEntries  prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "caliper",
		subsystem:        "audit",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core Business Metrics - Focus on what drives business value
	m.auditsEvaluated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audits_evaluated_total",
		Help:      "Total number of audit submissions successfully evaluated",
	})

	m.auditsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audits_duplicate_total",
		Help:      "Total number of duplicate audit submissions detected (indicates data quality)",
	})

	m.evaluationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_latency_milliseconds",
		Help:      "Histogram of scorecard evaluation latency in milliseconds (core performance metric)",
		Buckets:   m.histogramBuckets,
	})

	m.verdicts = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "verdicts_total",
			Help:      "Total number of pass/fail verdicts by outcome",
		},
		[]string{"verdict"},
	)

	m.scoringWarnings = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_warnings_total",
		Help:      "Total number of non-fatal scoring warnings (unknown policies, unmatched fields)",
	})

	// Report Metrics - Aggregation pipeline performance
	m.reportRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_requests_total",
		Help:      "Total number of performance report requests",
	})

	m.reportPartial = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_partial_total",
		Help:      "Total number of reports served with partial data (one or more scorecard scans failed)",
	})

	m.reportLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_latency_milliseconds",
		Help:      "End-to-end report build latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.reportRowsScanned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_rows_scanned_total",
		Help:      "Total number of audit rows scanned while building reports",
	})

	// Fetch Pool Metrics - Per-table scan fan-out
	m.fetchWorkerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_worker_count",
		Help:      "Current number of fetch pool workers (scan concurrency)",
	})

	m.fetchTablesTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_tables_total",
		Help:      "Total number of per-scorecard table scans dispatched",
	})

	m.fetchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_errors_total",
		Help:      "Total number of failed per-scorecard table scans",
	})

	m.fetchTableLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_table_latency_milliseconds",
		Help:      "Single-table scan latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Store Metrics - Audit persistence
	m.storeAuditsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_audits_total",
		Help:      "Total number of audit rows currently stored (business scale)",
	})

	m.storeInsertLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_insert_latency_milliseconds",
		Help:      "Store insert operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Store query operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Total number of store operation errors",
	})

	// Catalog Metrics - Loaded reference data
	m.scorecardCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scorecard_count",
		Help:      "Number of scorecard definitions currently loaded",
	})

	m.rosterEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_entries",
		Help:      "Number of employee roster entries currently loaded",
	})

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds (user experience)",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Enhanced Error Metrics - Detailed error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)
}

// RecordAuditEvaluated increments the evaluated audits counter.
func RecordAuditEvaluated() {
	globalManager.auditsEvaluated.Inc()
}

// RecordAuditDuplicate increments the duplicate submissions counter.
func RecordAuditDuplicate() {
	globalManager.auditsDuplicate.Inc()
}

// RecordEvaluationLatency records evaluation latency in milliseconds.
func RecordEvaluationLatency(latencyMs float64) {
	globalManager.evaluationLatency.Observe(latencyMs)
}

// RecordVerdict increments the verdict counter for the given outcome label.
func RecordVerdict(verdict string) {
	globalManager.verdicts.WithLabelValues(verdict).Inc()
}

// RecordScoringWarning increments the non-fatal scoring warning counter.
func RecordScoringWarning() {
	globalManager.scoringWarnings.Inc()
}

// Report Metrics Functions.

// RecordReportRequest increments the report requests counter.
func RecordReportRequest() {
	globalManager.reportRequests.Inc()
}

// RecordReportPartial increments the partial report counter.
func RecordReportPartial() {
	globalManager.reportPartial.Inc()
}

// RecordReportLatency records end-to-end report build latency.
func RecordReportLatency(latencyMs float64) {
	globalManager.reportLatency.Observe(latencyMs)
}

// RecordReportRowsScanned adds to the scanned row counter.
func RecordReportRowsScanned(rows int) {
	globalManager.reportRowsScanned.Add(float64(rows))
}

// Fetch Pool Metrics Functions.

// UpdateFetchWorkerCount sets the current fetch worker count.
func UpdateFetchWorkerCount(count int) {
	globalManager.fetchWorkerCount.Set(float64(count))
}

// RecordFetchTable increments the dispatched table scan counter.
func RecordFetchTable() {
	globalManager.fetchTablesTotal.Inc()
}

// RecordFetchError increments the failed table scan counter.
func RecordFetchError() {
	globalManager.fetchErrors.Inc()
}

// RecordFetchTableLatency records single-table scan latency.
func RecordFetchTableLatency(latencyMs float64) {
	globalManager.fetchTableLatency.Observe(latencyMs)
}

// Store Metrics Functions.

// UpdateStoreAuditsTotal sets the total stored audit row count.
func UpdateStoreAuditsTotal(count int) {
	globalManager.storeAuditsTotal.Set(float64(count))
}

// RecordStoreInsertLatency records store insert operation latency.
func RecordStoreInsertLatency(latencyMs float64) {
	globalManager.storeInsertLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records store query operation latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordStoreError increments the store error counter.
func RecordStoreError() {
	globalManager.storeErrors.Inc()
}

// Catalog Metrics Functions.

// UpdateScorecardCount sets the number of loaded scorecard definitions.
func UpdateScorecardCount(count int) {
	globalManager.scorecardCount.Set(float64(count))
}

// UpdateRosterEntries sets the number of loaded roster entries.
func UpdateRosterEntries(count int) {
	globalManager.rosterEntries.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package metrics provides Prometheus metrics for the fall detection service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline metrics
	observationsProcessed prometheus.Counter
	orderingViolations    prometheus.Counter
	postureLabels         *prometheus.CounterVec

	// Fall detection metrics
	fallsConfirmed   prometheus.Counter
	alertsSuppressed prometheus.Counter
	activeTracks     prometheus.Gauge
	trackEvictions   prometheus.Counter

	// Dispatch metrics
	alertOutcomes      *prometheus.CounterVec
	channelSendLatency *prometheus.HistogramVec
	storeWrites        prometheus.Counter
	storeWriteErrors   prometheus.Counter

	// Device ingest metrics
	deviceReports      prometheus.Counter
	deviceReportErrors prometheus.Counter

	// Queue metrics
	queueCapacity     prometheus.Gauge
	queueSize         prometheus.Gauge
	queueEnqueues     prometheus.Counter
	queueDequeues     prometheus.Counter
	queueEnqueueError *prometheus.CounterVec
	queueLatency      prometheus.Histogram

	// Worker metrics
	workerCount   prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "fallwatch",
		subsystem:        "detector",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // metric registration is one long list
	auto := promauto.With(m.registry)

	m.observationsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "observations_processed_total",
		Help:      "Total number of observations advanced through the state machine",
	})

	m.orderingViolations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ordering_violations_total",
		Help:      "Total number of same-track observations rejected as out of order",
	})

	m.postureLabels = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "posture_labels_total",
		Help:      "Posture classifications by label",
	}, []string{"posture"})

	m.fallsConfirmed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "falls_confirmed_total",
		Help:      "Total number of confirmed fall events emitted",
	})

	m.alertsSuppressed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "alerts_suppressed_total",
		Help:      "Total number of alerts swallowed by the cooldown gate",
	})

	m.activeTracks = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_tracks",
		Help:      "Current number of live tracked people",
	})

	m.trackEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "track_evictions_total",
		Help:      "Total number of tracks evicted after the silence timeout",
	})

	m.alertOutcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "alert_outcomes_total",
		Help:      "Per-channel alert delivery outcomes",
	}, []string{"channel", "outcome"})

	m.channelSendLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "channel_send_latency_milliseconds",
		Help:      "Histogram of per-channel send latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"channel"})

	m.storeWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_writes_total",
		Help:      "Total number of fall events appended to the store",
	})

	m.storeWriteErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_write_errors_total",
		Help:      "Total number of failed event store appends",
	})

	m.deviceReports = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "device_reports_total",
		Help:      "Total number of device reports received over MQTT",
	})

	m.deviceReportErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "device_report_errors_total",
		Help:      "Total number of malformed device reports dropped",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of each observation queue",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the observation queue (backlog indicator)",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Total number of observations enqueued",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Total number of observations dequeued",
	})

	m.queueEnqueueError = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Enqueue failures by reason",
	}, []string{"reason"})

	m.queueLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_latency_milliseconds",
		Help:      "Histogram of enqueue latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of observation workers (processing capacity)",
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_latency_milliseconds",
		Help:      "Histogram of per-observation processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of worker processing errors",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordObservationProcessed increments the observations processed counter.
func RecordObservationProcessed() {
	globalManager.observationsProcessed.Inc()
}

// RecordOrderingViolation increments the rejected observation counter.
func RecordOrderingViolation() {
	globalManager.orderingViolations.Inc()
}

// RecordPostureLabel counts one posture classification.
func RecordPostureLabel(posture string) {
	globalManager.postureLabels.WithLabelValues(posture).Inc()
}

// RecordFallConfirmed increments the confirmed fall counter.
func RecordFallConfirmed() {
	globalManager.fallsConfirmed.Inc()
}

// RecordAlertSuppressed increments the cooldown-suppressed alert counter.
func RecordAlertSuppressed() {
	globalManager.alertsSuppressed.Inc()
}

// UpdateActiveTracks updates the live track gauge.
func UpdateActiveTracks(count int) {
	globalManager.activeTracks.Set(float64(count))
}

// RecordTrackEvictions counts tracks removed by the sweeper.
func RecordTrackEvictions(count int) {
	globalManager.trackEvictions.Add(float64(count))
}

// RecordAlertOutcome counts one per-channel delivery outcome.
func RecordAlertOutcome(channel, outcome string) {
	globalManager.alertOutcomes.WithLabelValues(channel, outcome).Inc()
}

// RecordChannelSendLatency records one channel send latency in milliseconds.
func RecordChannelSendLatency(channel string, latencyMs float64) {
	globalManager.channelSendLatency.WithLabelValues(channel).Observe(latencyMs)
}

// RecordStoreWrite increments the successful store append counter.
func RecordStoreWrite() {
	globalManager.storeWrites.Inc()
}

// RecordStoreWriteError increments the failed store append counter.
func RecordStoreWriteError() {
	globalManager.storeWriteErrors.Inc()
}

// RecordDeviceReport increments the device report counter.
func RecordDeviceReport() {
	globalManager.deviceReports.Inc()
}

// RecordDeviceReportError increments the malformed device report counter.
func RecordDeviceReportError() {
	globalManager.deviceReportErrors.Inc()
}

// UpdateQueueCapacity updates the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize updates the queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueEnqueueError counts one enqueue failure by reason.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueError.WithLabelValues(reason).Inc()
}

// RecordQueueLatency records enqueue latency in milliseconds.
func RecordQueueLatency(latencyMs float64) {
	globalManager.queueLatency.Observe(latencyMs)
}

// UpdateWorkerCount updates the worker count gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerLatency records per-observation processing latency in milliseconds.
func RecordWorkerLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage updates the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry used for serving /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

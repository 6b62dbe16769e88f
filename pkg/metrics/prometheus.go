// Package metrics provides Prometheus metrics for the remand recidivism
// calculation pipeline.
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

// Manager manages all Prometheus metrics for the remand service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Pipeline Metrics - Throughput of the map stage
	personsProcessed   prometheus.Counter
	jobsDuplicate      prometheus.Counter
	calculationLatency prometheus.Histogram
	pairsEmitted       prometheus.Counter
	metricsProduced    prometheus.Counter

	// Operational Health Metrics
	queueSize   prometheus.Gauge
	workerCount prometheus.Gauge
	dedupeSize  prometheus.Gauge

	// Pipeline Quality Metrics - Error tracking per stage
	calculationErrors prometheus.Counter
	aggregationErrors prometheus.Counter

	// Repository Metrics - Shard and aggregate management
	repositoryShardCount    prometheus.Gauge
	repositoryRecordsTotal  prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Queue Metrics - Job queue performance
	queueCapacity       prometheus.Gauge
	queueUtilization    prometheus.Gauge
	queueEnqueueRate    prometheus.Counter
	queueDequeueRate    prometheus.Counter
	queueEnqueueErrors  prometheus.Counter
	queueEnqueueLatency prometheus.Histogram

	// Worker Metrics - Processing performance
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

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
		namespace:        "remand",
		subsystem:        "pipeline",
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

// opts assembles the shared naming and labeling for one metric, applying
// the optional metric prefix and custom labels.
func (m *Manager) opts(name, help string) prometheus.Opts {
	if m.metricPrefix != "" {
		name = m.metricPrefix + "_" + name
	}
	return prometheus.Opts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	o := m.opts(name, help)
	return prometheus.HistogramOpts{
		Namespace:   o.Namespace,
		Subsystem:   o.Subsystem,
		Name:        o.Name,
		Help:        o.Help,
		ConstLabels: o.ConstLabels,
		Buckets:     m.histogramBuckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts(m.opts(name, help)))
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts(m.opts(name, help)))
	}

	// Core Pipeline Metrics
	m.personsProcessed = counter("persons_processed_total",
		"Total number of person jobs successfully mapped to combinations")
	m.jobsDuplicate = counter("jobs_duplicate_total",
		"Total number of duplicate person jobs rejected before enqueue")
	m.calculationLatency = auto.NewHistogram(m.histogramOpts("calculation_latency_milliseconds",
		"Histogram of per-person combination mapping latency in milliseconds"))
	m.pairsEmitted = counter("pairs_emitted_total",
		"Total number of combination value pairs emitted by the map stage")
	m.metricsProduced = counter("metrics_produced_total",
		"Total number of finished recidivism metrics produced")

	// Operational Health Metrics
	m.queueSize = gauge("queue_size",
		"Current size of the person job queue (backlog indicator)")
	m.workerCount = gauge("worker_count",
		"Current number of active workers (processing capacity)")
	m.dedupeSize = gauge("dedupe_size",
		"Current number of tracked person identifiers in the deduper")

	// Pipeline Quality Metrics
	m.calculationErrors = counter("calculation_errors_total",
		"Total number of combination mapping errors")
	m.aggregationErrors = counter("aggregation_errors_total",
		"Total number of aggregation store update errors")

	// Repository Metrics
	m.repositoryShardCount = gauge("repository_shard_count",
		"Total number of aggregation store shards")
	m.repositoryRecordsTotal = gauge("repository_records_total",
		"Total number of distinct combination keys across all shards")
	m.repositoryUpdateLatency = auto.NewHistogram(m.histogramOpts("repository_update_latency_milliseconds",
		"Aggregation store update latency in milliseconds"))
	m.repositoryQueryLatency = auto.NewHistogram(m.histogramOpts("repository_query_latency_milliseconds",
		"Aggregation store snapshot latency in milliseconds"))

	// Queue Metrics
	m.queueCapacity = gauge("queue_capacity",
		"Maximum queue capacity")
	m.queueUtilization = gauge("queue_utilization_ratio",
		"Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = counter("queue_enqueue_total",
		"Total number of person jobs enqueued")
	m.queueDequeueRate = counter("queue_dequeue_total",
		"Total number of person jobs dequeued")
	m.queueEnqueueErrors = counter("queue_enqueue_errors_total",
		"Total number of enqueue errors")
	m.queueEnqueueLatency = auto.NewHistogram(m.histogramOpts("queue_enqueue_latency_milliseconds",
		"Queue enqueue latency in milliseconds"))

	// Worker Metrics
	m.workerActiveCount = gauge("worker_active_count",
		"Number of active workers")
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Worker processing latency in milliseconds"))
	m.workerErrorRate = counter("worker_errors_total",
		"Total number of worker errors")

	// Enhanced Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts(m.opts("errors_by_component_total",
			"Total number of errors by component")),
		[]string{"component", "error_type"},
	)
}

// RecordPersonProcessed increments the persons processed counter.
func RecordPersonProcessed() {
	globalManager.personsProcessed.Inc()
}

// RecordJobDuplicate increments the duplicate jobs counter.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// RecordCalculationLatency records combination mapping latency in milliseconds.
func RecordCalculationLatency(latencyMs float64) {
	globalManager.calculationLatency.Observe(latencyMs)
}

// RecordPairsEmitted adds to the emitted combination pairs counter.
func RecordPairsEmitted(count int) {
	globalManager.pairsEmitted.Add(float64(count))
}

// RecordMetricsProduced adds to the produced metrics counter.
func RecordMetricsProduced(count int) {
	globalManager.metricsProduced.Add(float64(count))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateDedupeSize sets the current deduper size.
func UpdateDedupeSize(size int) {
	globalManager.dedupeSize.Set(float64(size))
}

// RecordCalculationError increments the calculation errors counter.
func RecordCalculationError() {
	globalManager.calculationErrors.Inc()
}

// RecordAggregationError increments the aggregation errors counter.
func RecordAggregationError() {
	globalManager.aggregationErrors.Inc()
}

// Repository Metrics Functions.

// UpdateRepositoryShardCount sets the total number of store shards.
func UpdateRepositoryShardCount(count int) {
	globalManager.repositoryShardCount.Set(float64(count))
}

// UpdateRepositoryRecordsTotal sets the total number of combination keys.
func UpdateRepositoryRecordsTotal(count int) {
	globalManager.repositoryRecordsTotal.Set(float64(count))
}

// RecordRepositoryUpdateLatency records store update operation latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records store snapshot operation latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// Queue Metrics Functions.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueEnqueueLatency records enqueue latency.
func RecordQueueEnqueueLatency(latencyMs float64) {
	globalManager.queueEnqueueLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
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

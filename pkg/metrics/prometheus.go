// Package metrics provides Prometheus metrics for the stellar emulator service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Isochrone cell outcomes.
const (
	OutcomeComputed = "computed"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Interpolation
	interpolations      *prometheus.CounterVec
	clampedLookups      *prometheus.CounterVec
	catalogTracks       prometheus.Gauge
	catalogRebuilds     prometheus.Counter
	catalogRebuildError prometheus.Counter

	// Emulator pipeline
	predictions       prometheus.Counter
	predictionLatency prometheus.Histogram
	inferenceErrors   *prometheus.CounterVec

	// Isochrones
	isochroneCells       *prometheus.CounterVec
	isochroneRuns        prometheus.Counter
	isochroneRunDuration prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActive            prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Repository
	repositoryLatency *prometheus.HistogramVec
	repositoryRecords *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "stellaremu",
		subsystem:        "emulator",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogram(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.interpolations = auto.NewCounterVec(m.counter("interpolations_total",
		"Catalog interpolations served, by target column"), []string{"target"})
	m.clampedLookups = auto.NewCounterVec(m.counter("clamped_lookups_total",
		"Bracket lookups whose query fell outside the grid, by axis"), []string{"axis"})
	m.catalogTracks = auto.NewGauge(m.gauge("catalog_tracks",
		"Number of tracks in the active catalog"))
	m.catalogRebuilds = auto.NewCounter(m.counter("catalog_rebuilds_total",
		"Successful catalog and model rebuilds"))
	m.catalogRebuildError = auto.NewCounter(m.counter("catalog_rebuild_errors_total",
		"Failed catalog and model rebuilds"))

	m.predictions = auto.NewCounter(m.counter("predictions_total",
		"Pipeline predictions completed"))
	m.predictionLatency = auto.NewHistogram(m.histogram("prediction_latency_milliseconds",
		"Pipeline prediction latency in milliseconds"))
	m.inferenceErrors = auto.NewCounterVec(m.counter("inference_errors_total",
		"Model inference failures, by pipeline stage"), []string{"stage"})

	m.isochroneCells = auto.NewCounterVec(m.counter("isochrone_cells_total",
		"Isochrone grid cells, by outcome"), []string{"outcome"})
	m.isochroneRuns = auto.NewCounter(m.counter("isochrone_runs_total",
		"Isochrone runs completed"))
	m.isochroneRunDuration = auto.NewHistogram(m.histogram("isochrone_run_duration_milliseconds",
		"Isochrone run wall time in milliseconds"))

	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Current number of queued cell jobs"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Capacity of the cell job queue"))
	m.queueEnqueued = auto.NewCounter(m.counter("queue_enqueued_total", "Cell jobs enqueued"))
	m.queueDequeued = auto.NewCounter(m.counter("queue_dequeued_total", "Cell jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counter("queue_enqueue_errors_total",
		"Cell jobs rejected because the queue was full or closed"))

	m.workerCount = auto.NewGauge(m.gauge("worker_count", "Configured number of cell workers"))
	m.workerActive = auto.NewGauge(m.gauge("worker_active", "Workers currently evaluating a cell"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogram("worker_processing_latency_milliseconds",
		"Cell evaluation latency in milliseconds"))

	m.repositoryLatency = auto.NewHistogramVec(m.histogram("repository_latency_milliseconds",
		"Repository operation latency in milliseconds"), []string{"operation"})
	m.repositoryRecords = auto.NewGaugeVec(m.gauge("repository_records",
		"Records held by the repository, by kind"), []string{"kind"})

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counter("errors_by_component_total",
		"Total number of errors by component"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutine_count", "Number of goroutines"))
}

func RecordInterpolation(target string) {
	globalManager.interpolations.WithLabelValues(target).Inc()
}

// RecordClampedLookup counts a bracket lookup outside the grid on axis
// "mass" or "s".
func RecordClampedLookup(axis string) {
	globalManager.clampedLookups.WithLabelValues(axis).Inc()
}

func UpdateCatalogTracks(count int) {
	globalManager.catalogTracks.Set(float64(count))
}

func RecordCatalogRebuild(err error) {
	if err != nil {
		globalManager.catalogRebuildError.Inc()
		return
	}
	globalManager.catalogRebuilds.Inc()
}

func RecordPrediction(latencyMs float64) {
	globalManager.predictions.Inc()
	globalManager.predictionLatency.Observe(latencyMs)
}

func RecordInferenceError(stage string) {
	globalManager.inferenceErrors.WithLabelValues(stage).Inc()
}

// RecordIsochroneCell counts one cell by outcome.
func RecordIsochroneCell(outcome string) error {
	switch outcome {
	case OutcomeComputed, OutcomeSkipped, OutcomeFailed:
		globalManager.isochroneCells.WithLabelValues(outcome).Inc()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
}

func RecordIsochroneRun(durationMs float64) {
	globalManager.isochroneRuns.Inc()
	globalManager.isochroneRunDuration.Observe(durationMs)
}

func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

func AddActiveWorkers(delta int) {
	globalManager.workerActive.Add(float64(delta))
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

func RecordRepositoryLatency(operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(operation).Observe(latencyMs)
}

func UpdateRepositoryRecords(kind string, count int) {
	globalManager.repositoryRecords.WithLabelValues(kind).Set(float64(count))
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

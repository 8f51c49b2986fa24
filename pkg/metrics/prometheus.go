// Package metrics provides Prometheus metrics for the HotsTinder service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	gapBuckets       []float64
	registry         prometheus.Registerer

	// Matchmaking
	matchesCreated      *prometheus.CounterVec
	matchBatchFailures  *prometheus.CounterVec
	persistConflicts    prometheus.Counter
	teamSkillGap        prometheus.Histogram
	pipelineLatency     prometheus.Histogram
	sessionTransitions  *prometheus.CounterVec
	lobbySize           prometheus.Gauge
	searchingPlayers    prometheus.Gauge
	usersTotal          prometheus.Gauge
	syntheticUsers      prometheus.Counter
	logins              *prometheus.CounterVec

	// Ticket queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hotstinder",
		subsystem:        "matchmaking",
		histogramBuckets: prometheus.DefBuckets,
		gapBuckets:       []float64{0, 25, 50, 100, 150, 200, 300, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.matchesCreated = m.counterVec("matches_created_total", "Matches persisted, by roster source", "source")
	m.matchBatchFailures = m.counterVec("match_batch_failures_total", "Matches skipped inside a generation batch, by reason", "reason")
	m.persistConflicts = m.counter("match_persist_conflicts_total", "Match inserts rejected because the id already existed")
	m.teamSkillGap = m.histogram("team_skill_gap", "Absolute difference between the two teams' average MMR", m.gapBuckets)
	m.pipelineLatency = m.histogram("pipeline_latency_milliseconds", "Balance, simulate and persist latency in milliseconds", m.histogramBuckets)
	m.sessionTransitions = m.counterVec("session_transitions_total", "Matchmaking session state transitions", "to")
	m.lobbySize = m.gauge("lobby_size", "Players currently waiting in the matchmaking lobby")
	m.searchingPlayers = m.gauge("searching_players", "Sessions currently in the Searching state")
	m.usersTotal = m.gauge("users_total", "Stored user accounts")
	m.syntheticUsers = m.counter("synthetic_users_created_total", "Synthetic accounts generated")
	m.logins = m.counterVec("logins_total", "Battle.net logins, by outcome", "outcome")

	m.queueSize = m.gauge("queue_size", "Tickets waiting in the matchmaking queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum tickets the matchmaking queue accepts")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "queue_size / queue_capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Tickets accepted by the queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Tickets handed to matchmaker workers")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Tickets rejected by the queue")

	m.workerCount = m.gauge("worker_count", "Matchmaker workers running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Ticket processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Errors raised while processing tickets")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Running goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds", m.histogramBuckets)
}

// RecordMatchCreated counts a persisted match and observes its team MMR gap.
func RecordMatchCreated(source string, skillGap float64) {
	globalManager.matchesCreated.WithLabelValues(source).Inc()
	globalManager.teamSkillGap.Observe(skillGap)
}

// RecordMatchBatchFailure counts a match skipped inside a batch.
func RecordMatchBatchFailure(reason string) {
	globalManager.matchBatchFailures.WithLabelValues(reason).Inc()
}

func RecordPersistConflict() { globalManager.persistConflicts.Inc() }

func RecordPipelineLatency(latencyMs float64) { globalManager.pipelineLatency.Observe(latencyMs) }

func RecordSessionTransition(to string) {
	globalManager.sessionTransitions.WithLabelValues(to).Inc()
}

func UpdateLobbySize(size int) { globalManager.lobbySize.Set(float64(size)) }

func UpdateSearchingPlayers(count int) { globalManager.searchingPlayers.Set(float64(count)) }

func UpdateUsersTotal(count int) { globalManager.usersTotal.Set(float64(count)) }

func RecordSyntheticUsers(count int) { globalManager.syntheticUsers.Add(float64(count)) }

func RecordLogin(outcome string) { globalManager.logins.WithLabelValues(outcome).Inc() }

func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

func UpdateQueueUtilization(ratio float64) { globalManager.queueUtilization.Set(ratio) }

func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

func RecordWorkerError() { globalManager.workerErrors.Inc() }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

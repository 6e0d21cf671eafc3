package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chatbot-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "chatbot_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "chatbot_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	// Auth outcomes
	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "chatbot_api",
			Name:      "auth_requests_total",
			Help:      "Total authentication attempts by outcome",
		},
		[]string{"status"},
	)

	ConversationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "chatbot_api",
			Name:      "conversations_created_total",
			Help:      "Total conversations created",
		},
	)

	MessagesPersistedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "chatbot_api",
			Name:      "messages_persisted_total",
			Help:      "Total messages persisted by role",
		},
		[]string{"role"},
	)

	// Generation latency
	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "chatbot_api",
			Name:      "llm_duration_seconds",
			Help:      "Latency of text generation calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"model", "client", "operation"},
	)

	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "chatbot_api",
			Name:      "provider_errors_total",
			Help:      "Total text generation failures",
		},
		[]string{"client", "operation"},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "chatbot_api",
			Name:      "store_errors_total",
			Help:      "Total storage backend failures",
		},
		[]string{"backend", "operation"},
	)
)

// RecordRequest records an HTTP request with all relevant labels
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(durationSec)
}

// RecordAuth records the outcome of a token validation
func RecordAuth(status string) {
	AuthRequestsTotal.WithLabelValues(status).Inc()
}

// RecordConversationCreated counts a newly stored conversation
func RecordConversationCreated() {
	ConversationsCreatedTotal.Inc()
}

// RecordMessagePersisted counts a stored message by role
func RecordMessagePersisted(role string) {
	MessagesPersistedTotal.WithLabelValues(role).Inc()
}

// RecordLLMDuration records the duration of a text generation call
func RecordLLMDuration(model, client, operation string, durationSec float64) {
	LLMDuration.WithLabelValues(model, client, operation).Observe(durationSec)
}

// RecordProviderError records a text generation failure
func RecordProviderError(client, operation string) {
	ProviderErrorsTotal.WithLabelValues(client, operation).Inc()
}

// RecordStoreError records a storage backend failure
func RecordStoreError(backend, operation string) {
	StoreErrorsTotal.WithLabelValues(backend, operation).Inc()
}

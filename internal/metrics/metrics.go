// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for production observability:
// - API endpoint latency and throughput
// - Database query performance (GORM)
// - Response cache efficiency
// - WebSocket connections
// - Stripe webhook processing
// - Notification dispatch
// - Blog content generation

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	DBSlowQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_queries_total",
			Help: "Total number of queries exceeding the slow query threshold",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "properties", "blog", "authz"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped (slow consumers)",
		},
	)

	// Stripe Webhook Metrics
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stripe_webhook_events_total",
			Help: "Total number of Stripe webhook events received",
		},
		[]string{"event_type", "result"}, // result: "processed", "duplicate", "failed", "ignored"
	)

	WebhookProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stripe_webhook_processing_duration_seconds",
			Help:    "Duration of Stripe webhook processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Notification Dispatch Metrics
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notifications dispatched",
		},
		[]string{"channel", "result"}, // channel: "websocket", "email"; result: "delivered", "failed"
	)

	NotificationDispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_dispatch_duration_seconds",
			Help:    "Duration of notification dispatch rounds in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	NotificationQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_queue_depth",
			Help: "Current number of undispatched notification rows",
		},
	)

	// Blog Generation Metrics
	BlogGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_generations_total",
			Help: "Total number of blog generation attempts",
		},
		[]string{"trigger", "result"}, // trigger: "scheduled", "manual"; result: "success", "failure"
	)

	BlogGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blog_generation_duration_seconds",
			Help:    "Duration of blog generation calls in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	LLMTokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_used_total",
			Help: "Total number of LLM tokens consumed",
		},
		[]string{"direction"}, // "input", "output"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	// Media Upload Metrics
	MediaUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Total number of media uploads",
		},
		[]string{"result"}, // "success", "failure"
	)

	MediaUploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_upload_bytes_total",
			Help: "Total bytes uploaded to media storage",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a rate limit rejection
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordDBQuery records a database query duration
func RecordDBQuery(duration time.Duration) {
	DBQueryDuration.Observe(duration.Seconds())
}

// RecordDBSlowQuery records a query exceeding the slow threshold
func RecordDBSlowQuery() {
	DBSlowQueries.Inc()
}

// RecordCacheHit records a cache hit for the given cache type
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the given cache type
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordWebhookEvent records a Stripe webhook processing outcome
func RecordWebhookEvent(eventType, result string, duration time.Duration) {
	WebhookEventsTotal.WithLabelValues(eventType, result).Inc()
	WebhookProcessingDuration.Observe(duration.Seconds())
}

// RecordNotificationDispatch records a delivery attempt outcome per channel
func RecordNotificationDispatch(channel string, delivered bool) {
	result := "delivered"
	if !delivered {
		result = "failed"
	}
	NotificationsDispatched.WithLabelValues(channel, result).Inc()
}

// RecordBlogGeneration records a generation attempt and its token usage
func RecordBlogGeneration(trigger string, duration time.Duration, inputTokens, outputTokens int, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	BlogGenerations.WithLabelValues(trigger, result).Inc()
	BlogGenerationDuration.Observe(duration.Seconds())
	if inputTokens > 0 {
		LLMTokensUsed.WithLabelValues("input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		LLMTokensUsed.WithLabelValues("output").Add(float64(outputTokens))
	}
}

// RecordMediaUpload records an upload outcome and its size
func RecordMediaUpload(sizeBytes int64, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	MediaUploads.WithLabelValues(result).Inc()
	if err == nil && sizeBytes > 0 {
		MediaUploadBytes.Add(float64(sizeBytes))
	}
}

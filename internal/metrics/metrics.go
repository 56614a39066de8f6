// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the classification engine and the service around it:
// - Frame classification throughput and latency
// - Logged detections and alert state
// - Notification, archive and event bus delivery
// - API and WebSocket traffic

var (
	// Classification Metrics
	FramesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_frames_processed_total",
			Help: "Total number of frames classified",
		},
	)

	FramesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_frames_skipped_total",
			Help: "Total number of frames not classified",
		},
		[]string{"reason"}, // "no_pose", "not_detecting", "invalid"
	)

	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_classifications_total",
			Help: "Total number of per-frame classifications by activity type",
		},
		[]string{"type"},
	)

	ClassificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "activity_classification_duration_seconds",
			Help:    "Time spent classifying a single frame",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)

	DetectionsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_detections_logged_total",
			Help: "Total number of detections written to the throttled log",
		},
		[]string{"type", "severity"},
	)

	AlertActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "activity_alert_active",
			Help: "Whether the live alert is active (1) or not (0)",
		},
	)

	AlertLevel = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "activity_alert_level",
			Help: "Live alert severity (0=none, 1=low, 2=medium, 3=high)",
		},
	)

	SessionDetecting = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "activity_session_detecting",
			Help: "Whether a detection session is running (1) or idle (0)",
		},
	)

	// Sink Metrics
	SinkDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_sink_deliveries_total",
			Help: "Total number of detection deliveries to sinks",
		},
		[]string{"sink", "result"}, // result: "success", "failure"
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notifications by notifier and result",
		},
		[]string{"notifier", "result"}, // result: "success", "failure", "suppressed"
	)

	ArchiveWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_writes_total",
			Help: "Total number of detection archive writes",
		},
		[]string{"result"},
	)

	EventBusMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_messages_total",
			Help: "Total number of event bus messages by topic and direction",
		},
		[]string{"topic", "direction", "result"}, // direction: "publish", "consume"
	)

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
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
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

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordFrame records a classified frame.
func RecordFrame(activityType string, duration time.Duration) {
	FramesProcessed.Inc()
	Classifications.WithLabelValues(activityType).Inc()
	ClassificationDuration.Observe(duration.Seconds())
}

// RecordFrameSkipped records a frame that was not classified.
func RecordFrameSkipped(reason string) {
	FramesSkipped.WithLabelValues(reason).Inc()
}

// RecordDetection records a logged detection.
func RecordDetection(activityType, severity string) {
	DetectionsLogged.WithLabelValues(activityType, severity).Inc()
}

// RecordAlert updates the live alert gauges.
func RecordAlert(active bool, level int) {
	AlertActive.Set(boolToFloat(active))
	AlertLevel.Set(float64(level))
}

// RecordSessionState updates the session gauge.
func RecordSessionState(detecting bool) {
	SessionDetecting.Set(boolToFloat(detecting))
}

// RecordSinkDelivery records a delivery to a detection sink.
func RecordSinkDelivery(sink string, err error) {
	SinkDeliveries.WithLabelValues(sink, resultLabel(err)).Inc()
}

// RecordNotification records a notifier outcome.
func RecordNotification(notifier, result string) {
	NotificationsSent.WithLabelValues(notifier, result).Inc()
}

// RecordArchiveWrite records a detection archive write.
func RecordArchiveWrite(err error) {
	ArchiveWrites.WithLabelValues(resultLabel(err)).Inc()
}

// RecordEventBusPublish records a message published to the event bus.
func RecordEventBusPublish(topic string, err error) {
	EventBusMessages.WithLabelValues(topic, "publish", resultLabel(err)).Inc()
}

// RecordEventBusConsume records a message consumed from the event bus.
func RecordEventBusConsume(topic string, err error) {
	EventBusMessages.WithLabelValues(topic, "consume", resultLabel(err)).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCircuitBreakerTransition records a breaker state change. States use
// the gobreaker names ("closed", "half-open", "open").
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

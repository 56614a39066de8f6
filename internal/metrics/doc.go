// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

/*
Package metrics provides Prometheus metrics collection and export for observability.

Collectors are registered on the default registry through promauto and are
updated through the Record* helpers so callers never touch label ordering.

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8085/metrics

# Available Metrics

Classification:
  - activity_frames_processed_total, activity_frames_skipped_total{reason}
  - activity_classifications_total{type}
  - activity_classification_duration_seconds
  - activity_detections_logged_total{type,severity}
  - activity_alert_active, activity_alert_level, activity_session_detecting

Delivery:
  - activity_sink_deliveries_total{sink,result}
  - notifications_sent_total{notifier,result}
  - archive_writes_total{result}
  - eventbus_messages_total{topic,direction,result}
  - circuit_breaker_state{name}, circuit_breaker_state_transitions_total

HTTP and WebSocket:
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - websocket_connections, websocket_messages_sent_total, websocket_errors_total
*/
package metrics

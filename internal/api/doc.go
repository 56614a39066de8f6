// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

/*
Package api exposes the activity engine over HTTP using the chi router.

Routes:

	GET  /api/v1/health                 service health
	GET  /api/v1/health/live            liveness probe
	POST /api/v1/session/start          begin a detection session
	POST /api/v1/session/stop           end the session
	POST /api/v1/session/reset          clear detections, stats and alert
	POST /api/v1/frames                 classify one frame
	GET  /api/v1/status                 session state, alert and last analysis
	GET  /api/v1/detections             in-memory detection log
	GET  /api/v1/detections/history     archived detections (?limit=&activity=&since=)
	GET  /api/v1/stats                  per-category counters
	GET  /api/v1/ws                     live websocket feed
	GET  /metrics                       Prometheus metrics

Every JSON response uses the models.APIResponse envelope. Errors carry a
stable code from the models package:

	{
	  "status": "error",
	  "error": {"code": "SESSION_ERROR", "message": "detection is not running"}
	}

Middleware order: request ID, real IP, panic recovery, CORS, metrics and
access logging on every route; rate limiting on the API routes with a more
permissive budget for health probes and frame ingestion.
*/
package api

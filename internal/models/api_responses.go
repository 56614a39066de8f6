// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package models

import (
	"time"

	"github.com/tomtom215/watchpost/internal/activity"
)

// APIResponse is the standard wrapper for every HTTP response.
//
// Status is "success" with Data populated, or "error" with Error populated.
//
//	{
//	  "status": "success",
//	  "data": {"state": "detecting", ...},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 1}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - SESSION_ERROR: Operation not allowed in the current session state
//   - STORE_UNAVAILABLE: Detection archive disabled or closed
//   - NOT_FOUND: Resource doesn't exist
//   - RATE_LIMIT_EXCEEDED: Too many requests
//   - INTERNAL_ERROR: Unexpected failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes used by the API.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeSession          = "SESSION_ERROR"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// HealthResponse reports service health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    float64           `json:"uptime_seconds"`
	Session   activity.State    `json:"session"`
	Store     bool              `json:"store_enabled"`
	EventBus  string            `json:"event_bus,omitempty"`
	Notifiers []string          `json:"notifiers,omitempty"`
	Clients   int               `json:"websocket_clients"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// SessionResponse is returned by session control endpoints.
type SessionResponse struct {
	State     activity.State `json:"state"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
}

// StatusResponse is the live engine status.
type StatusResponse struct {
	State           activity.State             `json:"state"`
	Alert           activity.AlertState        `json:"alert"`
	AlertColor      string                     `json:"alert_color"`
	Stats           activity.Stats             `json:"stats"`
	TotalDetections uint64                     `json:"total_detections"`
	LastAnalysis    *activity.ActivityAnalysis `json:"last_analysis,omitempty"`
	FramesProcessed uint64                     `json:"frames_processed"`
	SessionStarted  *time.Time                 `json:"session_started_at,omitempty"`
}

// DetectionsResponse lists detections, newest first.
type DetectionsResponse struct {
	Detections []activity.Detection `json:"detections"`
	Count      int                  `json:"count"`
	Source     string               `json:"source"`
}

// StatsResponse reports per-category detection counters.
type StatsResponse struct {
	Session  activity.Stats  `json:"session"`
	Total    uint64          `json:"total"`
	Archived *activity.Stats `json:"archived,omitempty"`
}

// NewStatusResponse builds a StatusResponse from an engine snapshot.
func NewStatusResponse(s activity.Snapshot) StatusResponse {
	return StatusResponse{
		State:           s.State,
		Alert:           s.Alert,
		AlertColor:      s.Alert.Level.Color(),
		Stats:           s.Stats,
		TotalDetections: s.Stats.Total(),
		LastAnalysis:    s.LastAnalysis,
		FramesProcessed: s.FramesProcessed,
		SessionStarted:  s.SessionStartedAt,
	}
}

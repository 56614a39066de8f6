// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package models

import "time"

// Event types pushed to websocket clients and published on the event bus.
const (
	EventDetection  = "detection"
	EventAlertState = "alert_state"
	EventAnalysis   = "analysis"
	EventSession    = "session"
)

// Event is the typed envelope for pushed messages.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

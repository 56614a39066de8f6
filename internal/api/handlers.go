// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/logging"
	"github.com/tomtom215/watchpost/internal/store"
	ws "github.com/tomtom215/watchpost/internal/websocket"
)

// Engine is the subset of *activity.Engine the handlers use.
type Engine interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Reset(ctx context.Context)
	ProcessFrame(ctx context.Context, f activity.Frame) (activity.FrameResult, error)
	Snapshot() activity.Snapshot
	Detections() []activity.Detection
}

// DetectionArchive is the subset of *store.DetectionStore the handlers use.
type DetectionArchive interface {
	List(ctx context.Context, opts store.ListOptions) ([]activity.Detection, error)
	Stats(ctx context.Context) (activity.Stats, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: health and liveness
//   - handlers_session.go: session start, stop and reset
//   - handlers_frames.go: frame ingestion
//   - handlers_detections.go: status, detections, history and stats
//   - handlers_websocket.go: websocket upgrade
type Handler struct {
	engine      Engine
	archive     DetectionArchive
	wsHub       *ws.Hub
	corsOrigins []string
	eventBus    string
	notifiers   []string
	maxObjects  int
	version     string
	startTime   time.Time
}

// NewHandler creates a handler for engine. Optional collaborators are
// attached with the Set methods before the router is built.
func NewHandler(engine Engine, corsOrigins []string) *Handler {
	return &Handler{
		engine:      engine,
		corsOrigins: corsOrigins,
		version:     "dev",
		startTime:   time.Now(),
	}
}

// SetArchive enables the history endpoints.
func (h *Handler) SetArchive(archive DetectionArchive) {
	h.archive = archive
	logging.Debug().Msg("detection archive attached to API handler")
}

// SetHub enables the websocket endpoint.
func (h *Handler) SetHub(hub *ws.Hub) {
	h.wsHub = hub
}

// SetEventBus records the active event bus backend for health reporting.
func (h *Handler) SetEventBus(backend string) {
	h.eventBus = backend
}

// SetNotifiers records the enabled notifier names for health reporting.
func (h *Handler) SetNotifiers(names []string) {
	h.notifiers = names
}

// SetMaxObjects caps the objects accepted per frame. Zero keeps only the
// request validator's limit.
func (h *Handler) SetMaxObjects(n int) {
	h.maxObjects = n
}

// SetVersion sets the version reported by the health endpoint.
func (h *Handler) SetVersion(version string) {
	if version != "" {
		h.version = version
	}
}

// getUpgrader returns the websocket upgrader with origin checking.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates websocket origins against the CORS list.
// Browsers always send Origin, so a missing header is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("websocket connection rejected: missing Origin header")
		return false
	}

	for _, allowed := range h.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/watchpost/internal/models"
)

// Health reports service status and which optional components are wired.
//
// The service is "degraded" when the archive is configured but cannot be
// queried.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap := h.engine.Snapshot()

	status := "healthy"
	checks := map[string]string{"engine": "ok"}
	if h.archive != nil {
		if _, err := h.archive.Stats(r.Context()); err != nil {
			status = "degraded"
			checks["store"] = sanitizeLogValue(err.Error())
		} else {
			checks["store"] = "ok"
		}
	}

	clients := 0
	if h.wsHub != nil {
		clients = h.wsHub.ClientCount()
	}

	respondSuccess(w, models.HealthResponse{
		Status:    status,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Seconds(),
		Session:   snap.State,
		Store:     h.archive != nil,
		EventBus:  h.eventBus,
		Notifiers: h.notifiers,
		Clients:   clients,
		Checks:    checks,
	}, start)
}

// HealthLive returns 200 while the process is alive, regardless of
// dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/logging"
	"github.com/tomtom215/watchpost/internal/models"
)

// SessionStart begins a detection session.
func (h *Handler) SessionStart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.engine.Start(r.Context()); err != nil {
		h.respondSessionError(w, err)
		return
	}
	logging.Ctx(r.Context()).Info().Msg("detection session started via API")
	h.respondSession(w, start)
}

// SessionStop ends the running session. Detections and stats are kept.
func (h *Handler) SessionStop(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.engine.Stop(r.Context()); err != nil {
		h.respondSessionError(w, err)
		return
	}
	logging.Ctx(r.Context()).Info().Msg("detection session stopped via API")
	h.respondSession(w, start)
}

// SessionReset clears detections, stats, alert and kinematic history. It is
// allowed in either state and does not change it.
func (h *Handler) SessionReset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.engine.Reset(r.Context())
	logging.Ctx(r.Context()).Info().Msg("detection session reset via API")
	h.respondSession(w, start)
}

func (h *Handler) respondSession(w http.ResponseWriter, start time.Time) {
	snap := h.engine.Snapshot()
	respondSuccess(w, models.SessionResponse{
		State:     snap.State,
		StartedAt: snap.SessionStartedAt,
	}, start)
}

// respondSessionError maps engine state errors to 409 Conflict.
func (h *Handler) respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, activity.ErrAlreadyDetecting):
		respondError(w, http.StatusConflict, models.ErrCodeSession, "detection is already running", nil)
	case errors.Is(err, activity.ErrNotDetecting):
		respondError(w, http.StatusConflict, models.ErrCodeSession, "detection is not running", nil)
	default:
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "session operation failed", err)
	}
}

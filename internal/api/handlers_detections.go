// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/models"
	"github.com/tomtom215/watchpost/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// HistoryRequest holds the validated query parameters of DetectionHistory.
type HistoryRequest struct {
	Limit    int    `json:"limit" validate:"min=1,max=1000"`
	Activity string `json:"activity" validate:"omitempty,oneof=fighting theft fire suspicious"`
	Since    string `json:"since" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// Status returns the live session state, alert latch and last analysis.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, models.NewStatusResponse(h.engine.Snapshot()), start)
}

// Detections returns the in-memory detection log, newest first.
func (h *Handler) Detections(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	dets := h.engine.Detections()
	respondSuccess(w, models.DetectionsResponse{
		Detections: dets,
		Count:      len(dets),
		Source:     "session",
	}, start)
}

// DetectionHistory lists archived detections, newest first.
func (h *Handler) DetectionHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeStoreUnavailable, ErrStoreDisabled.Error(), nil)
		return
	}

	q := r.URL.Query()
	req := HistoryRequest{
		Limit:    getIntParam(r, "limit", defaultHistoryLimit),
		Activity: q.Get("activity"),
		Since:    q.Get("since"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	opts := store.ListOptions{
		Limit:    req.Limit,
		Activity: activity.ActivityType(req.Activity),
	}
	if req.Since != "" {
		// Format already checked by the datetime validator.
		opts.Since, _ = time.Parse(time.RFC3339, req.Since)
	}

	dets, err := h.archive.List(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeStoreUnavailable, "failed to read detection archive", err)
		return
	}
	if dets == nil {
		dets = []activity.Detection{}
	}

	respondSuccess(w, models.DetectionsResponse{
		Detections: dets,
		Count:      len(dets),
		Source:     "archive",
	}, start)
}

// Stats returns per-category counters for the session and, when the
// archive is enabled, for all retained detections.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	session := h.engine.Snapshot().Stats
	resp := models.StatsResponse{
		Session: session,
		Total:   session.Total(),
	}

	if h.archive != nil {
		archived, err := h.archive.Stats(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, models.ErrCodeStoreUnavailable, "failed to read detection archive", err)
			return
		}
		resp.Archived = &archived
	}

	respondSuccess(w, resp, start)
}

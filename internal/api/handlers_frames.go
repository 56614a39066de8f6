// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/watchpost/internal/models"
)

// SubmitFrame classifies one frame and returns the analysis, any detection
// that was logged, and the alert state.
//
// Frames are only accepted while a session is running; otherwise the
// response is 409 with SESSION_ERROR.
func (h *Handler) SubmitFrame(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.FrameRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, models.ErrCodeValidation, "frame exceeds size limit", nil)
			return
		}
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "invalid JSON body", nil)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	if req.ExceedsObjectLimit(h.maxObjects) {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation,
			fmt.Sprintf("objects must contain at most %d items", h.maxObjects), nil)
		return
	}

	result, err := h.engine.ProcessFrame(r.Context(), req.ToFrame())
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	respondSuccess(w, result, start)
}

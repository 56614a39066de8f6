// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package api

import (
	"net/http"

	"github.com/tomtom215/watchpost/internal/logging"
	"github.com/tomtom215/watchpost/internal/models"
	ws "github.com/tomtom215/watchpost/internal/websocket"
)

// WebSocket upgrades the connection and attaches it to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("websocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeInternal, "websocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		logging.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	if !h.wsHub.RegisterClient(client) {
		_ = conn.Close()
		return
	}
	client.Start()
}

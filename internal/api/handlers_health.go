// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package api

import (
	"net/http"

	"github.com/tomtom215/mapexplorer/internal/models"
)

// Health reports liveness with a few gauges. It always returns 200; a
// disconnected live session is a normal state, not a failure.
//
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:       "ok",
		QueueLength:  h.queue.Len(),
		IsLiveActive: h.status.Snapshot().IsLiveActive,
	}
	if h.hub != nil {
		resp.WebsocketClients = h.hub.ClientCount()
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// MapConfig returns the frontend map configuration.
//
// GET /api/config -> {"defaultLocation": {...}, "animationDuration": 5000}
func (h *Handler) MapConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.mapConfig)
}

// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/mapexplorer/internal/geocode"
	"github.com/tomtom215/mapexplorer/internal/logging"
	ws "github.com/tomtom215/mapexplorer/internal/websocket"
)

// LiveStatus returns the live session status.
//
// GET /api/tiktok/status -> {"isLiveActive", "viewerCount", "username", "liveTitle"}
func (h *Handler) LiveStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.status.Snapshot())
}

// Comments upgrades to a WebSocket that streams comment and welcome events.
//
// WS /api/tiktok/comments
func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "WebSocket service unavailable", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	ws.NewClient(h.hub, conn).Start()
}

// Geocode resolves a place name.
//
// GET /api/geocode?place=X -> {"lat", "lon", "display_name"}
func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	place := strings.TrimSpace(r.URL.Query().Get("place"))
	if place == "" {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "Place parameter is required", nil)
		return
	}

	result, err := h.geocoder.Lookup(r.Context(), place)
	switch {
	case err == nil:
		respondJSON(w, r, http.StatusOK, result)
	case errors.Is(err, geocode.ErrNotFound):
		respondError(w, r, http.StatusNotFound, codeNotFound, "Location not found", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, codeInternal, "Error geocoding location", err)
	}
}

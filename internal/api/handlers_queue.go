// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/mapexplorer/internal/logging"
	"github.com/tomtom215/mapexplorer/internal/models"
	"github.com/tomtom215/mapexplorer/internal/validation"
)

// manualRequester names requests added through the API.
const manualRequester = "operator"

// Queue returns the queue snapshot.
//
// GET /api/queue -> {"queue": [...], "currentLocation": {...}|null, "isProcessing": bool}
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.queue.State())
}

// CompleteLocation rates the current location and clears it. With nothing
// current it succeeds without reading the body or saving anything.
//
// POST /api/queue/complete {place, score, lat, lng} -> {"success": true}
func (h *Handler) CompleteLocation(w http.ResponseWriter, r *http.Request) {
	if h.queue.State().Current == nil {
		respondJSON(w, r, http.StatusOK, models.SuccessResponse{Success: true})
		return
	}

	input, ok := h.parseRatingInput(w, r)
	if !ok {
		return
	}

	if err := h.queue.CompleteCurrentLocation(input); err != nil {
		respondFailure(w, r, http.StatusInternalServerError, codeInternal, "Error saving rating", err)
		return
	}
	respondJSON(w, r, http.StatusOK, models.SuccessResponse{Success: true})
}

// StartQueue begins promoting locations when the queue was configured
// without auto-start. Idempotent.
//
// POST /api/queue/start -> {"success": true}
func (h *Handler) StartQueue(w http.ResponseWriter, r *http.Request) {
	h.queue.StartProcessing()
	respondJSON(w, r, http.StatusOK, models.SuccessResponse{Success: true})
}

// Enqueue adds a location by hand, as if requested from chat. A duplicate
// is reported with accepted=false, not as an error.
//
// POST /api/queue {place, requesterName} -> {"success": true, "accepted": bool}
func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req models.EnqueueRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, r, http.StatusBadRequest, codeBadRequest, "Invalid request body", err)
		return
	}
	req.Place = strings.TrimSpace(req.Place)
	if err := validation.ValidateStruct(&req); err != nil {
		respondFailure(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	requester := strings.TrimSpace(req.RequesterName)
	if requester == "" {
		requester = manualRequester
	}
	accepted := h.queue.AddLocation(req.Place, requester, nil)

	logging.Ctx(r.Context()).Info().
		Str("place", logging.Sanitize(req.Place)).
		Bool("accepted", accepted).
		Msg("Manual location request")
	respondJSON(w, r, http.StatusOK, models.EnqueueResponse{Success: true, Accepted: accepted})
}

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

// Ratings returns the full rating document.
//
// GET /api/ratings -> {"places": [...]}
func (h *Handler) Ratings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.ratings.Document())
}

// TopRatings returns the five best rated places.
//
// GET /api/ratings/top -> {"topPlaces": [...]}
func (h *Handler) TopRatings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, models.TopPlacesResponse{TopPlaces: h.ratings.TopN(topPlacesLimit)})
}

// SaveRating upserts a rating.
//
// POST /api/ratings {place, score, lat, lng} -> {"success": true, "rating": {...}}
func (h *Handler) SaveRating(w http.ResponseWriter, r *http.Request) {
	input, ok := h.parseRatingInput(w, r)
	if !ok {
		return
	}

	lat, lng := input.Coordinates()
	rating, err := h.ratings.Upsert(input.Place, input.Score, lat, lng)
	if err != nil {
		respondFailure(w, r, http.StatusInternalServerError, codeInternal, "Error saving rating", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("place", logging.Sanitize(rating.Place)).
		Int("score", rating.Score).
		Msg("Rating saved")
	respondJSON(w, r, http.StatusOK, models.RatingSavedResponse{Success: true, Rating: rating})
}

// parseRatingInput decodes and validates a rating body, writing a 400
// {success:false} response on failure.
func (h *Handler) parseRatingInput(w http.ResponseWriter, r *http.Request) (models.RatingInput, bool) {
	var input models.RatingInput
	if err := decodeJSON(r, &input); err != nil {
		respondFailure(w, r, http.StatusBadRequest, codeBadRequest, "Invalid request body", err)
		return input, false
	}
	input.Place = strings.TrimSpace(input.Place)

	if err := validation.ValidateStruct(&input); err != nil {
		respondFailure(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return input, false
	}
	return input, true
}

// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package api

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mapexplorer/internal/logging"
	"github.com/tomtom215/mapexplorer/internal/models"
)

// Error codes carried in ErrorResponse.Code.
const (
	codeValidation  = "VALIDATION_ERROR"
	codeBadRequest  = "INVALID_REQUEST"
	codeNotFound    = "NOT_FOUND"
	codeInternal    = "INTERNAL_ERROR"
	codeUnavailable = "SERVICE_UNAVAILABLE"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// respondJSON writes v as JSON with status.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError writes {error} for read-only endpoints. err, when set, is
// logged but never sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	logError(r, status, code, err)
	respondJSON(w, r, status, models.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

// respondFailure writes {success:false, error} for mutating endpoints.
func respondFailure(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	logError(r, status, code, err)
	success := false
	respondJSON(w, r, status, models.ErrorResponse{
		Success:   &success,
		Error:     message,
		Code:      code,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

func logError(r *http.Request, status int, code string, err error) {
	if err == nil {
		return
	}
	logger := logging.Ctx(r.Context())
	ev := logger.Warn()
	if status >= http.StatusInternalServerError {
		ev = logger.Error()
	}
	ev.Err(err).Str("code", code).Int("status", status).Str("path", r.URL.Path).Msg("API error")
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are allowed.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

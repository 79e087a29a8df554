// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package models

// GeocodeResult is the first match for a place name.
//
// Example:
//
//	{"lat": 48.8588897, "lon": 2.320041, "display_name": "Paris, Île-de-France, France"}
type GeocodeResult struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// ErrorResponse is the body of every failed API request.
//
// Success is omitted on read-only endpoints where the frontend only checks
// error, and set to false on mutating ones.
//
// Example:
//
//	{"success": false, "error": "score must be between 1 and 100", "code": "VALIDATION_ERROR"}
type ErrorResponse struct {
	Success   *bool  `json:"success,omitempty"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// SuccessResponse is the body of a mutating request that has no other payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// RatingSavedResponse is the body of POST /api/ratings.
type RatingSavedResponse struct {
	Success bool        `json:"success"`
	Rating  PlaceRating `json:"rating"`
}

// EnqueueResponse is the body of a manual POST /api/queue.
type EnqueueResponse struct {
	Success  bool `json:"success"`
	Accepted bool `json:"accepted"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status           string `json:"status"`
	WebsocketClients int    `json:"websocketClients"`
	QueueLength      int    `json:"queueLength"`
	IsLiveActive     bool   `json:"isLiveActive"`
}

// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

// Package models defines the data types shared between the queue, the rating
// store, live ingestion and the HTTP API. JSON field names follow the wire
// format the browser frontend consumes.
package models

import (
	"time"
)

// LocationRequest is a viewer's request to fly the map to a named place.
//
// It is created by live ingestion when a chat message carries the location
// marker and is owned by the queue until completed.
//
// Example:
//
//	{
//	  "place": "Paris, France",
//	  "requesterName": "alice",
//	  "requesterAvatarUrl": null,
//	  "submittedAt": "2026-01-02T15:04:05Z"
//	}
type LocationRequest struct {
	Place              string    `json:"place"`
	RequesterName      string    `json:"requesterName"`
	RequesterAvatarURL *string   `json:"requesterAvatarUrl"`
	SubmittedAt        time.Time `json:"submittedAt"`
}

// QueueState is a read-only snapshot of the location queue.
//
// Pending is in FIFO order and never longer than the configured maximum.
// Current is nil when nothing is being shown.
//
// Example:
//
//	{
//	  "queue": [{"place": "Tokyo", ...}],
//	  "currentLocation": {"place": "Paris, France", ...},
//	  "isProcessing": true
//	}
type QueueState struct {
	Pending      []LocationRequest `json:"queue"`
	Current      *LocationRequest  `json:"currentLocation"`
	IsProcessing bool              `json:"isProcessing"`
}

// EnqueueRequest is the body of a manual POST /api/queue.
type EnqueueRequest struct {
	Place         string `json:"place" validate:"required,max=200"`
	RequesterName string `json:"requesterName" validate:"max=100"`
}

// MapConfig is the static map configuration served to the frontend.
type MapConfig struct {
	DefaultLocation DefaultLocation `json:"defaultLocation"`

	// AnimationDuration is in milliseconds.
	AnimationDuration int64 `json:"animationDuration"`
}

// DefaultLocation is where the map starts before any request is shown.
type DefaultLocation struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name"`
}

// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/mapexplorer/internal/models"
	ws "github.com/tomtom215/mapexplorer/internal/websocket"
)

// LocationQueue is the queue surface used by the API. Satisfied by *queue.Queue.
type LocationQueue interface {
	AddLocation(place, requesterName string, requesterAvatarURL *string) bool
	CompleteCurrentLocation(input models.RatingInput) error
	StartProcessing()
	State() models.QueueState
	Len() int
}

// RatingStore is the rating surface used by the API. Satisfied by *ratings.Store.
type RatingStore interface {
	Upsert(place string, score int, lat, lng float64) (models.PlaceRating, error)
	Document() models.RatingsDocument
	TopN(n int) []models.PlaceRating
}

// Geocoder resolves place names. Satisfied by *geocode.Client.
type Geocoder interface {
	Lookup(ctx context.Context, place string) (*models.GeocodeResult, error)
}

// StatusReader exposes live session status. Satisfied by *status.Tracker.
type StatusReader interface {
	Snapshot() models.LiveStatus
}

// topPlacesLimit is the size of the GET /api/ratings/top leaderboard.
const topPlacesLimit = 5

// Handler holds the dependencies of every endpoint.
type Handler struct {
	queue     LocationQueue
	ratings   RatingStore
	geocoder  Geocoder
	status    StatusReader
	hub       *ws.Hub
	mapConfig models.MapConfig
	upgrader  websocket.Upgrader
}

// HandlerDeps groups NewHandler's arguments.
type HandlerDeps struct {
	Queue       LocationQueue
	Ratings     RatingStore
	Geocoder    Geocoder
	Status      StatusReader
	Hub         *ws.Hub
	MapConfig   models.MapConfig
	CORSOrigins []string
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		queue:     deps.Queue,
		ratings:   deps.Ratings,
		geocoder:  deps.Geocoder,
		status:    deps.Status,
		hub:       deps.Hub,
		mapConfig: deps.MapConfig,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      originChecker(deps.CORSOrigins),
		},
	}
}

// originChecker allows requests without an Origin header (same-origin
// tools, OBS browser sources) and any origin on the allow list. "*" allows
// everything.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package models

// PlaceRating is one leaderboard entry. There is at most one per place name,
// compared case-insensitively.
//
// Visited is an RFC 3339 timestamp of the last completion.
//
// Example:
//
//	{"place": "Tokyo", "score": 91, "lat": 35.68, "lng": 139.69, "visited": "2026-01-02T15:04:05Z"}
type PlaceRating struct {
	Place   string  `json:"place"`
	Score   int     `json:"score"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Visited string  `json:"visited"`
}

// RatingsDocument is the on-disk layout of the rating store and the body of
// GET /api/ratings.
type RatingsDocument struct {
	Places []PlaceRating `json:"places"`
}

// RatingInput is the body of POST /api/ratings and POST /api/queue/complete.
// Lat and Lng are pointers so that a missing coordinate fails validation
// instead of silently becoming zero.
type RatingInput struct {
	Place string   `json:"place" validate:"required,max=200"`
	Score int      `json:"score" validate:"min=1,max=100"`
	Lat   *float64 `json:"lat" validate:"required,latitude"`
	Lng   *float64 `json:"lng" validate:"required,longitude"`
}

// Coordinates returns the lat/lng pair, zero when unset.
func (r RatingInput) Coordinates() (lat, lng float64) {
	if r.Lat != nil {
		lat = *r.Lat
	}
	if r.Lng != nil {
		lng = *r.Lng
	}
	return lat, lng
}

// TopPlacesResponse is the body of GET /api/ratings/top.
type TopPlacesResponse struct {
	TopPlaces []PlaceRating `json:"topPlaces"`
}

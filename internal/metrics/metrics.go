// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

// Package metrics holds the Prometheus collectors for Map Explorer. They are
// registered on the default registry and exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Location Queue Metrics
	QueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "location_queue_pending",
			Help: "Current number of pending location requests",
		},
	)

	QueueRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_queue_requests_total",
			Help: "Location requests offered to the queue",
		},
		[]string{"result"}, // accepted, duplicate, empty
	)

	QueuePromotions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "location_queue_promotions_total",
			Help: "Locations promoted to current",
		},
	)

	QueueCompletions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "location_queue_completions_total",
			Help: "Current locations completed with a rating",
		},
	)

	// Rating Store Metrics
	RatingWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_store_writes_total",
			Help: "Rating document writes",
		},
		[]string{"result"}, // success, failure
	)

	RatingRecoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rating_store_recoveries_total",
			Help: "Times a missing or corrupt rating document was reinitialized",
		},
	)

	RatedPlaces = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rating_store_places",
			Help: "Number of places in the rating document",
		},
	)

	// Live Session Metrics
	LiveConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_session_connected",
			Help: "1 while the live session relay is connected",
		},
	)

	LiveConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_session_connect_attempts_total",
			Help: "Live session connection attempts",
		},
		[]string{"result"}, // success, failure
	)

	LiveEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_session_events_total",
			Help: "Inbound live session events by type",
		},
		[]string{"event"},
	)

	LiveMalformedFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "live_session_malformed_frames_total",
			Help: "Relay frames that could not be decoded",
		},
	)

	LiveViewers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_session_viewers",
			Help: "Viewer count last reported by the live session",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSClientsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_clients_pruned_total",
			Help: "Observers dropped because a send failed or their buffer was full",
		},
	)

	// Geocoding Metrics
	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Geocode lookups by result",
		},
		[]string{"result"}, // found, not_found, error
	)

	GeocodeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_cache_hits_total",
			Help: "Geocode lookups answered from cache",
		},
	)

	GeocodeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_cache_misses_total",
			Help: "Geocode lookups that required an upstream call",
		},
	)

	GeocodeUpstreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geocode_upstream_duration_seconds",
			Help:    "Upstream geocoder call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records one finished API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRatingWrite counts a rating document write.
func RecordRatingWrite(err error) {
	if err != nil {
		RatingWrites.WithLabelValues("failure").Inc()
		return
	}
	RatingWrites.WithLabelValues("success").Inc()
}

// RecordLiveConnect counts a connection attempt and updates the connected gauge.
func RecordLiveConnect(err error) {
	if err != nil {
		LiveConnectAttempts.WithLabelValues("failure").Inc()
		LiveConnected.Set(0)
		return
	}
	LiveConnectAttempts.WithLabelValues("success").Inc()
	LiveConnected.Set(1)
}

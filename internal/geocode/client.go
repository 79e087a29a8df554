// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

// Package geocode resolves place names through a Nominatim-compatible
// search API.
//
// Lookups go through a cache, then a rate limiter, then a circuit breaker,
// then HTTP. Nominatim sends coordinates as decimal strings; they are
// parsed to numbers so results can be posted back as rating coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/mapexplorer/internal/cache"
	"github.com/tomtom215/mapexplorer/internal/logging"
	"github.com/tomtom215/mapexplorer/internal/metrics"
	"github.com/tomtom215/mapexplorer/internal/models"
)

var (
	// ErrNotFound means the upstream had no match for the place.
	ErrNotFound = errors.New("location not found")

	// ErrUnavailable means the upstream could not be reached or answered
	// with an error, or the circuit is open.
	ErrUnavailable = errors.New("geocoding service unavailable")
)

// maxResponseBytes bounds the upstream body read.
const maxResponseBytes = 1 << 20

// Config holds client settings.
type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	CacheSize         int
	CacheTTL          time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[*models.GeocodeResult]
	cache     *cache.LRU[string, models.GeocodeResult]
}

// New creates a client. A zero Timeout means 10 seconds, and a
// non-positive RequestsPerSecond means 1.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		breaker:   newBreaker(),
		cache:     cache.NewLRU[string, models.GeocodeResult](cfg.CacheSize, cfg.CacheTTL),
	}
}

type searchHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Lookup returns the first match for place. Misses are not cached.
func (c *Client) Lookup(ctx context.Context, place string) (*models.GeocodeResult, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return nil, ErrNotFound
	}
	key := strings.ToLower(place)

	if hit, ok := c.cache.Get(key); ok {
		metrics.GeocodeCacheHits.Inc()
		metrics.GeocodeRequests.WithLabelValues("cached").Inc()
		return &hit, nil
	}
	metrics.GeocodeCacheMisses.Inc()

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	result, err := c.breaker.Execute(func() (*models.GeocodeResult, error) {
		return c.search(ctx, place)
	})
	recordBreakerResult(err)

	switch {
	case err == nil:
		c.cache.Add(key, *result)
		metrics.GeocodeRequests.WithLabelValues("found").Inc()
		return result, nil
	case errors.Is(err, ErrNotFound):
		metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		return nil, err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.GeocodeRequests.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		logging.Warn().Err(err).Str("place", logging.Sanitize(place)).Msg("Geocoding request failed")
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

// PruneCache drops expired results and returns how many were removed.
func (c *Client) PruneCache() int {
	removed := c.cache.CleanupExpired()
	hits, misses, size := c.cache.Stats()
	logging.Debug().
		Int("removed", removed).
		Int("size", size).
		Int64("hits", hits).
		Int64("misses", misses).
		Msg("Geocode cache pruned")
	return removed
}

func (c *Client) search(ctx context.Context, place string) (*models.GeocodeResult, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", place)
	q.Set("limit", "1")
	reqURL := c.baseURL + "/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GeocodeUpstreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("%w: upstream returned HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var hits []searchHit
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&hits); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(hits) == 0 {
		return nil, ErrNotFound
	}

	first := hits[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse latitude %q: %w", first.Lat, err)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse longitude %q: %w", first.Lon, err)
	}
	return &models.GeocodeResult{Lat: lat, Lon: lon, DisplayName: first.DisplayName}, nil
}

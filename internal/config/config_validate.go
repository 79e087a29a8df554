// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateLive(); err != nil {
		return err
	}
	if err := c.validateGeocode(); err != nil {
		return err
	}
	if err := c.validateMap(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.RatingsFilename == "" {
		return fmt.Errorf("RATINGS_FILENAME is required")
	}
	switch c.Storage.RecoveryPolicy {
	case RecoveryReinitialize, RecoveryFail:
		return nil
	default:
		return fmt.Errorf("RATINGS_RECOVERY must be %q or %q, got %q",
			RecoveryReinitialize, RecoveryFail, c.Storage.RecoveryPolicy)
	}
}

func (c *Config) validateQueue() error {
	if c.Queue.MaxSize < 1 {
		return fmt.Errorf("QUEUE_MAX_SIZE must be at least 1, got %d", c.Queue.MaxSize)
	}
	if c.Queue.ProcessingInterval <= 0 {
		return fmt.Errorf("QUEUE_PROCESSING_INTERVAL must be positive, got %v", c.Queue.ProcessingInterval)
	}
	switch c.Queue.AdvanceMode {
	case AdvanceOnCompletion, AdvanceOnTimer:
		return nil
	default:
		return fmt.Errorf("QUEUE_ADVANCE_MODE must be %q or %q, got %q",
			AdvanceOnCompletion, AdvanceOnTimer, c.Queue.AdvanceMode)
	}
}

// validateLive only checks relay settings when live ingestion is enabled.
func (c *Config) validateLive() error {
	if strings.TrimSpace(c.Live.MarkerToken) == "" {
		return fmt.Errorf("LIVE_MARKER_TOKEN must not be empty")
	}
	if !c.Live.Enabled() {
		return nil
	}
	u, err := url.Parse(c.Live.RelayURL)
	if err != nil {
		return fmt.Errorf("LIVE_RELAY_URL is invalid: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("LIVE_RELAY_URL must use ws:// or wss://, got %q", c.Live.RelayURL)
	}
	if c.Live.ReconnectDelay <= 0 {
		return fmt.Errorf("LIVE_RECONNECT_DELAY must be positive, got %v", c.Live.ReconnectDelay)
	}
	return nil
}

func (c *Config) validateGeocode() error {
	u, err := url.Parse(c.Geocode.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("GEOCODE_BASE_URL must be an http(s) URL, got %q", c.Geocode.BaseURL)
	}
	if c.Geocode.RequestsPerSecond <= 0 {
		return fmt.Errorf("GEOCODE_RPS must be positive, got %v", c.Geocode.RequestsPerSecond)
	}
	if c.Geocode.CacheSize < 1 {
		return fmt.Errorf("GEOCODE_CACHE_SIZE must be at least 1, got %d", c.Geocode.CacheSize)
	}
	return nil
}

func (c *Config) validateMap() error {
	if c.Map.DefaultLat < -90 || c.Map.DefaultLat > 90 {
		return fmt.Errorf("MAP_DEFAULT_LAT must be between -90 and 90, got %v", c.Map.DefaultLat)
	}
	if c.Map.DefaultLng < -180 || c.Map.DefaultLng > 180 {
		return fmt.Errorf("MAP_DEFAULT_LNG must be between -180 and 180, got %v", c.Map.DefaultLng)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

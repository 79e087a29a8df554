// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

// Package config loads the static process configuration.
//
// Sources are layered with koanf, later layers winning:
//
//  1. built-in defaults (defaultConfig)
//  2. an optional YAML file (CONFIG_PATH, ./config.yaml, /etc/mapexplorer/config.yaml)
//  3. environment variables (see envTransformFunc)
//
// Configuration is read once at startup. There is no hot reload.
package config

import (
	"net"
	"path/filepath"
	"strconv"
	"time"
)

// Queue advance modes.
const (
	// AdvanceOnCompletion promotes the next location as soon as the current
	// one is completed. The processing interval becomes a fallback timeout.
	AdvanceOnCompletion = "completion"

	// AdvanceOnTimer promotes strictly on the processing interval, even if
	// the current location was already completed.
	AdvanceOnTimer = "timer"
)

// Rating store recovery policies.
const (
	RecoveryReinitialize = "reinitialize"
	RecoveryFail         = "fail"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Queue   QueueConfig   `koanf:"queue"`
	Live    LiveConfig    `koanf:"live"`
	Geocode GeocodeConfig `koanf:"geocode"`
	Map     MapConfig     `koanf:"map"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	StaticDir   string        `koanf:"static_dir"` // frontend bundle, empty disables static serving
	CORSOrigins []string      `koanf:"cors_origins"`
}

// StorageConfig holds rating store settings.
type StorageConfig struct {
	DataPath        string `koanf:"data_path"`
	RatingsFilename string `koanf:"ratings_filename"`

	// RecoveryPolicy decides what happens when the ratings file cannot be
	// parsed: "reinitialize" starts from an empty document, "fail" refuses writes.
	RecoveryPolicy string `koanf:"recovery_policy"`
}

// QueueConfig holds location queue settings.
type QueueConfig struct {
	MaxSize            int           `koanf:"max_size"`
	ProcessingInterval time.Duration `koanf:"processing_interval"`
	AutoStart          bool          `koanf:"auto_start"`
	AdvanceMode        string        `koanf:"advance_mode"`
}

// LiveConfig holds live session relay settings.
type LiveConfig struct {
	// Username is the streamer account. Empty disables live ingestion.
	Username string `koanf:"username"`

	// SessionID is an optional session credential forwarded to the relay.
	SessionID string `koanf:"session_id"`

	RelayURL       string        `koanf:"relay_url"`
	ReconnectDelay time.Duration `koanf:"reconnect_delay"`
	DefaultTitle   string        `koanf:"default_title"`

	// MarkerToken is the chat prefix (before the colon) that marks a location request.
	MarkerToken string `koanf:"marker_token"`
}

// Enabled reports whether live ingestion should run.
func (l LiveConfig) Enabled() bool {
	return l.Username != ""
}

// GeocodeConfig holds geocoding client settings.
type GeocodeConfig struct {
	BaseURL           string        `koanf:"base_url"`
	UserAgent         string        `koanf:"user_agent"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	CacheSize         int           `koanf:"cache_size"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
}

// MapConfig is handed to the frontend as-is.
type MapConfig struct {
	DefaultLat        float64       `koanf:"default_lat"`
	DefaultLng        float64       `koanf:"default_lng"`
	DefaultName       string        `koanf:"default_name"`
	AnimationDuration time.Duration `koanf:"animation_duration"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// RatingsPath returns the full path of the ratings document.
func (s StorageConfig) RatingsPath() string {
	return filepath.Join(s.DataPath, s.RatingsFilename)
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

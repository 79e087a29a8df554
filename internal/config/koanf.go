// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mapexplorer/config.yaml",
	"/etc/mapexplorer/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        3000,
			Timeout:     30 * time.Second,
			StaticDir:   "./public",
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			DataPath:        "./data",
			RatingsFilename: "ratings.json",
			RecoveryPolicy:  RecoveryReinitialize,
		},
		Queue: QueueConfig{
			MaxSize:            10,
			ProcessingInterval: 8 * time.Second,
			AutoStart:          true,
			AdvanceMode:        AdvanceOnCompletion,
		},
		Live: LiveConfig{
			Username:       "",
			RelayURL:       "ws://127.0.0.1:8081/live",
			ReconnectDelay: 30 * time.Second,
			DefaultTitle:   "Map Explorer PRO Live!",
			MarkerToken:    "location",
		},
		Geocode: GeocodeConfig{
			BaseURL:           "https://nominatim.openstreetmap.org",
			UserAgent:         "MapExplorer/1.0",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 1, // Nominatim usage policy
			CacheSize:         512,
			CacheTTL:          24 * time.Hour,
		},
		Map: MapConfig{
			DefaultLat:        48.8566,
			DefaultLng:        2.3522,
			DefaultName:       "Paris",
			AnimationDuration: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, the optional config file and
// the environment, then validates it. Precedence: env > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// PORT -> server.port, QUEUE_MAX_SIZE -> queue.max_size, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitCommaList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// splitCommaList turns a comma separated env value into a slice. YAML lists
// are left alone.
func splitCommaList(k *koanf.Koanf, path string) error {
	raw, ok := k.Get(path).(string)
	if !ok || raw == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if err := k.Set(path, parts); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak into
// the configuration.
var envMappings = map[string]string{
	"server_host":               "server.host",
	"port":                      "server.port",
	"http_port":                 "server.port",
	"server_timeout":            "server.timeout",
	"static_dir":                "server.static_dir",
	"cors_origins":              "server.cors_origins",
	"data_path":                 "storage.data_path",
	"ratings_filename":          "storage.ratings_filename",
	"ratings_recovery":          "storage.recovery_policy",
	"queue_max_size":            "queue.max_size",
	"queue_processing_interval": "queue.processing_interval",
	"queue_auto_start":          "queue.auto_start",
	"queue_advance_mode":        "queue.advance_mode",
	"tiktok_username":           "live.username",
	"tiktok_session_id":         "live.session_id",
	"live_relay_url":            "live.relay_url",
	"live_reconnect_delay":      "live.reconnect_delay",
	"live_default_title":        "live.default_title",
	"live_marker_token":         "live.marker_token",
	"geocode_base_url":          "geocode.base_url",
	"geocode_user_agent":        "geocode.user_agent",
	"geocode_timeout":           "geocode.timeout",
	"geocode_rps":               "geocode.requests_per_second",
	"geocode_cache_size":        "geocode.cache_size",
	"geocode_cache_ttl":         "geocode.cache_ttl",
	"map_default_lat":           "map.default_lat",
	"map_default_lng":           "map.default_lng",
	"map_default_name":          "map.default_name",
	"map_animation_duration":    "map.animation_duration",
	"log_level":                 "logging.level",
	"log_format":                "logging.format",
	"log_caller":                "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

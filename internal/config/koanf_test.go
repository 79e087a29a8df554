// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// withNoConfigFile points CONFIG_PATH at a missing file and moves into an
// empty directory so no stray config.yaml is picked up.
func withNoConfigFile(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Queue.MaxSize != 10 {
		t.Errorf("Queue.MaxSize = %d, want 10", cfg.Queue.MaxSize)
	}
	if cfg.Queue.ProcessingInterval != 8*time.Second {
		t.Errorf("Queue.ProcessingInterval = %v, want 8s", cfg.Queue.ProcessingInterval)
	}
	if !cfg.Queue.AutoStart {
		t.Error("Queue.AutoStart should default to true")
	}
	if cfg.Live.ReconnectDelay != 30*time.Second {
		t.Errorf("Live.ReconnectDelay = %v, want 30s", cfg.Live.ReconnectDelay)
	}
	if cfg.Live.DefaultTitle != "Map Explorer PRO Live!" {
		t.Errorf("Live.DefaultTitle = %q", cfg.Live.DefaultTitle)
	}
	if cfg.Live.Enabled() {
		t.Error("live ingestion should be disabled without a username")
	}
	if cfg.Storage.RatingsPath() != filepath.Join("data", "ratings.json") {
		t.Errorf("RatingsPath = %q", cfg.Storage.RatingsPath())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	withNoConfigFile(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:3000" {
		t.Errorf("Addr = %q, want 0.0.0.0:3000", cfg.Server.Addr())
	}
	if cfg.Map.DefaultName != "Paris" {
		t.Errorf("Map.DefaultName = %q, want Paris", cfg.Map.DefaultName)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	withNoConfigFile(t)
	t.Setenv("PORT", "8080")
	t.Setenv("QUEUE_MAX_SIZE", "3")
	t.Setenv("QUEUE_PROCESSING_INTERVAL", "2s")
	t.Setenv("QUEUE_ADVANCE_MODE", "timer")
	t.Setenv("TIKTOK_USERNAME", "explorer")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Queue.MaxSize != 3 {
		t.Errorf("Queue.MaxSize = %d, want 3", cfg.Queue.MaxSize)
	}
	if cfg.Queue.ProcessingInterval != 2*time.Second {
		t.Errorf("Queue.ProcessingInterval = %v, want 2s", cfg.Queue.ProcessingInterval)
	}
	if cfg.Queue.AdvanceMode != AdvanceOnTimer {
		t.Errorf("Queue.AdvanceMode = %q, want timer", cfg.Queue.AdvanceMode)
	}
	if !cfg.Live.Enabled() || cfg.Live.Username != "explorer" {
		t.Errorf("Live.Username = %q, want explorer", cfg.Live.Username)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoad_File(t *testing.T) {
	withNoConfigFile(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := strings.Join([]string{
		"queue:",
		"  max_size: 5",
		"storage:",
		"  recovery_policy: fail",
		"map:",
		"  default_name: Tokyo",
		"  default_lat: 35.68",
		"  default_lng: 139.69",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("QUEUE_MAX_SIZE", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Queue.MaxSize != 7 {
		t.Errorf("env should win over file: MaxSize = %d, want 7", cfg.Queue.MaxSize)
	}
	if cfg.Storage.RecoveryPolicy != RecoveryFail {
		t.Errorf("RecoveryPolicy = %q, want fail", cfg.Storage.RecoveryPolicy)
	}
	if cfg.Map.DefaultName != "Tokyo" {
		t.Errorf("Map.DefaultName = %q, want Tokyo", cfg.Map.DefaultName)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero queue size", func(c *Config) { c.Queue.MaxSize = 0 }, "QUEUE_MAX_SIZE"},
		{"bad advance mode", func(c *Config) { c.Queue.AdvanceMode = "eventually" }, "QUEUE_ADVANCE_MODE"},
		{"bad recovery", func(c *Config) { c.Storage.RecoveryPolicy = "ignore" }, "RATINGS_RECOVERY"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "PORT"},
		{"bad relay scheme", func(c *Config) {
			c.Live.Username = "explorer"
			c.Live.RelayURL = "http://relay"
		}, "LIVE_RELAY_URL"},
		{"empty marker", func(c *Config) { c.Live.MarkerToken = " " }, "LIVE_MARKER_TOKEN"},
		{"bad latitude", func(c *Config) { c.Map.DefaultLat = 91 }, "MAP_DEFAULT_LAT"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"zero rps", func(c *Config) { c.Geocode.RequestsPerSecond = 0 }, "GEOCODE_RPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	if got := envTransformFunc("TIKTOK_SESSION_ID"); got != "live.session_id" {
		t.Errorf("TIKTOK_SESSION_ID -> %q", got)
	}
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("unmapped variable should be skipped, got %q", got)
	}
}

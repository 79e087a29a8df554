// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

// Package main is the entry point for the Map Explorer server.
//
// Map Explorer turns a live stream's chat into a map tour. Viewers type
// "location: <place>" in chat, the server queues the place, an overlay
// flies the map there, and the streamer rates it on a persistent
// leaderboard.
//
// # Startup
//
//  1. Configuration: .env, then config.yaml, then environment (koanf v2)
//  2. Rating store: JSON document under DATA_PATH
//  3. Location queue, status tracker, comment hub, geocoder
//  4. Live ingestion, only when TIKTOK_USERNAME is set
//  5. HTTP server: REST API, comment WebSocket, /metrics, static overlay
//
// Everything long-lived runs under a suture supervisor tree.
//
// # Signals
//
// SIGINT and SIGTERM cancel the tree. The HTTP server drains for up to 10s,
// the hub closes its clients and the queue stops its timer.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tomtom215/mapexplorer/internal/config"
	"github.com/tomtom215/mapexplorer/internal/logging"
)

func main() {
	// A missing .env is the normal case in containers.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("ratings_path", cfg.Storage.RatingsPath()).
		Bool("live_enabled", cfg.Live.Enabled()).
		Str("advance_mode", cfg.Queue.AdvanceMode).
		Msg("Configuration loaded")

	app, err := newApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := app.tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := app.tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

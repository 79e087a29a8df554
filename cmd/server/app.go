// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/mapexplorer/internal/api"
	"github.com/tomtom215/mapexplorer/internal/config"
	"github.com/tomtom215/mapexplorer/internal/geocode"
	"github.com/tomtom215/mapexplorer/internal/ingest"
	"github.com/tomtom215/mapexplorer/internal/live"
	"github.com/tomtom215/mapexplorer/internal/logging"
	"github.com/tomtom215/mapexplorer/internal/models"
	"github.com/tomtom215/mapexplorer/internal/queue"
	"github.com/tomtom215/mapexplorer/internal/ratings"
	"github.com/tomtom215/mapexplorer/internal/status"
	"github.com/tomtom215/mapexplorer/internal/supervisor"
	"github.com/tomtom215/mapexplorer/internal/supervisor/services"
	ws "github.com/tomtom215/mapexplorer/internal/websocket"
)

// app holds the wired components.
type app struct {
	tree    *supervisor.SupervisorTree
	store   *ratings.Store
	queue   *queue.Queue
	hub     *ws.Hub
	tracker *status.Tracker
	server  *http.Server
}

// newApp builds every component from cfg and registers the long-lived ones
// with a supervisor tree. Nothing runs until the tree is served.
func newApp(cfg *config.Config) (*app, error) {
	policy, err := ratings.ParseRecoveryPolicy(cfg.Storage.RecoveryPolicy)
	if err != nil {
		return nil, err
	}
	store, err := ratings.Open(cfg.Storage.RatingsPath(), ratings.WithRecoveryPolicy(policy))
	if err != nil {
		return nil, fmt.Errorf("open rating store: %w", err)
	}

	q := queue.New(queue.Config{
		MaxSize:            cfg.Queue.MaxSize,
		ProcessingInterval: cfg.Queue.ProcessingInterval,
		AutoStart:          cfg.Queue.AutoStart,
		AdvanceMode:        queue.ParseAdvanceMode(cfg.Queue.AdvanceMode),
	}, store)

	tracker := status.NewTracker(cfg.Live.Username, cfg.Live.DefaultTitle)
	hub := ws.NewHub()

	geocoder := geocode.New(geocode.Config{
		BaseURL:           cfg.Geocode.BaseURL,
		UserAgent:         cfg.Geocode.UserAgent,
		Timeout:           cfg.Geocode.Timeout,
		RequestsPerSecond: cfg.Geocode.RequestsPerSecond,
		CacheSize:         cfg.Geocode.CacheSize,
		CacheTTL:          cfg.Geocode.CacheTTL,
	})

	handler := api.NewHandler(api.HandlerDeps{
		Queue:       q,
		Ratings:     store,
		Geocoder:    geocoder,
		Status:      tracker,
		Hub:         hub,
		MapConfig:   mapConfig(cfg.Map),
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	mw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		CORSMaxAge:         86400,
	})
	router := api.NewRouter(handler, mw, cfg.Server.StaticDir)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return nil, fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddStateService(services.NewQueueService(q, cfg.Queue.AutoStart))
	tree.AddStateService(services.NewCachePruneService(geocoder, cfg.Geocode.CacheTTL))
	tree.AddLiveService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	if cfg.Live.Enabled() {
		relay, err := live.NewRelayClient(live.RelayConfig{
			URL:       cfg.Live.RelayURL,
			Username:  cfg.Live.Username,
			SessionID: cfg.Live.SessionID,
		})
		if err != nil {
			return nil, fmt.Errorf("create live relay client: %w", err)
		}
		adapter := ingest.New(ingest.Config{
			Marker:         cfg.Live.MarkerToken,
			ReconnectDelay: cfg.Live.ReconnectDelay,
		}, relay, q, hub, tracker)
		tree.AddLiveService(services.NewLiveIngestService(adapter))
		logging.Info().Str("username", cfg.Live.Username).Msg("Live ingestion enabled")
	} else {
		logging.Info().Msg("Live ingestion disabled, set TIKTOK_USERNAME to enable")
	}

	return &app{
		tree:    tree,
		store:   store,
		queue:   q,
		hub:     hub,
		tracker: tracker,
		server:  server,
	}, nil
}

func mapConfig(m config.MapConfig) models.MapConfig {
	return models.MapConfig{
		DefaultLocation: models.DefaultLocation{
			Lat:  m.DefaultLat,
			Lng:  m.DefaultLng,
			Name: m.DefaultName,
		},
		AnimationDuration: m.AnimationDuration.Milliseconds(),
	}
}

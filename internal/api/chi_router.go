// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

// Package api serves the JSON endpoints, the comment WebSocket, Prometheus
// metrics and the static frontend.
package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/mapexplorer/internal/logging"
	"github.com/tomtom215/mapexplorer/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	staticDir     string
}

// NewRouter creates a router. An empty staticDir disables static serving.
func NewRouter(handler *Handler, mw *ChiMiddleware, staticDir string) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw, staticDir: staticDir}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(router.chiMiddleware.CORS())

	h := router.handler

	r.Route("/api", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		r.Get("/health", h.Health)
		r.Get("/config", h.MapConfig)
		r.Get("/geocode", h.Geocode)

		r.Get("/ratings", h.Ratings)
		r.Get("/ratings/top", h.TopRatings)
		r.Get("/queue", h.Queue)

		r.Post("/ratings", h.SaveRating)
		r.Post("/queue", h.Enqueue)
		r.Post("/queue/complete", h.CompleteLocation)
		r.Post("/queue/start", h.StartQueue)

		r.Get("/tiktok/status", h.LiveStatus)
		r.Get("/tiktok/comments", h.Comments)
	})

	r.Handle("/metrics", promhttp.Handler())

	if router.staticDir != "" {
		if info, err := os.Stat(router.staticDir); err == nil && info.IsDir() {
			r.With(chimiddleware.Compress(5)).Handle("/*", http.FileServer(http.Dir(router.staticDir)))
		} else {
			logging.Warn().Str("dir", router.staticDir).Msg("Static directory not found, frontend will not be served")
		}
	}

	return r
}

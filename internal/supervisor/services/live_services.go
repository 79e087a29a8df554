// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package services

import "context"

// ContextHub is satisfied by *websocket.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketHubService runs the comment hub. The hub closes its clients when
// ctx ends.
type WebSocketHubService struct {
	hub  ContextHub
	name string
}

// NewWebSocketHubService wraps hub.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{hub: hub, name: "websocket-hub"}
}

// Serve implements suture.Service.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	return w.hub.RunWithContext(ctx)
}

func (w *WebSocketHubService) String() string {
	return w.name
}

// Ingester is satisfied by *ingest.Adapter.
type Ingester interface {
	Serve(ctx context.Context) error
}

// LiveIngestService runs the live comment ingestion loop. The adapter does
// its own reconnect pacing; a return other than ctx.Err() is a crash and
// the supervisor restarts it.
type LiveIngestService struct {
	ingester Ingester
	name     string
}

// NewLiveIngestService wraps ingester.
func NewLiveIngestService(ingester Ingester) *LiveIngestService {
	return &LiveIngestService{ingester: ingester, name: "live-ingest"}
}

// Serve implements suture.Service.
func (l *LiveIngestService) Serve(ctx context.Context) error {
	return l.ingester.Serve(ctx)
}

func (l *LiveIngestService) String() string {
	return l.name
}

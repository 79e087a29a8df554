// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

// Package websocket fans live events out to browser observers.
//
// A Hub owns the set of connected clients. Broadcast serializes an event once
// and hands the bytes to every client's buffered send channel. Delivery is
// at-most-once: a client that is reconnecting misses whatever was sent in the
// meantime. A client whose buffer is full, or whose connection write fails,
// is dropped at once rather than on its next disconnect.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/samber/lo"

	"github.com/tomtom215/mapexplorer/internal/logging"
	"github.com/tomtom215/mapexplorer/internal/metrics"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Hub maintains the set of active clients and broadcasts payloads to them.
// Only the goroutine running RunWithContext mutates the client set; mu lets
// ClientCount read it from elsewhere.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// RunWithContext processes registrations and broadcasts until ctx is done,
// then closes every client. It is a suture.Service body.
//
// Shutdown is checked first, then lifecycle events, then broadcasts, so a
// client registered before a broadcast is always included in it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case c := <-h.register:
			h.add(c)
			continue
		case c := <-h.unregister:
			h.remove(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case payload := <-h.broadcast:
			h.broadcastToClients(payload)
		}
	}
}

// Register hands a client to the hub.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client. It gives up after writeWait so a client
// goroutine cannot hang on a hub that has already stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-time.After(writeWait):
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	logging.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.WSConnections.Set(float64(n))
		logging.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("websocket client disconnected")
	}
}

// Broadcast serializes v once and queues it for every connected client.
// When the hub is backlogged the event is dropped.
func (h *Hub) Broadcast(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal broadcast payload")
		return
	}
	h.BroadcastRaw(payload)
}

// BroadcastRaw queues an already serialized payload.
func (h *Hub) BroadcastRaw(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
		logging.Warn().Msg("broadcast channel full, dropping event")
	}
}

// broadcastToClients delivers in client ID order so that delivery order is
// reproducible in tests.
func (h *Hub) broadcastToClients(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := lo.Keys(h.clients)
	slicesSortByID(clients)

	for _, c := range clients {
		select {
		case c.send <- payload:
			metrics.WSMessagesSent.Inc()
		default:
			// Slow or dead observer.
			close(c.send)
			delete(h.clients, c)
			metrics.WSClientsPruned.Inc()
			logging.Warn().Uint64("client_id", c.id).Msg("websocket client pruned, send buffer full")
		}
	}
	metrics.WSConnections.Set(float64(len(h.clients)))
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := lo.Keys(h.clients)
	slicesSortByID(clients)
	for _, c := range clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	metrics.WSConnections.Set(0)

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(shutdownReason(ctx))).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

func shutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*WebSocketHubService)(nil)
	_ suture.Service = (*LiveIngestService)(nil)
	_ suture.Service = (*QueueService)(nil)
	_ suture.Service = (*CachePruneService)(nil)
)

type mockHTTPServer struct {
	listenErr   error
	shutdownErr error
	started     chan struct{}
	stop        chan struct{}
	shutdowns   atomic.Int32
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{started: make(chan struct{}, 1), stop: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.started <- struct{}{}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stop
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdowns.Add(1)
	close(m.stop)
	return m.shutdownErr
}

func serveAsync(ctx context.Context, svc suture.Service) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	return errCh
}

func waitErr(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
		return nil
	}
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	server := newMockHTTPServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := serveAsync(ctx, svc)
	<-server.started
	cancel()

	if err := waitErr(t, errCh); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if server.shutdowns.Load() != 1 {
		t.Errorf("Shutdown calls = %d, want 1", server.shutdowns.Load())
	}
}

func TestHTTPServerService_StartupFailure(t *testing.T) {
	bindErr := errors.New("bind: address already in use")
	server := newMockHTTPServer()
	server.listenErr = bindErr

	err := NewHTTPServerService(server, time.Second).Serve(context.Background())
	if !errors.Is(err, bindErr) {
		t.Errorf("err = %v, want wrapped bind error", err)
	}
}

func TestHTTPServerService_ShutdownFailure(t *testing.T) {
	shutdownErr := errors.New("shutdown timeout")
	server := newMockHTTPServer()
	server.shutdownErr = shutdownErr
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := serveAsync(ctx, svc)
	<-server.started
	cancel()

	if err := waitErr(t, errCh); !errors.Is(err, shutdownErr) {
		t.Errorf("err = %v, want shutdown error", err)
	}
}

func TestHTTPServerService_DefaultTimeout(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		if svc := NewHTTPServerService(newMockHTTPServer(), d); svc.shutdownTimeout != 10*time.Second {
			t.Errorf("timeout(%v) = %v, want 10s", d, svc.shutdownTimeout)
		}
	}
}

type blockingRunner struct {
	runs atomic.Int32
	err  error
}

func (b *blockingRunner) RunWithContext(ctx context.Context) error { return b.Serve(ctx) }

func (b *blockingRunner) Serve(ctx context.Context) error {
	b.runs.Add(1)
	if b.err != nil {
		return b.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubService_Delegates(t *testing.T) {
	hub := &blockingRunner{}
	svc := NewWebSocketHubService(hub)
	if svc.String() != "websocket-hub" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := serveAsync(ctx, svc)
	cancel()
	if err := waitErr(t, errCh); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if hub.runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", hub.runs.Load())
	}
}

func TestLiveIngestService_RestartedBySupervisor(t *testing.T) {
	ingester := &blockingRunner{err: errors.New("relay gone")}
	svc := NewLiveIngestService(ingester)
	if svc.String() != "live-ingest" {
		t.Errorf("String() = %q", svc.String())
	}

	sup := suture.New("test", suture.Spec{
		FailureThreshold: 100,
		FailureBackoff:   time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for ingester.runs.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("failing ingester was not restarted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-errCh
}

type fakeQueue struct {
	starts atomic.Int32
	closes atomic.Int32
}

func (f *fakeQueue) StartProcessing() { f.starts.Add(1) }
func (f *fakeQueue) Close()           { f.closes.Add(1) }

func TestQueueService(t *testing.T) {
	tests := []struct {
		name       string
		autoStart  bool
		wantStarts int32
	}{
		{"auto start", true, 1},
		{"manual start", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{}
			ctx, cancel := context.WithCancel(context.Background())
			errCh := serveAsync(ctx, NewQueueService(q, tt.autoStart))
			cancel()

			if err := waitErr(t, errCh); !errors.Is(err, context.Canceled) {
				t.Errorf("err = %v, want context.Canceled", err)
			}
			if got := q.starts.Load(); got != tt.wantStarts {
				t.Errorf("starts = %d, want %d", got, tt.wantStarts)
			}
			if q.closes.Load() != 1 {
				t.Errorf("closes = %d, want 1", q.closes.Load())
			}
		})
	}
}

type countingPruner struct {
	prunes atomic.Int32
}

func (p *countingPruner) PruneCache() int {
	p.prunes.Add(1)
	return 0
}

func TestCachePruneService_PrunesOnInterval(t *testing.T) {
	pruner := &countingPruner{}
	svc := NewCachePruneService(pruner, 5*time.Millisecond)
	if svc.String() != "geocode-cache-prune" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := serveAsync(ctx, svc)

	deadline := time.Now().Add(2 * time.Second)
	for pruner.prunes.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("cache was not pruned on the interval")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := waitErr(t, errCh); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCachePruneService_DefaultInterval(t *testing.T) {
	if svc := NewCachePruneService(&countingPruner{}, 0); svc.interval != 5*time.Minute {
		t.Errorf("interval = %v, want 5m", svc.interval)
	}
}

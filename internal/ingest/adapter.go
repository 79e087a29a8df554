// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

// Package ingest turns live session events into queue requests, observer
// broadcasts and status updates.
//
// Every chat message is broadcast as a CommentEvent. A message of the form
// "<marker>: <place>" also enqueues place. Member joins are welcomed once per
// sender for the life of the process, including across reconnects.
//
// Serve keeps a session open: when it ends it waits a fixed delay and
// connects again, forever, until its context is canceled.
package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mapexplorer/internal/live"
	"github.com/tomtom215/mapexplorer/internal/logging"
	"github.com/tomtom215/mapexplorer/internal/metrics"
	"github.com/tomtom215/mapexplorer/internal/models"
)

// DefaultMarker is the chat prefix that marks a location request.
const DefaultMarker = "location"

// Enqueuer accepts location requests. Satisfied by *queue.Queue.
type Enqueuer interface {
	AddLocation(place, requesterName string, requesterAvatarURL *string) bool
}

// Broadcaster fans events out to observers. Satisfied by *websocket.Hub.
type Broadcaster interface {
	Broadcast(v any)
}

// StatusWriter records session state. Satisfied by *status.Tracker.
type StatusWriter interface {
	SetConnected(title string)
	SetViewerCount(n int)
	MarkEnded()
}

// Config holds adapter settings.
type Config struct {
	Marker         string
	ReconnectDelay time.Duration
}

// Adapter is safe for concurrent use, though a live.Session delivers its
// callbacks from one goroutine.
type Adapter struct {
	cfg    Config
	source live.Source
	queue  Enqueuer
	hub    Broadcaster
	status StatusWriter
	now    func() time.Time
	wait   func(ctx context.Context, d time.Duration) error
	logger zerolog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// withWait replaces the reconnect sleep. Tests use it to skip the delay.
func withWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Adapter) { a.wait = wait }
}

// New creates an adapter. An empty marker means DefaultMarker; a
// non-positive delay means 30 seconds.
func New(cfg Config, source live.Source, q Enqueuer, hub Broadcaster, st StatusWriter, opts ...Option) *Adapter {
	if strings.TrimSpace(cfg.Marker) == "" {
		cfg.Marker = DefaultMarker
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 30 * time.Second
	}
	a := &Adapter{
		cfg:    cfg,
		source: source,
		queue:  q,
		hub:    hub,
		status: st,
		now:    time.Now,
		wait:   sleepContext,
		logger: logging.WithComponent("ingest"),
		seen:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ParseLocationRequest extracts the place from "<marker>: <place>". The
// marker is matched case-insensitively and must be immediately followed by
// a colon. The place is trimmed and must be non-empty.
func ParseLocationRequest(marker, text string) (string, bool) {
	text = strings.TrimSpace(text)
	prefix := marker + ":"
	if len(text) < len(prefix) || !strings.EqualFold(text[:len(prefix)], prefix) {
		return "", false
	}
	place := strings.TrimSpace(text[len(prefix):])
	if place == "" {
		return "", false
	}
	return place, true
}

// Handlers returns the callbacks to register on a live session.
func (a *Adapter) Handlers() live.Handlers {
	return live.Handlers{
		OnConnected: a.HandleConnected,
		OnChat:      a.HandleChat,
		OnMember:    a.HandleMember,
		OnRoomUser:  a.HandleRoomUser,
		OnStreamEnd: a.HandleStreamEnd,
	}
}

// HandleChat enqueues a location request if msg carries one, then
// broadcasts the comment.
func (a *Adapter) HandleChat(msg models.ChatMessage) {
	msg.SenderID = senderName(msg.SenderID)
	if place, ok := ParseLocationRequest(a.cfg.Marker, msg.Text); ok {
		var avatar *string
		if msg.AvatarURL != "" {
			u := msg.AvatarURL
			avatar = &u
		}
		accepted := a.queue.AddLocation(place, msg.SenderID, avatar)
		a.logger.Info().
			Str("place", logging.Sanitize(place)).
			Str("sender", logging.Sanitize(msg.SenderID)).
			Bool("accepted", accepted).
			Msg("Location requested from chat")
	}

	a.hub.Broadcast(models.CommentEvent{
		Text:       msg.Text,
		Username:   msg.SenderID,
		ProfilePic: msg.AvatarURL,
		Timestamp:  a.now().UnixMilli(),
	})
}

// HandleMember broadcasts a welcome the first time a sender joins.
func (a *Adapter) HandleMember(m models.MemberJoin) {
	m.SenderID = senderName(m.SenderID)
	a.mu.Lock()
	_, dup := a.seen[m.SenderID]
	if !dup {
		a.seen[m.SenderID] = struct{}{}
	}
	a.mu.Unlock()
	if dup {
		return
	}

	a.logger.Debug().Str("sender", logging.Sanitize(m.SenderID)).Msg("Welcoming new viewer")
	a.hub.Broadcast(models.WelcomeEvent{
		Event:      models.WelcomeEventName,
		Username:   m.SenderID,
		ProfilePic: m.AvatarURL,
		Timestamp:  a.now().UnixMilli(),
	})
}

func senderName(id string) string {
	if id == "" {
		return models.AnonymousUsername
	}
	return id
}

// HandleRoomUser records the viewer count.
func (a *Adapter) HandleRoomUser(viewerCount int) {
	a.status.SetViewerCount(viewerCount)
}

// HandleConnected marks the session live.
func (a *Adapter) HandleConnected(title string) {
	a.status.SetConnected(title)
	a.logger.Info().Str("title", logging.Sanitize(title)).Msg("Live session connected")
}

// HandleStreamEnd marks the session ended. The session closes itself and
// Serve reconnects.
func (a *Adapter) HandleStreamEnd() {
	a.status.MarkEnded()
	a.logger.Info().Msg("Live stream ended")
}

// SeenCount returns how many distinct viewers have been welcomed.
func (a *Adapter) SeenCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.seen)
}

// Serve connects and reconnects until ctx is canceled. It is a
// suture.Service body and only returns ctx.Err().
func (a *Adapter) Serve(ctx context.Context) error {
	for {
		err := a.runSession(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		a.status.MarkEnded()
		metrics.LiveConnected.Set(0)
		a.logger.Warn().Err(err).Dur("retry_in", a.cfg.ReconnectDelay).Msg("Live session lost, reconnecting")

		if err := a.wait(ctx, a.cfg.ReconnectDelay); err != nil {
			return err
		}
	}
}

// runSession opens one session and blocks until it ends or ctx is done.
func (a *Adapter) runSession(ctx context.Context) error {
	sess, err := a.source.Connect(ctx, a.Handlers())
	metrics.RecordLiveConnect(err)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		_ = sess.Close()
		return ctx.Err()
	case <-sess.Done():
		if err := sess.Err(); err != nil {
			return err
		}
		return errors.New("live session closed")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

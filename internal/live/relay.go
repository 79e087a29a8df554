// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

// Package live connects to the live-stream platform through a relay that
// speaks JSON frames over WebSocket.
//
// Frame format:
//
//	{"event": "chat", "data": {"comment": "...", "uniqueId": "...", ...}}
//
// Event kinds:
//   - connected: {"roomInfo": {"title": "..."}}
//   - chat, member: {"comment", "uniqueId", "userId", "profilePictureUrl"}
//   - roomUser: {"viewerCount": 12}
//   - streamEnd: no data, ends the session
//   - error: {"message": "..."}
//
// Callbacks run on the session's single read goroutine, in arrival order.
// Reconnection is the caller's job; a Session only reports that it ended.
package live

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/mapexplorer/internal/logging"
	"github.com/tomtom215/mapexplorer/internal/models"
)

var (
	// ErrNotConfigured is returned when no account is configured.
	ErrNotConfigured = errors.New("live session not configured")

	// ErrStreamEnded is the session error after a streamEnd frame.
	ErrStreamEnded = errors.New("live stream ended")
)

// SessionHeader carries the optional session credential to the relay.
const SessionHeader = "X-Session-Id"

const (
	handshakeTimeout = 10 * time.Second
	readWait         = 60 * time.Second
	pingPeriod       = (readWait * 9) / 10
	writeWait        = 10 * time.Second
)

// Handlers receives session events. Nil handlers are skipped.
type Handlers struct {
	OnConnected func(title string)
	OnChat      func(models.ChatMessage)
	OnMember    func(models.MemberJoin)
	OnRoomUser  func(viewerCount int)
	OnStreamEnd func()
}

// Source opens live sessions.
type Source interface {
	Connect(ctx context.Context, h Handlers) (Session, error)
}

// Session is one connection to the live stream.
type Session interface {
	// Done is closed when the session ends for any reason.
	Done() <-chan struct{}
	// Err reports why the session ended. It is nil after Close.
	Err() error
	Close() error
}

// RelayConfig configures a RelayClient.
type RelayConfig struct {
	URL       string
	Username  string
	SessionID string
}

// RelayClient is a Source backed by a WebSocket relay.
type RelayClient struct {
	cfg    RelayConfig
	url    string
	dialer websocket.Dialer
	logger zerolog.Logger
}

// NewRelayClient validates cfg. It returns ErrNotConfigured when no username
// is set.
func NewRelayClient(cfg RelayConfig) (*RelayClient, error) {
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, ErrNotConfigured
	}
	wsURL, err := buildRelayURL(cfg.URL, cfg.Username)
	if err != nil {
		return nil, err
	}
	return &RelayClient{
		cfg: cfg,
		url: wsURL,
		dialer: websocket.Dialer{
			HandshakeTimeout:  handshakeTimeout,
			EnableCompression: true,
		},
		logger: logging.WithComponent("live-relay").With().Str("username", cfg.Username).Logger(),
	}, nil
}

// buildRelayURL converts http(s) to ws(s) and adds the username query parameter.
func buildRelayURL(base, username string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse relay url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("relay url scheme %q not supported", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("relay url %q has no host", base)
	}
	q := u.Query()
	q.Set("username", username)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the relay and starts reading frames.
func (c *RelayClient) Connect(ctx context.Context, h Handlers) (Session, error) {
	header := http.Header{}
	if c.cfg.SessionID != "" {
		header.Set(SessionHeader, c.cfg.SessionID)
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("relay dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("relay dial: %w", err)
	}

	s := &relaySession{
		conn:     conn,
		handlers: h,
		logger:   c.logger,
		done:     make(chan struct{}),
	}
	go s.readLoop()
	go s.pingLoop()
	c.logger.Info().Msg("Connected to live relay")
	return s, nil
}

type relaySession struct {
	conn     *websocket.Conn
	handlers Handlers
	logger   zerolog.Logger

	done    chan struct{}
	endOnce sync.Once
	mu      sync.Mutex
	err     error
}

func (s *relaySession) Done() <-chan struct{} { return s.done }

func (s *relaySession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close sends a close frame and ends the session.
func (s *relaySession) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	s.end(nil)
	return nil
}

func (s *relaySession) end(err error) {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		_ = s.conn.Close()
		close(s.done)
	})
}

func (s *relaySession) readLoop() {
	_ = s.conn.SetReadDeadline(time.Now().Add(readWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return // closed locally
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info().Msg("Live relay closed the connection")
			} else {
				s.logger.Warn().Err(err).Msg("Live relay read error")
			}
			s.end(fmt.Errorf("relay read: %w", err))
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(readWait))

		if ended := s.dispatch(data); ended {
			s.end(ErrStreamEnded)
			return
		}
	}
}

// pingLoop keeps the relay connection alive. WriteControl is safe to call
// concurrently with Close.
func (s *relaySession) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.end(fmt.Errorf("relay ping: %w", err))
				return
			}
		}
	}
}

// Map Explorer - Live Stream Location Queue and Place Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mapexplorer

package live

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/mapexplorer/internal/logging"
	"github.com/tomtom215/mapexplorer/internal/metrics"
	"github.com/tomtom215/mapexplorer/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// relayServer upgrades one connection, records the request, writes frames,
// then runs after (if set) before closing.
type relayServer struct {
	*httptest.Server
	mu      sync.Mutex
	request *http.Request
}

func newRelayServer(t *testing.T, frames []string, after func(conn *websocket.Conn)) *relayServer {
	t.Helper()
	rs := &relayServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.request = r
		rs.mu.Unlock()

		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		if after != nil {
			after(conn)
		}
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *relayServer) lastRequest() *http.Request {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.request
}

// recorder collects handler invocations in order.
type recorder struct {
	mu     sync.Mutex
	events []string
	chats  []models.ChatMessage
	member []models.MemberJoin
	title  string
	views  int
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnConnected: func(title string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, EventConnected)
			r.title = title
		},
		OnChat: func(m models.ChatMessage) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, EventChat)
			r.chats = append(r.chats, m)
		},
		OnMember: func(m models.MemberJoin) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, EventMember)
			r.member = append(r.member, m)
		},
		OnRoomUser: func(n int) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, EventRoomUser)
			r.views = n
		},
		OnStreamEnd: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, EventStreamEnd)
		},
	}
}

func waitDone(t *testing.T, s Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end")
	}
}

func TestNewRelayClient_NotConfigured(t *testing.T) {
	_, err := NewRelayClient(RelayConfig{URL: "ws://127.0.0.1:1/live", Username: "  "})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestBuildRelayURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		want    string
		wantErr bool
	}{
		{"ws", "ws://relay:8081/live", "ws://relay:8081/live?username=explorer", false},
		{"http becomes ws", "http://relay/live", "ws://relay/live?username=explorer", false},
		{"https becomes wss", "https://relay/live", "wss://relay/live?username=explorer", false},
		{"keeps query", "ws://relay/live?lang=en", "ws://relay/live?lang=en&username=explorer", false},
		{"bad scheme", "ftp://relay/live", "", true},
		{"no host", "ws:///live", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildRelayURL(tt.base, "explorer")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRelayClient_DispatchesInOrder(t *testing.T) {
	frames := []string{
		`{"event":"connected","data":{"roomInfo":{"title":"Touring Europe"}}}`,
		`{"event":"chat","data":{"comment":"location: Rome","uniqueId":"ana","profilePictureUrl":"https://cdn/ana.jpg"}}`,
		`{"event":"member","data":{"userId":"42","profilePictureUrl":"https://cdn/42.jpg"}}`,
		`{"event":"member","data":{}}`,
		`{"event":"roomUser","data":{"viewerCount":17}}`,
		`{"event":"streamEnd"}`,
	}
	rs := newRelayServer(t, frames, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
	})

	client, err := NewRelayClient(RelayConfig{URL: rs.URL, Username: "explorer", SessionID: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	sess, err := client.Connect(context.Background(), rec.handlers())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	waitDone(t, sess)

	if !errors.Is(sess.Err(), ErrStreamEnded) {
		t.Errorf("Err() = %v, want ErrStreamEnded", sess.Err())
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	want := []string{EventConnected, EventChat, EventMember, EventMember, EventRoomUser, EventStreamEnd}
	if strings.Join(rec.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
	if rec.title != "Touring Europe" {
		t.Errorf("title = %q", rec.title)
	}
	if got := rec.chats[0]; got.Text != "location: Rome" || got.SenderID != "ana" || got.AvatarURL != "https://cdn/ana.jpg" {
		t.Errorf("chat = %+v", got)
	}
	if got := rec.member[0]; got.SenderID != "42" {
		t.Errorf("member sender = %q, want userId fallback", got.SenderID)
	}
	if got := rec.member[1]; got.SenderID != models.AnonymousUsername {
		t.Errorf("member sender = %q, want %q", got.SenderID, models.AnonymousUsername)
	}
	if rec.views != 17 {
		t.Errorf("viewers = %d", rec.views)
	}

	req := rs.lastRequest()
	if req.URL.Query().Get("username") != "explorer" {
		t.Errorf("username query = %q", req.URL.Query().Get("username"))
	}
	if req.Header.Get(SessionHeader) != "secret" {
		t.Errorf("session header = %q", req.Header.Get(SessionHeader))
	}
}

func TestRelayClient_MalformedFramesIgnored(t *testing.T) {
	before := testutil.ToFloat64(metrics.LiveMalformedFrames)

	frames := []string{
		`not json`,
		`{"data":{}}`,
		`{"event":"chat","data":"oops"}`,
		`{"event":"somethingNew","data":{}}`,
		`{"event":"error","data":{"message":"rate limited"}}`,
		`{"event":"chat","data":{"comment":"still here","uniqueId":"bo"}}`,
		`{"event":"streamEnd"}`,
	}
	rs := newRelayServer(t, frames, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
	})

	client, err := NewRelayClient(RelayConfig{URL: rs.URL, Username: "explorer"})
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	sess, err := client.Connect(context.Background(), rec.handlers())
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, sess)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.chats) != 1 || rec.chats[0].Text != "still here" {
		t.Errorf("chats = %+v", rec.chats)
	}
	if got := testutil.ToFloat64(metrics.LiveMalformedFrames) - before; got != 3 {
		t.Errorf("malformed frames counted = %v, want 3", got)
	}
}

func TestRelayClient_ServerDisconnectEndsSession(t *testing.T) {
	rs := newRelayServer(t, nil, nil)

	client, err := NewRelayClient(RelayConfig{URL: rs.URL, Username: "explorer"})
	if err != nil {
		t.Fatal(err)
	}
	sess, err := client.Connect(context.Background(), Handlers{})
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, sess)

	if sess.Err() == nil {
		t.Error("Err() should describe the read failure")
	}
}

func TestRelaySession_Close(t *testing.T) {
	rs := newRelayServer(t, nil, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
	})

	client, err := NewRelayClient(RelayConfig{URL: rs.URL, Username: "explorer"})
	if err != nil {
		t.Fatal(err)
	}
	sess, err := client.Connect(context.Background(), Handlers{})
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	waitDone(t, sess)
	if sess.Err() != nil {
		t.Errorf("Err() after Close = %v, want nil", sess.Err())
	}
	// Second close is harmless.
	_ = sess.Close()
}

func TestRelayClient_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client, err := NewRelayClient(RelayConfig{URL: srv.URL, Username: "explorer"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Connect(context.Background(), Handlers{}); err == nil {
		t.Fatal("Connect() to a non-websocket endpoint should fail")
	} else if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should carry the HTTP status: %v", err)
	}
}

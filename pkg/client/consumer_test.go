package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamServer is a fake event stream endpoint. It records join
// announcements and exposes the latest connection for pushing events.
type streamServer struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns []*websocket.Conn
	joins []string
}

func newStreamServer(t *testing.T) *streamServer {
	s := &streamServer{t: t}
	s.upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *streamServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	for {
		var frame struct {
			Type   string `json:"type"`
			UserID string `json:"user_id"`
		}
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		if frame.Type == "join" {
			s.mu.Lock()
			s.joins = append(s.joins, frame.UserID)
			s.mu.Unlock()
		}
	}
}

func (s *streamServer) push(t *testing.T, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	s.mu.Lock()
	conn := s.conns[len(s.conns)-1]
	s.mu.Unlock()

	require.NoError(t, conn.WriteJSON(Event{Type: eventType, Payload: raw}))
}

// pushRaw sends a pre-marshaled frame exactly as a server would.
func (s *streamServer) pushRaw(t *testing.T, frame []byte) {
	s.mu.Lock()
	conn := s.conns[len(s.conns)-1]
	s.mu.Unlock()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func (s *streamServer) dropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
}

func (s *streamServer) joinCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.joins)
}

func newTestConsumer(t *testing.T, srv *streamServer, mutate func(*Config)) *Consumer {
	cfg := Config{
		BaseURL:          srv.srv.URL,
		Token:            "test-token",
		UserID:           "user-1",
		ReconnectBackoff: 10 * time.Millisecond,
		ReconnectMax:     50 * time.Millisecond,
		BannerTTL:        time.Minute,
		Logger:           zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestConsumerAnnouncesJoinOnConnect(t *testing.T) {
	srv := newStreamServer(t)
	newTestConsumer(t, srv, nil)

	waitFor(t, func() bool { return srv.joinCount() == 1 })

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, "user-1", srv.joins[0])
}

func TestConsumerReannouncesAfterReconnect(t *testing.T) {
	srv := newStreamServer(t)
	newTestConsumer(t, srv, nil)

	waitFor(t, func() bool { return srv.joinCount() == 1 })

	srv.dropConnections()

	// The redial must carry a fresh join announcement, otherwise the
	// user silently stops receiving events.
	waitFor(t, func() bool { return srv.joinCount() == 2 })
}

func TestNotificationReconciliationIsCommutative(t *testing.T) {
	a := Notification{ID: "n1", Type: "application", Content: "first"}
	b := Notification{ID: "n2", Type: "message", Content: "second"}

	final := func(first, second Notification) Snapshot {
		srv := newStreamServer(t)
		c := newTestConsumer(t, srv, nil)
		waitFor(t, func() bool { return srv.joinCount() == 1 })

		srv.push(t, EventNewNotification, notificationEnvelope{Notification: first})
		srv.push(t, EventNewNotification, notificationEnvelope{Notification: second})
		waitFor(t, func() bool { return c.Snapshot().UnreadNotifications == 2 })
		return c.Snapshot()
	}

	ab := final(a, b)
	ba := final(b, a)

	assert.Equal(t, 2, ab.UnreadNotifications)
	assert.Equal(t, 2, ba.UnreadNotifications)
	assert.ElementsMatch(t, ab.Notifications, ba.Notifications)
}

func TestNewMessageForOpenConversationAppendsAndAcks(t *testing.T) {
	srv := newStreamServer(t)

	var mu sync.Mutex
	var acked []string
	c := newTestConsumer(t, srv, func(cfg *Config) {
		cfg.MarkRead = func(_ context.Context, conversationID string) error {
			mu.Lock()
			defer mu.Unlock()
			acked = append(acked, conversationID)
			return nil
		}
	})
	waitFor(t, func() bool { return srv.joinCount() == 1 })

	c.OpenConversation("conv-1")
	srv.push(t, EventNewMessage, messageEnvelope{
		ConversationID: "conv-1",
		Message:        Message{ID: "m1", ConversationID: "conv-1", Content: "hi"},
	})

	waitFor(t, func() bool { return len(c.Snapshot().Messages) == 1 })

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, acked, 1)
	assert.Equal(t, "conv-1", acked[0])
	assert.False(t, c.Snapshot().ConversationsStale)
}

func TestNewMessageForOtherConversationFlagsListStale(t *testing.T) {
	srv := newStreamServer(t)

	refetched := make(chan struct{}, 1)
	c := newTestConsumer(t, srv, func(cfg *Config) {
		cfg.RefetchConversations = func(context.Context) {
			select {
			case refetched <- struct{}{}:
			default:
			}
		}
	})
	waitFor(t, func() bool { return srv.joinCount() == 1 })

	c.OpenConversation("conv-1")
	srv.push(t, EventNewMessage, messageEnvelope{
		ConversationID: "conv-2",
		Message:        Message{ID: "m1", ConversationID: "conv-2", Content: "hi"},
	})

	select {
	case <-refetched:
	case <-time.After(2 * time.Second):
		t.Fatal("expected conversation list re-fetch")
	}

	snap := c.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.True(t, snap.ConversationsStale)

	c.AckConversationsRefreshed()
	assert.False(t, c.Snapshot().ConversationsStale)
}

func TestApplicationEventsSurfaceBanners(t *testing.T) {
	srv := newStreamServer(t)
	c := newTestConsumer(t, srv, nil)
	waitFor(t, func() bool { return srv.joinCount() == 1 })

	srv.push(t, EventNewApplication, map[string]string{"job_title": "Go Engineer"})
	srv.push(t, EventStatusUpdated, map[string]string{"job_title": "Go Engineer", "status": "Interview"})

	waitFor(t, func() bool { return len(c.Snapshot().Banners) == 2 })

	snap := c.Snapshot()
	assert.Contains(t, snap.Banners[0].Text, "Go Engineer")
	assert.Contains(t, snap.Banners[1].Text, "Interview")
	// Banner events never patch cached lists.
	assert.Empty(t, snap.Notifications)
	assert.False(t, snap.ConversationsStale)
}

func TestBannersExpire(t *testing.T) {
	srv := newStreamServer(t)
	c := newTestConsumer(t, srv, func(cfg *Config) {
		cfg.BannerTTL = 20 * time.Millisecond
	})
	waitFor(t, func() bool { return srv.joinCount() == 1 })

	srv.push(t, EventNewApplication, map[string]string{"job_title": "Go Engineer"})
	waitFor(t, func() bool { return len(c.Snapshot().Banners) == 1 })

	waitFor(t, func() bool { return len(c.Snapshot().Banners) == 0 })
}

func TestCloseStopsReconciliation(t *testing.T) {
	srv := newStreamServer(t)
	c := newTestConsumer(t, srv, nil)
	waitFor(t, func() bool { return srv.joinCount() == 1 })

	require.NoError(t, c.Close())
	joins := srv.joinCount()

	// No redial after teardown.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, joins, srv.joinCount())
	assert.Zero(t, c.Snapshot().UnreadNotifications)
}

func TestCloseWithoutStartReturnsImmediately(t *testing.T) {
	c, err := New(Config{BaseURL: "http://localhost:0", UserID: "user-1"})
	require.NoError(t, err)

	finished := make(chan struct{})
	go func() {
		assert.NoError(t, c.Close())
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Close blocked with no active subscription")
	}
}

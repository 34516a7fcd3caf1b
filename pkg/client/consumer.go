// Package client is the Go consumer SDK for the realtime event stream.
// It keeps one live websocket subscription per authenticated session and
// reconciles incoming events into local view-state. The stream is a hint
// layer only; anything missed while offline is rediscovered over HTTP.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event types mirrored from the server wire format.
const (
	EventNewNotification = "new_notification"
	EventNewApplication  = "new_application"
	EventStatusUpdated   = "application_status_updated"
	EventNewMessage      = "new_message"
	EventMessagesRead    = "messages_read"
	EventUserTyping      = "user_typing"
	EventUserStopTyping  = "user_stop_typing"
)

// Event is one frame off the stream.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Notification is the lightweight copy of a persisted notification
// carried on a new_notification event.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a chat message as carried inside a new_message event.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// The server nests entity payloads inside envelopes; these mirror the
// publisher's wire shapes.
type notificationEnvelope struct {
	Notification Notification `json:"notification"`
}

type messageEnvelope struct {
	ConversationID string  `json:"conversation_id"`
	Message        Message `json:"message"`
}

// Banner is a transient toast surfaced for application activity. The
// owner of the consumer dismisses it after its deadline.
type Banner struct {
	EventType string
	Text      string
	ExpiresAt time.Time
}

type Config struct {
	// BaseURL is the server origin, e.g. https://api.example.com.
	BaseURL string
	// Token is the bearer token of the authenticated session. It is
	// passed as a query parameter because browsers cannot set headers
	// on websocket upgrades and the server accepts both.
	Token string
	// UserID of the authenticated session, announced after every
	// (re)connect.
	UserID string

	// MarkRead is called to acknowledge messages that arrived for the
	// currently open conversation. Optional.
	MarkRead func(ctx context.Context, conversationID string) error
	// RefetchConversations is called when a message arrives for a
	// conversation that is not open, so the owner re-pulls the summary
	// list instead of patching it locally. Optional.
	RefetchConversations func(ctx context.Context)

	// ReconnectBackoff is the initial redial delay, doubled up to
	// ReconnectMax. Defaults: 1s and 30s.
	ReconnectBackoff time.Duration
	ReconnectMax     time.Duration
	// BannerTTL controls auto-dismiss deadlines. Default 5s.
	BannerTTL time.Duration

	Logger zerolog.Logger
	Dialer *websocket.Dialer
}

// Consumer owns the subscription and the reconciled view-state. All
// exported methods are safe for concurrent use.
type Consumer struct {
	cfg    Config
	wsURL  string
	dialer *websocket.Dialer
	log    zerolog.Logger

	mu               sync.Mutex
	notifications    []Notification
	unread           int
	openConversation string
	messages         []Message
	banners          []Banner
	staleConvs       bool
	conn             *websocket.Conn

	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config) (*Consumer, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/api/v1/ws"
	q := u.Query()
	q.Set("token", cfg.Token)
	u.RawQuery = q.Encode()

	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = time.Second
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = 30 * time.Second
	}
	if cfg.BannerTTL <= 0 {
		cfg.BannerTTL = 5 * time.Second
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	return &Consumer{
		cfg:    cfg,
		wsURL:  u.String(),
		dialer: dialer,
		log:    cfg.Logger,
		done:   make(chan struct{}),
	}, nil
}

// Start connects and keeps the subscription alive until ctx is
// cancelled or Close is called. It returns after the first dial attempt
// resolves; reconnection continues in the background.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		cancel()
		close(c.done)
		return err
	}

	go c.run(ctx, conn)
	return nil
}

// Close tears the subscription down. No events are reconciled after
// Close returns.
func (c *Consumer) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.mu.Unlock()

	if cancel == nil {
		// Start was never called; nothing to tear down.
		return nil
	}

	cancel()
	if conn != nil {
		conn.Close()
	}
	<-c.done
	return nil
}

func (c *Consumer) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.wsURL, http.Header{})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	// Announce identity. Join state does not survive a reconnect, so
	// this runs after every successful dial.
	join := map[string]string{"type": "join", "user_id": c.cfg.UserID}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join announce failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	return conn, nil
}

func (c *Consumer) run(ctx context.Context, conn *websocket.Conn) {
	defer close(c.done)

	backoff := c.cfg.ReconnectBackoff
	for {
		c.readLoop(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}

		// The transport dropped. Redial with capped exponential
		// backoff, re-announcing identity each time.
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}

			next, err := c.dial(ctx)
			if err != nil {
				c.log.Warn().Err(err).Dur("backoff", backoff).Msg("reconnect failed")
				if backoff *= 2; backoff > c.cfg.ReconnectMax {
					backoff = c.cfg.ReconnectMax
				}
				continue
			}
			conn = next
			backoff = c.cfg.ReconnectBackoff
			break
		}
	}
}

func (c *Consumer) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		c.reconcile(ctx, ev)
	}
}

// reconcile folds one event into local state. Each handler is
// commutative, so the final state does not depend on the order in which
// concurrent events arrive.
func (c *Consumer) reconcile(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventNewNotification:
		var env notificationEnvelope
		if err := json.Unmarshal(ev.Payload, &env); err != nil {
			return
		}
		c.mu.Lock()
		c.notifications = append([]Notification{env.Notification}, c.notifications...)
		c.unread++
		c.mu.Unlock()

	case EventNewMessage:
		var env messageEnvelope
		if err := json.Unmarshal(ev.Payload, &env); err != nil {
			return
		}
		m := env.Message
		if m.ConversationID == "" {
			m.ConversationID = env.ConversationID
		}
		c.mu.Lock()
		open := c.openConversation == m.ConversationID && m.ConversationID != ""
		if open {
			c.messages = append(c.messages, m)
		} else {
			c.staleConvs = true
		}
		c.mu.Unlock()

		if open && c.cfg.MarkRead != nil {
			if err := c.cfg.MarkRead(ctx, m.ConversationID); err != nil {
				c.log.Warn().Err(err).Str("conversation_id", m.ConversationID).Msg("read receipt failed")
			}
		}
		if !open && c.cfg.RefetchConversations != nil {
			c.cfg.RefetchConversations(ctx)
		}

	case EventNewApplication, EventStatusUpdated:
		c.mu.Lock()
		c.banners = append(c.banners, Banner{
			EventType: ev.Type,
			Text:      bannerText(ev),
			ExpiresAt: time.Now().Add(c.cfg.BannerTTL),
		})
		c.mu.Unlock()

	case EventMessagesRead, EventUserTyping, EventUserStopTyping:
		// Presence and read receipts carry no durable state here;
		// they are surfaced to the UI layer via Snapshot polling of
		// the open conversation.
	}
}

func bannerText(ev Event) string {
	var p struct {
		JobTitle string `json:"job_title"`
		Status   string `json:"status"`
	}
	_ = json.Unmarshal(ev.Payload, &p)
	switch ev.Type {
	case EventNewApplication:
		return fmt.Sprintf("New application for %s", p.JobTitle)
	case EventStatusUpdated:
		return fmt.Sprintf("Application for %s is now %s", p.JobTitle, p.Status)
	}
	return ""
}

// OpenConversation marks a conversation as the one currently on screen.
// Messages for it append locally and trigger read receipts; messages
// for any other conversation only flag the list stale.
func (c *Consumer) OpenConversation(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openConversation != id {
		c.messages = nil
	}
	c.openConversation = id
}

// CloseConversation clears the open conversation.
func (c *Consumer) CloseConversation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openConversation = ""
	c.messages = nil
}

// Snapshot is a point-in-time copy of the reconciled state.
type Snapshot struct {
	Notifications       []Notification
	UnreadNotifications int
	Messages            []Message
	Banners             []Banner
	ConversationsStale  bool
}

func (c *Consumer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	live := make([]Banner, 0, len(c.banners))
	for _, b := range c.banners {
		if b.ExpiresAt.After(now) {
			live = append(live, b)
		}
	}
	c.banners = live

	return Snapshot{
		Notifications:       append([]Notification(nil), c.notifications...),
		UnreadNotifications: c.unread,
		Messages:            append([]Message(nil), c.messages...),
		Banners:             append([]Banner(nil), live...),
		ConversationsStale:  c.staleConvs,
	}
}

// AckConversationsRefreshed clears the stale flag after the owner has
// re-fetched the conversation list.
func (c *Consumer) AckConversationsRefreshed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staleConvs = false
}

// Package ws is the websocket transport for the realtime layer. Each
// connection becomes one registry session; inbound frames carry only
// client intents (typing indicators), everything else flows outward.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hireloop/jobboard-api/internal/middleware"
	"github.com/hireloop/jobboard-api/internal/realtime"
	"github.com/hireloop/jobboard-api/internal/service/chat"
	"github.com/hireloop/jobboard-api/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxInboundSize = 4 << 10
)

// clientFrame is what a connected client may send us.
type clientFrame struct {
	Type           string    `json:"type"`
	ConversationID uuid.UUID `json:"conversation_id,omitempty"`
}

type Handler struct {
	registry *realtime.Registry
	chatSvc  chat.Service
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

func NewHandler(registry *realtime.Registry, chatSvc chat.Service, allowedOrigins []string, log *logger.Logger) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Handler{
		registry: registry,
		chatSvc:  chatSvc,
		logger:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowed["*"] {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ws", h.Serve)
}

// Serve upgrades the connection and joins the caller's user id. The
// session lives until the socket closes, then leaves the registry.
func (h *Handler) Serve(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error(err, "websocket upgrade failed", "user_id", userID.String())
		return
	}

	connID := uuid.New().String()
	events, err := h.registry.Join(connID, userID)
	if err != nil {
		h.logger.Error(err, "failed to join session registry", "user_id", userID.String())
		conn.Close()
		return
	}

	h.logger.Info("websocket session opened",
		"conn_id", connID, "user_id", userID.String())

	go h.writePump(conn, connID, events)
	h.readPump(conn, connID, userID)
}

// readPump consumes client frames until the socket dies, then removes
// the session. Typing intents are forwarded through the chat service so
// they only reach the conversation's participants.
func (h *Handler) readPump(conn *websocket.Conn, connID string, userID uuid.UUID) {
	defer func() {
		h.registry.Leave(connID)
		conn.Close()
		h.logger.Info("websocket session closed",
			"conn_id", connID, "user_id", userID.String())
	}()

	conn.SetReadLimit(maxInboundSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", "conn_id", connID, "error", err.Error())
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}

		ctx := context.Background()
		switch frame.Type {
		case "typing":
			h.chatSvc.Typing(ctx, userID, frame.ConversationID, false)
		case "stop_typing":
			h.chatSvc.Typing(ctx, userID, frame.ConversationID, true)
		case "join":
			// Identity is already bound by the authenticated upgrade;
			// the announce is accepted for client compatibility.
		}
	}
}

// writePump drains the session's event channel onto the socket and
// keeps the connection alive with pings. It exits when the registry
// closes the channel or a write fails.
func (h *Handler) writePump(conn *websocket.Conn, connID string, events <-chan realtime.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case ev, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

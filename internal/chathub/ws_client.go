package chathub

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"babelbye/backend/internal/config"
	"babelbye/backend/internal/models"

	"github.com/gorilla/websocket"
)

// FrameHandler processes one inbound text frame from a session.
type FrameHandler interface {
	HandleFrame(ctx context.Context, from string, raw []byte) error
}

// Presence mirrors session liveness somewhere other processes can see it.
type Presence interface {
	MarkOnline(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
}

// WebSocketClient implements Client over a gorilla/websocket connection.
type WebSocketClient struct {
	UserID   string
	Conn     *websocket.Conn
	Handler  FrameHandler
	Registry *Registry
	Presence Presence
	Log      *slog.Logger

	send     chan models.ServerEvent
	mu       sync.Mutex
	closed   bool
	teardown sync.Once
}

func NewWebSocketClient(userID string, conn *websocket.Conn, handler FrameHandler, registry *Registry,
	presence Presence, log *slog.Logger, buffer int) *WebSocketClient {
	if buffer <= 0 {
		buffer = config.DefaultOutboundBuffer
	}
	return &WebSocketClient{
		UserID:   userID,
		Conn:     conn,
		Handler:  handler,
		Registry: registry,
		Presence: presence,
		Log:      log.With("user_id", userID),
		send:     make(chan models.ServerEvent, buffer),
	}
}

func (c *WebSocketClient) GetUserID() string { return c.UserID }

func (c *WebSocketClient) Deliver(evt models.ServerEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- evt:
		return true
	default:
		c.Log.Warn("outbound queue full, dropping event")
		return false
	}
}

func (c *WebSocketClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *WebSocketClient) Run() {
	c.Registry.Attach(c, func() {
		if c.Presence == nil {
			return
		}
		if err := c.Presence.MarkOnline(context.Background(), c.UserID); err != nil {
			c.Log.Warn("failed to mark online", "error", err)
		}
	})
	c.Log.Info("session opened")

	go c.writePump()
	go c.readPump()
}

// shutdown runs once per session, whichever pump exits first.
func (c *WebSocketClient) shutdown() {
	c.teardown.Do(func() {
		// A replacement session owns the presence entry, so only the
		// registered session marks the user offline.
		c.Registry.Detach(c, func() {
			if c.Presence == nil {
				return
			}
			if err := c.Presence.MarkOffline(context.Background(), c.UserID); err != nil {
				c.Log.Warn("failed to mark offline", "error", err)
			}
		})
		c.Close()
		_ = c.Conn.Close()
		c.Log.Info("session closed")
	})
}

func (c *WebSocketClient) readPump() {
	defer c.shutdown()

	c.Conn.SetReadLimit(config.MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	})

	// Not tied to the connection: an event being processed finishes even if
	// the session drops meanwhile.
	ctx := context.Background()

	for {
		msgType, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Log.Warn("read failed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		if err := c.Handler.HandleFrame(ctx, c.UserID, raw); err != nil {
			switch {
			case errors.Is(err, models.ErrMalformedEvent):
				c.Log.Debug("dropping malformed frame", "error", err)
			case errors.Is(err, ErrNotConnected):
				c.Log.Info("send rejected", "error", err)
			default:
				c.Log.Debug("event not processed", "error", err)
			}
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			frame, err := models.EncodeServerEvent(evt)
			if err != nil {
				c.Log.Error("failed to encode event", "error", err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.Log.Debug("write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

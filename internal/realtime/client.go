package realtime

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 256
)

// Client message types.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeSubscribed  = "subscribed"
	TypePing        = "ping"
	TypePong        = "pong"
	TypeError       = "error"
)

var clientIDCounter atomic.Uint64

// Client is one authenticated WebSocket connection.
type Client struct {
	id     uint64
	userID uuid.UUID
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message

	// guarded by hub.mu
	channels map[string]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		id:       clientIDCounter.Add(1),
		userID:   userID,
		hub:      hub,
		conn:     conn,
		send:     make(chan Message, sendBuffer),
		channels: make(map[string]struct{}),
	}
}

// ID returns the client's connection number.
func (c *Client) ID() uint64 {
	return c.id
}

// UserID returns the authenticated user behind the connection.
func (c *Client) UserID() uuid.UUID {
	return c.userID
}

// trySend queues msg unless the client has been removed or its buffer is full.
func (c *Client) trySend(msg Message) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()

	if _, live := c.hub.clients[c]; !live {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// handle answers one inbound client frame.
func (c *Client) handle(ctx context.Context, in Message) {
	switch in.Type {
	case TypePing:
		c.trySend(Message{Type: TypePong})
	case TypeSubscribe:
		if err := c.hub.Subscribe(ctx, c, in.Channel); err != nil {
			if !errors.Is(err, ErrForbidden) && !errors.Is(err, ErrInvalidChannel) {
				c.hub.logger.Error("subscription failed",
					"error", err,
					"client_id", c.id,
					"channel", in.Channel)
			}
			c.trySend(Message{Type: TypeError, Channel: in.Channel, Error: err.Error()})
			return
		}
		c.trySend(Message{Type: TypeSubscribed, Channel: in.Channel})
	case TypeUnsubscribe:
		c.hub.Unsubscribe(c, in.Channel)
	default:
		c.trySend(Message{Type: TypeError, Error: "unknown message type"})
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("unexpected websocket close", "error", err, "client_id", c.id)
			}
			return
		}

		var in Message
		if err := json.Unmarshal(data, &in); err != nil {
			c.trySend(Message{Type: TypeError, Error: "malformed message"})
			continue
		}
		c.handle(ctx, in)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				c.hub.logger.Error("failed to encode websocket message", "error", err, "type", msg.Type)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

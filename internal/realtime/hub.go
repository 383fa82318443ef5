package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/metrics"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
)

// Hub errors
var (
	ErrHubClosed   = errors.New("realtime hub is not running")
	ErrBacklogFull = errors.New("realtime broadcast backlog full")
	ErrForbidden   = errors.New("not allowed to join channel")
)

const broadcastBacklog = 256

// Emitter is the fire-and-forget push interface used by the pipeline.
type Emitter interface {
	Emit(ctx context.Context, channel, event string, payload any) error
}

// MembershipChecker answers project membership questions for channel
// subscriptions. store.ProjectStore satisfies it.
type MembershipChecker interface {
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
}

// Message is the frame exchanged with clients.
type Message struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type envelope struct {
	channel string
	msg     Message
}

// Hub maintains connected clients and their channel memberships.
type Hub struct {
	members        MembershipChecker
	logger         *slog.Logger
	allowedOrigins []string

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	broadcast chan envelope
	running   atomic.Bool
}

// Ensure Hub implements Emitter
var _ Emitter = (*Hub)(nil)

// NewHub creates a Hub. allowedOrigins lists the browser origins allowed to
// open connections; "*" allows any. With an empty list only same-host
// origins are accepted.
func NewHub(members MembershipChecker, logger *slog.Logger, allowedOrigins []string) *Hub {
	if members == nil {
		panic("members cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		members:        members,
		logger:         logger.With("component", "realtime_hub"),
		allowedOrigins: allowedOrigins,
		clients:        make(map[*Client]struct{}),
		rooms:          make(map[string]map[*Client]struct{}),
		broadcast:      make(chan envelope, broadcastBacklog),
	}
}

// Serve runs the broadcast loop until ctx is done, then disconnects every
// client. It implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	h.running.Store(true)
	defer h.running.Store(false)

	h.logger.Info("realtime hub started")
	for {
		select {
		case <-ctx.Done():
			n := h.closeAll()
			h.logger.Info("realtime hub stopped", "clients_closed", n)
			return ctx.Err()
		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

// String names the service in supervisor logs.
func (h *Hub) String() string {
	return "realtime-hub"
}

// Emit queues event for every client subscribed to channel. It does not
// wait for delivery; a full backlog drops the event.
func (h *Hub) Emit(ctx context.Context, channel, event string, payload any) error {
	if _, _, err := parseChannel(channel); err != nil {
		return err
	}
	if !h.running.Load() {
		metrics.RecordRealtimePush(ErrHubClosed)
		return ErrHubClosed
	}

	select {
	case h.broadcast <- envelope{channel: channel, msg: Message{Type: event, Channel: channel, Data: payload}}:
		metrics.RecordRealtimePush(nil)
		return nil
	default:
		logger.FromContextOrDefault(ctx, h.logger).Warn("broadcast backlog full, dropping event",
			"channel", channel,
			"event", event)
		metrics.RealtimePushes.WithLabelValues(metrics.ResultDropped).Inc()
		return ErrBacklogFull
	}
}

// Register adds c to the hub and joins it to its user channel.
func (h *Hub) Register(c *Client) error {
	if !h.running.Load() {
		return ErrHubClosed
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.joinLocked(c, UserChannel(c.userID))
	total := len(h.clients)
	h.mu.Unlock()

	metrics.RealtimeConnections.Inc()
	h.logger.Debug("websocket client connected",
		"client_id", c.id,
		"user_id", c.userID.String(),
		"total_clients", total)
	return nil
}

// Unregister removes c from the hub. It is safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	removed := h.removeLocked(c)
	h.mu.Unlock()

	if removed {
		h.logger.Debug("websocket client disconnected", "client_id", c.id)
	}
}

// Subscribe joins c to channel. Clients may join their own user channel and
// the channels of projects they are members of.
func (h *Hub) Subscribe(ctx context.Context, c *Client, channel string) error {
	prefix, id, err := parseChannel(channel)
	if err != nil {
		return err
	}

	switch prefix {
	case userPrefix:
		if id != c.userID {
			return ErrForbidden
		}
	case projectPrefix:
		ok, err := h.members.IsMember(ctx, id, c.userID)
		if err != nil {
			return fmt.Errorf("check project membership: %w", err)
		}
		if !ok {
			return ErrForbidden
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, live := h.clients[c]; !live {
		return ErrHubClosed
	}
	h.joinLocked(c, channel)
	return nil
}

// Unsubscribe removes c from channel.
func (h *Hub) Unsubscribe(c *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, channel)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Subscribers returns the number of clients in channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channel])
}

// ServeWS upgrades the request and serves the connection for userID until
// it closes. Callers authenticate the request first.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(h, conn, userID)
	if err := h.Register(c); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go c.writePump()
	c.readPump(r.Context())
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	h.logger.Warn("websocket connection rejected from unauthorized origin", "origin", origin)
	return false
}

// deliver sends env to the channel's clients in client ID order. Clients
// whose buffers are full are disconnected.
func (h *Hub) deliver(env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[env.channel]
	if len(room) == 0 {
		return
	}
	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var slow []*Client
	for _, c := range clients {
		select {
		case c.send <- env.msg:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		h.logger.Warn("disconnecting slow websocket client", "client_id", c.id)
		h.removeLocked(c)
	}
}

func (h *Hub) closeAll() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.clients)
	for c := range h.clients {
		h.removeLocked(c)
	}
	return n
}

func (h *Hub) joinLocked(c *Client, channel string) {
	room, ok := h.rooms[channel]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[channel] = room
	}
	room[c] = struct{}{}
	c.channels[channel] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, channel string) {
	if room, ok := h.rooms[channel]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, channel)
		}
	}
	delete(c.channels, channel)
}

func (h *Hub) removeLocked(c *Client) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	for channel := range c.channels {
		h.leaveLocked(c, channel)
	}
	delete(h.clients, c)
	close(c.send)
	metrics.RealtimeConnections.Dec()
	return true
}

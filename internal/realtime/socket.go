package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"shoplist-service/internal/auth"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Close reasons sent before dropping an unauthenticated socket.
const (
	CloseReasonMissingToken = "missing token"
	CloseReasonInvalidToken = "invalid token"
)

// Control message types sent by socket clients.
const (
	ControlSubscribe   = "subscribe"
	ControlUnsubscribe = "unsubscribe"
)

const maxControlMessageSize = 512

type SocketConfig struct {
	SendBufferSize int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	CheckOrigin    func(r *http.Request) bool
}

func (c SocketConfig) withDefaults() SocketConfig {
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = (c.PongWait * 9) / 10
	}
	return c
}

// ControlMessage is a client-to-server socket frame.
type ControlMessage struct {
	Type   string `json:"type"`
	ListID uint   `json:"listId"`
}

// socketChannel is one websocket connection. It may be subscribed to several
// lists at once; the registry holds it under each of them.
type socketChannel struct {
	id     string
	userID uint
	conn   *websocket.Conn
	queue  *sendQueue

	mu    sync.Mutex
	lists map[uint]struct{}
}

func (c *socketChannel) ID() string                 { return c.id }
func (c *socketChannel) Write(payload []byte) error { return c.queue.push(payload) }
func (c *socketChannel) Closed() bool               { return c.queue.isClosed() }
func (c *socketChannel) Done() <-chan struct{}      { return c.queue.done }

func (c *socketChannel) Close() error {
	c.queue.close()
	return nil
}

func (c *socketChannel) addList(listID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[listID] = struct{}{}
}

func (c *socketChannel) removeList(listID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lists, listID)
}

func (c *socketChannel) subscribedLists() []uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint, 0, len(c.lists))
	for id := range c.lists {
		out = append(out, id)
	}
	return out
}

// SocketTransport accepts persistent websocket connections, tracks them per
// user and registers them for lists on subscribe/unsubscribe control messages.
type SocketTransport struct {
	registry *Registry
	auth     auth.Authenticator
	access   AccessChecker
	upgrader websocket.Upgrader
	cfg      SocketConfig
	logger   *slog.Logger

	mu    sync.RWMutex
	users map[uint]map[string]*socketChannel
}

func NewSocketTransport(registry *Registry, authenticator auth.Authenticator, access AccessChecker, cfg SocketConfig, logger *slog.Logger) *SocketTransport {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &SocketTransport{
		registry: registry,
		auth:     authenticator,
		access:   access,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
		cfg:    cfg,
		logger: logger,
		users:  make(map[uint]map[string]*socketChannel),
	}
}

// Serve upgrades the request. The credential travels in the token query
// parameter; failures close the socket with a reason telling a missing token
// apart from an invalid one.
func (t *SocketTransport) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	token := auth.TokenFromRequest(r)
	if token == "" {
		t.reject(conn, CloseReasonMissingToken)
		return
	}
	userID, err := t.auth.Authenticate(r.Context(), token)
	if err != nil {
		t.reject(conn, CloseReasonInvalidToken)
		return
	}

	ch := &socketChannel{
		id:     uuid.New().String(),
		userID: userID,
		conn:   conn,
		queue:  newSendQueue(t.cfg.SendBufferSize),
		lists:  make(map[uint]struct{}),
	}
	t.addUserChannel(ch)

	if hello, err := json.Marshal(NewUserConnected(userID)); err == nil {
		_ = ch.Write(hello)
	}

	t.logger.Info("WebSocket connection established", "channelID", ch.id, "userID", userID)

	go t.writePump(ch)
	go t.readPump(ch)
}

func (t *SocketTransport) reject(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(t.cfg.WriteWait))
	_ = conn.Close()
	t.logger.Info("WebSocket connection rejected", "reason", reason)
}

func (t *SocketTransport) readPump(ch *socketChannel) {
	defer t.disconnect(ch)

	ch.conn.SetReadLimit(maxControlMessageSize)
	_ = ch.conn.SetReadDeadline(time.Now().Add(t.cfg.PongWait))
	ch.conn.SetPongHandler(func(string) error {
		return ch.conn.SetReadDeadline(time.Now().Add(t.cfg.PongWait))
	})

	for {
		_, data, err := ch.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				t.logger.Warn("WebSocket read error", "channelID", ch.id, "userID", ch.userID, "error", err)
			}
			return
		}

		var msg ControlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.logger.Debug("Invalid control message", "channelID", ch.id, "error", err)
			t.sendError(ch, "invalid message format")
			continue
		}
		t.handleControl(ch, msg)
	}
}

func (t *SocketTransport) handleControl(ch *socketChannel, msg ControlMessage) {
	switch msg.Type {
	case ControlSubscribe:
		if msg.ListID == 0 {
			t.sendError(ch, "listId is required")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		allowed, err := t.access.CanView(ctx, ch.userID, msg.ListID)
		cancel()
		if err != nil {
			t.logger.Error("Failed to check list access", "userID", ch.userID, "listID", msg.ListID, "error", err)
			t.sendError(ch, "subscription failed")
			return
		}
		if !allowed {
			t.sendError(ch, "no access to this list")
			return
		}
		if ch.Closed() {
			return
		}
		ch.addList(msg.ListID)
		t.registry.Register(msg.ListID, ch)
		t.logger.Debug("Socket subscribed", "channelID", ch.id, "listID", msg.ListID)

	case ControlUnsubscribe:
		ch.removeList(msg.ListID)
		t.registry.Unregister(msg.ListID, ch)
		t.logger.Debug("Socket unsubscribed", "channelID", ch.id, "listID", msg.ListID)

	default:
		t.sendError(ch, "unknown message type")
	}
}

func (t *SocketTransport) sendError(ch *socketChannel, message string) {
	if data, err := json.Marshal(NewError(message)); err == nil {
		_ = ch.Write(data)
	}
}

// writePump is the only goroutine writing to the connection. Each event is a
// separate text frame.
func (t *SocketTransport) writePump(ch *socketChannel) {
	ticker := time.NewTicker(t.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = ch.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteWait))
		_ = ch.conn.WriteMessage(websocket.CloseMessage, []byte{})
		_ = ch.conn.Close()
	}()

	for {
		select {
		case <-ch.Done():
			return

		case payload := <-ch.queue.ch:
			_ = ch.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteWait))
			if err := ch.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				t.logger.Debug("WebSocket write error", "channelID", ch.id, "error", err)
				_ = ch.Close()
				return
			}

		case <-ticker.C:
			_ = ch.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteWait))
			if err := ch.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				t.logger.Debug("WebSocket ping error", "channelID", ch.id, "error", err)
				_ = ch.Close()
				return
			}
		}
	}
}

// disconnect removes the channel from every list it joined and from the
// per-user set, dropping the user entry when it empties.
func (t *SocketTransport) disconnect(ch *socketChannel) {
	_ = ch.Close()
	_ = ch.conn.Close()

	for _, listID := range ch.subscribedLists() {
		t.registry.Unregister(listID, ch)
		ch.removeList(listID)
	}
	t.removeUserChannel(ch)

	t.logger.Info("WebSocket connection closed", "channelID", ch.id, "userID", ch.userID)
}

func (t *SocketTransport) addUserChannel(ch *socketChannel) {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.users[ch.userID]
	if !ok {
		set = make(map[string]*socketChannel)
		t.users[ch.userID] = set
	}
	set[ch.id] = ch
}

func (t *SocketTransport) removeUserChannel(ch *socketChannel) {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.users[ch.userID]
	if !ok {
		return
	}
	delete(set, ch.id)
	if len(set) == 0 {
		delete(t.users, ch.userID)
	}
}

// UserChannelCount returns how many sockets the user currently has open.
func (t *SocketTransport) UserChannelCount(userID uint) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.users[userID])
}

// ConnectedUsers returns the number of users with at least one open socket.
func (t *SocketTransport) ConnectedUsers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.users)
}

// CloseAll closes every open socket; used on shutdown.
func (t *SocketTransport) CloseAll() {
	t.mu.RLock()
	var all []*socketChannel
	for _, set := range t.users {
		for _, ch := range set {
			all = append(all, ch)
		}
	}
	t.mu.RUnlock()

	for _, ch := range all {
		_ = ch.Close()
	}
}

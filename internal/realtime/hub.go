package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/logging"
	"grindhouse/scoreboard/internal/metrics"
	"grindhouse/scoreboard/internal/models/dtos"
	"grindhouse/scoreboard/internal/presence"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrHubClosed = errors.New("hub closed")

// Hub owns the live websocket connections and implements Emitter for the Router.
type Hub struct {
	registry  *presence.Registry
	router    *Router
	metrics   *metrics.MetricsRegistry
	opTimeout time.Duration

	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
}

var _ Emitter = (*Hub)(nil)

func NewHub(registry *presence.Registry, metricsReg *metrics.MetricsRegistry, opTimeout time.Duration) *Hub {
	h := &Hub{
		registry:  registry,
		metrics:   metricsReg,
		opTimeout: opTimeout,
		clients:   make(map[string]*Client),
	}
	h.router = NewRouter(registry, h, metricsReg)
	return h
}

// Router returns the broadcast router backed by this hub.
func (h *Hub) Router() *Router { return h.router }

// Attach registers an upgraded connection and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn) (*Client, error) {
	c := &Client{
		hub:  h,
		conn: conn,
		id:   uuid.NewString(),
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	h.registry.Connect(c.id)
	h.metrics.WSConnections.Inc()
	logging.Info("WebSocket connected", "conn_id", c.id, "remote", conn.RemoteAddr().String())

	h.router.SendTo(c.id, constants.EventConnected, dtos.ConnectedAck{ConnID: c.id})

	go c.writePump()
	go c.readPump()
	return c, nil
}

// Emit queues a frame for one connection without blocking.
func (h *Hub) Emit(connID string, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	if !c.trySend(frame) {
		logging.Warn("Dropping frame for slow connection", "conn_id", connID)
		return false
	}
	return true
}

// detach forgets a connection and tells its room it left. Runs once per client.
func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	h.mu.Unlock()

	h.metrics.WSConnections.Dec()
	if prev, ok := h.registry.Disconnect(c.id); ok {
		h.router.Publish(prev.RoomID, constants.EventMemberLeft, memberEvent(prev))
	}
	logging.Info("WebSocket disconnected", "conn_id", c.id)
}

// Shutdown closes every connection. Pumps unwind and detach on their own.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for _, c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second),
		)
		conn.Close()
	}
}

// ConnectionCount returns the number of attached connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func memberEvent(b presence.Binding) dtos.MemberPresenceEvent {
	return dtos.MemberPresenceEvent{
		RoomID:   b.RoomID,
		UserID:   b.UserID,
		UserName: b.UserName,
		ConnID:   b.ConnID,
	}
}

func (h *Hub) sendError(connID string, err error) {
	var appErr *common.AppError
	if !errors.As(err, &appErr) {
		appErr = common.NewInternal("Internal server error", err)
	}
	if appErr.Kind == common.KindInternal {
		logging.Error("WebSocket operation failed", "conn_id", connID, "error", err.Error())
	}
	h.router.SendTo(connID, constants.EventError, dtos.ErrorAck{
		Kind:    string(appErr.Kind),
		Message: appErr.Message,
	})
}

// handleMessage dispatches one inbound frame from c.
func (h *Hub) handleMessage(c *Client, raw []byte) {
	var msg dtos.WSInboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(c.id, common.NewInvalidInput(constants.MsgInvalidRequestBody))
		return
	}

	switch msg.Type {
	case constants.InboundJoinRoom:
		h.joinRoom(c, msg.Data)
	case constants.InboundLeaveRoom:
		h.leaveRoom(c)
	case constants.InboundGetRoomStatus:
		h.roomStatus(c, msg.Data)
	default:
		h.sendError(c.id, common.NewInvalidInput(constants.MsgUnknownMessage))
	}
}

func (h *Hub) joinRoom(c *Client, data dtos.WSInboundFields) {
	ctx, cancel := context.WithTimeout(context.Background(), h.opTimeout)
	defer cancel()

	b, prev, err := h.registry.Join(ctx, c.id, data.UserID, data.RoomID)
	if err != nil {
		h.sendError(c.id, err)
		return
	}

	if prev != nil && prev.RoomID != b.RoomID {
		h.router.Publish(prev.RoomID, constants.EventMemberLeft, memberEvent(*prev))
	}

	logging.Info("Connection joined room", "conn_id", c.id, "room_id", b.RoomID, "user_id", b.UserID)
	h.router.SendTo(c.id, constants.EventRoomJoined, h.router.RoomStatus(b.RoomID))
	h.router.PublishExcept(b.RoomID, constants.EventMemberJoined, memberEvent(b), c.id)
}

func (h *Hub) leaveRoom(c *Client) {
	prev, ok := h.registry.Leave(c.id)
	if !ok {
		h.sendError(c.id, common.NewConflict(constants.MsgNotInRoom))
		return
	}

	h.router.SendTo(c.id, constants.EventRoomLeft, dtos.MemberPresenceEvent{RoomID: prev.RoomID, UserID: prev.UserID})
	h.router.Publish(prev.RoomID, constants.EventMemberLeft, memberEvent(prev))
}

// roomStatus answers only the requesting connection. Without an explicit room id
// it reports the room the connection joined.
func (h *Hub) roomStatus(c *Client, data dtos.WSInboundFields) {
	roomID := data.RoomID
	if roomID == "" {
		b, ok := h.registry.Binding(c.id)
		if !ok {
			h.sendError(c.id, common.NewConflict(constants.MsgNotInRoom))
			return
		}
		roomID = b.RoomID
	}
	h.router.SendTo(c.id, constants.EventRoomStatus, h.router.RoomStatus(roomID))
}

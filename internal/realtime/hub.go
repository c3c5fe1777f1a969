package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains room -> set of connections and pushes recording status
// events to subscribed clients. This is the delivery path for the backend's
// asynchronous "recording status changed" signal: clients wait on a push,
// they never poll.
type Hub struct {
	rooms  map[string]map[string]*Client
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]*Client),
		logger: logger,
	}
}

// Register adds a client to a room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.Room] == nil {
		h.rooms[c.Room] = make(map[string]*Client)
	}
	h.rooms[c.Room][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client subscribed", zap.String("client_id", c.ID), zap.String("room", c.Room))
}

// Unregister removes a client from a room.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.Room]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.Room)
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client unsubscribed", zap.String("client_id", c.ID), zap.String("room", c.Room))
}

// Broadcast sends an event to all clients subscribed to a room.
func (h *Hub) Broadcast(room, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[room]))
	for _, c := range h.rooms[room] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// SubscriberCount returns the number of connected clients for a room.
func (h *Hub) SubscriberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

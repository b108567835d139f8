package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message represents a real-time sync notification delivered to a
// workspace's connected clients, typically the partner's devices.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub maintains the active WebSocket clients grouped per workspace and
// broadcasts messages only within the workspace that changed.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[int64]map[*Client]struct{}
	logger *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client to its workspace's room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.workspaceID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.workspaceID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel. Empty rooms
// are dropped.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.workspaceID]; ok {
		if _, member := room[c]; member {
			delete(room, c)
			close(c.send)
		}
		if len(room) == 0 {
			delete(h.rooms, c.workspaceID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends a message to every client connected to the workspace.
func (h *Hub) Broadcast(workspaceID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[workspaceID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of clients connected to a workspace.
func (h *Hub) ClientCount(workspaceID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[workspaceID])
}

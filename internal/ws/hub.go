package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trip-service/internal/observability"
)

// GroupFeedEvent is the envelope pushed to group feed subscribers whenever
// something in the group changes.
type GroupFeedEvent struct {
	Type    string `json:"type"`
	GroupID int64  `json:"group_id"`
	Payload any    `json:"payload,omitempty"`
}

// ConnInfo carries per-connection identity for logging and metrics.
type ConnInfo struct {
	ConnID      string
	UserID      int64
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// groupClient pairs a connection's identity with the mutex that serializes
// writes to it; gorilla connections allow only one concurrent writer.
type groupClient struct {
	info    ConnInfo
	writeMu sync.Mutex
}

// Hub maintains active websocket group rooms.
type Hub struct {
	groupRooms map[int64]map[*websocket.Conn]*groupClient
	mu         sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		groupRooms: make(map[int64]map[*websocket.Conn]*groupClient),
	}
}

// AddGroupClient registers a websocket connection to a group room.
func (h *Hub) AddGroupClient(groupID int64, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.groupRooms[groupID]; !ok {
		h.groupRooms[groupID] = make(map[*websocket.Conn]*groupClient)
	}
	h.groupRooms[groupID][conn] = &groupClient{info: info}
}

// RemoveGroupClient removes a group websocket connection.
func (h *Hub) RemoveGroupClient(groupID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.groupRooms[groupID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.groupRooms, groupID)
		}
	}
}

// BroadcastGroupEvent sends an event to all clients subscribed to a group.
func (h *Hub) BroadcastGroupEvent(groupID int64, eventType string, payload any) {
	h.mu.RLock()
	clients := make(map[*websocket.Conn]*groupClient, len(h.groupRooms[groupID]))
	for conn, client := range h.groupRooms[groupID] {
		clients[conn] = client
	}
	h.mu.RUnlock()

	event := GroupFeedEvent{Type: eventType, GroupID: groupID, Payload: payload}
	body, _ := json.Marshal(event)
	for conn, client := range clients {
		client.writeMu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, body)
		client.writeMu.Unlock()
		if err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveGroupClient(groupID, conn)
			observability.IncWSEvent("ws_error")
		}
	}
	observability.IncWSEvent(eventType)
}

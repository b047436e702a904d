// Package broadcaster fans out live ingest status updates to WebSocket
// clients watching a specific teaching event.
package broadcaster

import (
	"sync"

	ws "github.com/saveblush/gofiber3-contrib/websocket"

	"teachings-archive/internal/ingestcache"
)

// Hub tracks WebSocket clients grouped by the event they're watching and
// pushes ingestcache.Status snapshots to them as the ingest pipeline reports
// progress.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*ws.Conn]bool // eventID -> set of conns
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{clients: make(map[string]map[*ws.Conn]bool)}
}

// AddClient registers conn as a watcher of eventID and sends it the
// current cached status, if any.
func (h *Hub) AddClient(eventID string, conn *ws.Conn, cache *ingestcache.Cache) {
	h.mu.Lock()
	if h.clients[eventID] == nil {
		h.clients[eventID] = make(map[*ws.Conn]bool)
	}
	h.clients[eventID][conn] = true
	h.mu.Unlock()

	if cache != nil {
		if status, ok := cache.Get(eventID); ok {
			h.sendTo(conn, *status)
		}
	}
}

// RemoveClient unregisters conn from eventID's watcher set.
func (h *Hub) RemoveClient(eventID string, conn *ws.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[eventID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.clients, eventID)
		}
	}
}

// Publish sends status to every client currently watching eventID.
func (h *Hub) Publish(eventID string, status ingestcache.Status) {
	h.mu.RLock()
	clients := make([]*ws.Conn, 0, len(h.clients[eventID]))
	for c := range h.clients[eventID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		go h.sendTo(c, status)
	}
}

func (h *Hub) sendTo(conn *ws.Conn, status ingestcache.Status) {
	if err := conn.WriteJSON(status); err != nil {
		h.removeFromAll(conn)
		_ = conn.Close()
	}
}

func (h *Hub) removeFromAll(conn *ws.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for eventID, set := range h.clients {
		if _, ok := set[conn]; ok {
			delete(set, conn)
			if len(set) == 0 {
				delete(h.clients, eventID)
			}
		}
	}
}

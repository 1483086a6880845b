package events

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans events out to connected websocket clients. A client that can't
// keep up gets disconnected rather than backpressuring publishers.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event
}

func NewHub() *Hub {
	return &Hub{
		clients: map[*websocket.Conn]chan Event{},
	}
}

func (h *Hub) Publish(ctx context.Context, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, queue := range h.clients {
		select {
		case queue <- event:
		default:
			slog.Warn("dropping slow event listener", "remote", conn.RemoteAddr())
			delete(h.clients, conn)
			close(queue)
		}
	}
}

// ServeHTTP upgrades the request to a websocket and streams events to it
// until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("failed to upgrade event listener", "err", err)
		return
	}

	queue := make(chan Event, 64)
	h.mu.Lock()
	h.clients[conn] = queue
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[conn]; ok {
			delete(h.clients, conn)
			close(queue)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	for event := range queue {
		err := conn.WriteJSON(event)
		if err != nil {
			return
		}
	}
}

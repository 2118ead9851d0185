package ws

import (
	"net/http"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Hub fans order events out to connected kitchen display clients. Displays
// connect over websocket and receive every broadcast payload verbatim; a
// client that falls behind or disconnects is dropped.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	logger   apt.Logger
}

func NewHub(logger apt.Logger) *Hub {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			// Kitchen displays live on the branch LAN.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/ws/kitchen", h.Serve)
}

// Serve upgrades the connection and keeps it registered until the client
// disconnects. Inbound messages are read and discarded; the display stream
// is one-way.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Info("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("kitchen display connected", "clients", count)

	defer func() {
		h.remove(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends the payload to every connected display.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Info("dropping kitchen display client", "error", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// ClientCount reports the number of connected displays.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("kitchen display disconnected", "clients", count)
}

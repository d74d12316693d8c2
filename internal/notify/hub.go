// Package notify implements the real-time notification hub: a broadcast
// fan-out over persistent WebSocket connections that keeps every open
// dashboard reconciled with server-side task state without polling.
package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/atwboard/backend/internal/domain"
	"github.com/atwboard/backend/internal/infrastructure/logger"
)

// KeepaliveInterval is how often the hub pings each client. A client that
// never pongs is dropped on the next failed write.
const KeepaliveInterval = 30 * time.Second

// wsWriter is the slice of the connection the hub needs. Tests substitute
// in-memory writers.
type wsWriter interface {
	WriteJSON(v interface{}) error
}

// hubClient owns all writes to one connection. The underlying websocket conn
// does not allow concurrent writers, so the greeting, keepalive pings, and
// broadcasts all go through send.
type hubClient struct {
	mu sync.Mutex
	w  wsWriter
}

func (c *hubClient) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.WriteJSON(v)
}

type Hub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*hubClient]struct{}),
		log:     log,
	}
}

func (h *Hub) register(w wsWriter) *hubClient {
	cl := &hubClient{w: w}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.log.Infow("notify_client_connected", "total", total)
	return cl
}

func (h *Hub) unregister(cl *hubClient) {
	h.mu.Lock()
	delete(h.clients, cl)
	total := len(h.clients)
	h.mu.Unlock()
	h.log.Infow("notify_client_disconnected", "total", total)
}

// ClientCount returns the number of connected dashboard clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast stamps the event and pushes it to every connected client.
// Clients whose write fails are dropped. Writes happen outside the hub lock
// so one slow client cannot block registration.
func (h *Hub) Broadcast(event domain.NotificationEvent) {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)

	h.mu.Lock()
	targets := make([]*hubClient, 0, len(h.clients))
	for cl := range h.clients {
		targets = append(targets, cl)
	}
	h.mu.Unlock()

	var dead []*hubClient
	for _, cl := range targets {
		if err := cl.send(&event); err != nil {
			dead = append(dead, cl)
		}
	}
	if len(dead) > 0 {
		h.mu.Lock()
		for _, cl := range dead {
			delete(h.clients, cl)
		}
		h.mu.Unlock()
		h.log.Infow("notify_dead_clients_removed", "count", len(dead))
	}
}

// Handle services one dashboard connection until it closes.
//
// Protocol: the hub sends {"type":"connected"} on accept, then pings every
// KeepaliveInterval; the client answers each ping with {"type":"pong"}.
// Anything the client sends is swallowed; a malformed payload is dropped
// without killing the connection.
func (h *Hub) Handle(c *websocket.Conn) {
	cl := h.register(c)
	defer func() {
		h.unregister(cl)
		c.Close()
	}()

	if err := cl.send(&domain.NotificationEvent{Type: domain.EventConnected}); err != nil {
		return
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(KeepaliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cl.send(&domain.NotificationEvent{Type: domain.EventPing}); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		var msg domain.NotificationEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.log.Warnw("notify_bad_client_payload", "error", err)
			continue
		}
		// Pongs and anything else from the client just keep the
		// connection alive.
	}
}

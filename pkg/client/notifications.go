package client

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/atwboard/backend/internal/domain"
)

// ConnState is the notification connection state surfaced to the UI.
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateDisconnected ConnState = "disconnected"
)

// Toast is a user-facing notification derived from a gateway event. Tag
// deduplicates: a toast with the same tag replaces the previous one instead
// of stacking.
type Toast struct {
	Message string
	Tag     string
	Event   domain.NotificationEvent
}

// Notifier shows toasts. Implementations are UI-specific.
type Notifier interface {
	Notify(toast Toast)
}

// EventHandler observes every substantive notification event after cache
// invalidation.
type EventHandler func(event domain.NotificationEvent)

// StateHandler observes connection state changes.
type StateHandler func(state ConnState)

// NotificationClient maintains the WebSocket connection to the gateway's
// notification hub. On any disconnect it retries on a flat interval with a
// single in-flight timer until Close is called.
type NotificationClient struct {
	config   *Config
	cache    *Cache
	notifier Notifier
	onEvent  EventHandler
	onState  StateHandler

	mu        sync.Mutex
	conn      *websocket.Conn
	timer     *time.Timer
	disposed  bool
	connected bool
}

// NotificationOptions configures optional callbacks.
type NotificationOptions struct {
	Notifier Notifier
	OnEvent  EventHandler
	OnState  StateHandler
}

// Notifications creates a notification client bound to this client's cache.
// Call Connect to start it.
func (c *Client) Notifications(opts NotificationOptions) *NotificationClient {
	return &NotificationClient{
		config:   c.config,
		cache:    c.cache,
		notifier: opts.Notifier,
		onEvent:  opts.OnEvent,
		onState:  opts.OnState,
	}
}

// Connect dials the notification endpoint. On failure a reconnect is
// scheduled; Connect itself does not retry synchronously.
func (n *NotificationClient) Connect() error {
	n.setState(StateConnecting)

	wsURL := toWebSocketURL(n.config.BaseURL) + "/ws/notifications"
	dialer := websocket.Dialer{HandshakeTimeout: n.config.RequestTimeout}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		n.setState(StateDisconnected)
		n.scheduleReconnect()
		return fmt.Errorf("notification dial failed: %w", err)
	}

	n.mu.Lock()
	if n.disposed {
		n.mu.Unlock()
		conn.Close()
		return nil
	}
	n.conn = conn
	n.connected = true
	n.mu.Unlock()

	n.setState(StateConnected)
	go n.readLoop(conn)
	return nil
}

// Close tears the connection down for good. No reconnects after Close.
func (n *NotificationClient) Close() {
	n.mu.Lock()
	n.disposed = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	conn := n.conn
	n.conn = nil
	n.connected = false
	n.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	n.setState(StateDisconnected)
}

// IsConnected reports whether the notification stream is live.
func (n *NotificationClient) IsConnected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.connected
}

func (n *NotificationClient) readLoop(conn *websocket.Conn) {
	defer n.handleDisconnect(conn)

	for {
		var event domain.NotificationEvent
		if err := conn.ReadJSON(&event); err != nil {
			return
		}
		n.handleEvent(conn, event)
	}
}

func (n *NotificationClient) handleEvent(conn *websocket.Conn, event domain.NotificationEvent) {
	switch event.Type {
	case domain.EventPing:
		// Keepalive; answer and stay quiet.
		_ = conn.WriteJSON(&domain.NotificationEvent{Type: domain.EventPong})
		return
	case domain.EventConnected, domain.EventPong:
		return
	}

	// Any substantive event can change task state server-side, so the read
	// models are refetched rather than patched.
	n.cache.Invalidate(ViewTasks, ViewWorkflow, ViewExecutor)

	if n.notifier != nil {
		n.notifier.Notify(ToastFor(event))
	}
	if n.onEvent != nil {
		n.onEvent(event)
	}
}

func (n *NotificationClient) handleDisconnect(conn *websocket.Conn) {
	conn.Close()

	n.mu.Lock()
	if n.conn == conn {
		n.conn = nil
		n.connected = false
	}
	disposed := n.disposed
	n.mu.Unlock()

	if disposed {
		return
	}
	n.setState(StateDisconnected)
	n.scheduleReconnect()
}

// scheduleReconnect arms the reconnect timer unless one is already armed or
// the client is disposed.
func (n *NotificationClient) scheduleReconnect() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.disposed || n.timer != nil {
		return
	}

	interval := n.config.ReconnectInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	n.timer = time.AfterFunc(interval, func() {
		n.mu.Lock()
		n.timer = nil
		disposed := n.disposed
		n.mu.Unlock()
		if disposed {
			return
		}
		_ = n.Connect()
	})
}

func (n *NotificationClient) setState(state ConnState) {
	if n.onState != nil {
		n.onState(state)
	}
}

// ToastFor derives the user-facing toast from an event. Detail wins over the
// status transition; a bare event still produces something readable.
func ToastFor(event domain.NotificationEvent) Toast {
	subject := event.TaskID
	if subject == "" {
		subject = "Task"
	}

	var message string
	switch {
	case event.Detail != "":
		message = fmt.Sprintf("%s: %s", subject, event.Detail)
	case event.NewStatus != "":
		message = fmt.Sprintf("%s → %s", subject, event.NewStatus)
	default:
		message = fmt.Sprintf("%s: notification", subject)
	}

	tagID := event.TaskID
	if tagID == "" {
		tagID = "global"
	}

	return Toast{
		Message: message,
		Tag:     fmt.Sprintf("atw-%s-%s", tagID, event.Type),
		Event:   event,
	}
}

// toWebSocketURL converts an HTTP(s) base URL or bare host:port to its
// WebSocket scheme.
func toWebSocketURL(raw string) string {
	if strings.HasPrefix(raw, "https://") {
		return "wss://" + strings.TrimPrefix(raw, "https://")
	}
	if strings.HasPrefix(raw, "http://") {
		return "ws://" + strings.TrimPrefix(raw, "http://")
	}
	return "ws://" + raw
}

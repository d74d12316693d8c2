package notify

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atwboard/backend/internal/domain"
	"github.com/atwboard/backend/internal/infrastructure/logger"
)

type fakeWriter struct {
	events []domain.NotificationEvent
	err    error
}

func (w *fakeWriter) WriteJSON(v interface{}) error {
	if w.err != nil {
		return w.err
	}
	if event, ok := v.(*domain.NotificationEvent); ok {
		w.events = append(w.events, *event)
	}
	return nil
}

func newTestHub() *Hub {
	return NewHub(logger.NewNop())
}

func TestHubBroadcast(t *testing.T) {
	hub := newTestHub()
	a := &fakeWriter{}
	b := &fakeWriter{}
	hub.register(a)
	hub.register(b)

	hub.Broadcast(domain.NotificationEvent{
		Type:      "status_change",
		TaskID:    "T-100",
		NewStatus: "ready",
	})

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, "T-100", a.events[0].TaskID)
	assert.NotEmpty(t, a.events[0].Timestamp, "broadcast must stamp the event")
}

func TestHubDropsDeadClients(t *testing.T) {
	hub := newTestHub()
	alive := &fakeWriter{}
	dead := &fakeWriter{err: errors.New("connection closed")}
	hub.register(alive)
	hub.register(dead)
	require.Equal(t, 2, hub.ClientCount())

	hub.Broadcast(domain.NotificationEvent{Type: "test"})

	assert.Equal(t, 1, hub.ClientCount())
	assert.Len(t, alive.events, 1)
}

func TestHubUnregister(t *testing.T) {
	hub := newTestHub()
	w := &fakeWriter{}
	cl := hub.register(w)
	hub.unregister(cl)
	assert.Zero(t, hub.ClientCount())

	hub.Broadcast(domain.NotificationEvent{Type: "test"})
	assert.Empty(t, w.events)
}

// overlapWriter fails if two writes ever run concurrently.
type overlapWriter struct {
	inFlight int32
	overlaps int32
	writes   int32
}

func (w *overlapWriter) WriteJSON(interface{}) error {
	if atomic.AddInt32(&w.inFlight, 1) > 1 {
		atomic.AddInt32(&w.overlaps, 1)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&w.inFlight, -1)
	atomic.AddInt32(&w.writes, 1)
	return nil
}

func TestHubSerializesWritesPerConnection(t *testing.T) {
	hub := newTestHub()
	w := &overlapWriter{}
	cl := hub.register(w)

	// Broadcasts race against the connection-local traffic (the greeting and
	// keepalive pings follow the same path as cl.send).
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Broadcast(domain.NotificationEvent{Type: "status_change"})
		}()
		go func() {
			defer wg.Done()
			_ = cl.send(&domain.NotificationEvent{Type: domain.EventPing})
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&w.overlaps), "connection writes must be serialized")
	assert.Equal(t, int32(16), atomic.LoadInt32(&w.writes))
}

func TestControlEventsClassified(t *testing.T) {
	assert.True(t, domain.NotificationEvent{Type: domain.EventPing}.IsControl())
	assert.True(t, domain.NotificationEvent{Type: domain.EventPong}.IsControl())
	assert.True(t, domain.NotificationEvent{Type: domain.EventConnected}.IsControl())
	assert.False(t, domain.NotificationEvent{Type: "status_change"}.IsControl())
}

package client

import (
	"sync"
	"time"
)

// View names invalidated by notification events.
const (
	ViewTasks    = "tasks"
	ViewWorkflow = "workflow"
	ViewExecutor = "executor"
)

type cacheEntry struct {
	value     interface{}
	fetchedAt time.Time
	stale     bool
}

// Cache holds named read-model views on the client side. Notification events
// mark views stale instead of deleting them, so the dashboard can keep
// rendering the last known state while a refetch is in flight.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Get returns the cached value and whether it is still fresh. A stale entry
// is returned with ok=false so the caller renders it and refetches.
func (c *Cache) Get(view string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[view]
	if !found {
		return nil, false
	}
	return entry.value, !entry.stale
}

// Put stores a freshly fetched view.
func (c *Cache) Put(view string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[view] = &cacheEntry{value: value, fetchedAt: time.Now()}
}

// Invalidate marks the views stale. Unknown views are ignored.
func (c *Cache) Invalidate(views ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, view := range views {
		if entry, found := c.entries[view]; found {
			entry.stale = true
		}
	}
}

// InvalidateAll marks every cached view stale.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		entry.stale = true
	}
}

// Fetch returns the cached view when fresh, otherwise calls fetch and caches
// the result. On fetch failure a stale value is returned as fallback along
// with the error.
func (c *Cache) Fetch(view string, fetch func() (interface{}, error)) (interface{}, error) {
	if value, fresh := c.Get(view); fresh {
		return value, nil
	}

	value, err := fetch()
	if err != nil {
		c.mu.RLock()
		entry, found := c.entries[view]
		c.mu.RUnlock()
		if found {
			return entry.value, err
		}
		return nil, err
	}

	c.Put(view, value)
	return value, nil
}

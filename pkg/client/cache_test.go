package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	cache := NewCache()

	_, fresh := cache.Get(ViewTasks)
	assert.False(t, fresh)

	cache.Put(ViewTasks, "payload")
	value, fresh := cache.Get(ViewTasks)
	assert.True(t, fresh)
	assert.Equal(t, "payload", value)
}

func TestCacheInvalidateKeepsValue(t *testing.T) {
	cache := NewCache()
	cache.Put(ViewTasks, "payload")
	cache.Invalidate(ViewTasks, "unknown-view")

	value, fresh := cache.Get(ViewTasks)
	assert.False(t, fresh, "invalidated view is stale")
	assert.Equal(t, "payload", value, "stale value stays renderable")
}

func TestCacheFetchThrough(t *testing.T) {
	cache := NewCache()
	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	value, err := cache.Fetch(ViewExecutor, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, value)

	// Fresh hit does not refetch.
	value, err = cache.Fetch(ViewExecutor, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, value)
	assert.Equal(t, 1, calls)

	cache.Invalidate(ViewExecutor)
	value, err = cache.Fetch(ViewExecutor, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, value)
}

func TestCacheFetchFailureFallsBackToStale(t *testing.T) {
	cache := NewCache()
	cache.Put(ViewWorkflow, "stale")
	cache.Invalidate(ViewWorkflow)

	fetchErr := errors.New("gateway down")
	value, err := cache.Fetch(ViewWorkflow, func() (interface{}, error) {
		return nil, fetchErr
	})
	assert.ErrorIs(t, err, fetchErr)
	assert.Equal(t, "stale", value)
}

func TestCacheInvalidateAll(t *testing.T) {
	cache := NewCache()
	cache.Put(ViewTasks, 1)
	cache.Put(ViewExecutor, 2)
	cache.InvalidateAll()

	_, fresh := cache.Get(ViewTasks)
	assert.False(t, fresh)
	_, fresh = cache.Get(ViewExecutor)
	assert.False(t, fresh)
}

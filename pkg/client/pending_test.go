package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingActionsConflict(t *testing.T) {
	pending := NewPendingActions()

	assert.True(t, pending.Begin("T-1", "approve"))
	assert.False(t, pending.Begin("T-1", "reset"), "second action while one is pending is rejected")
	assert.True(t, pending.Begin("T-2", "approve"), "other tasks are unaffected")

	pending.Complete("T-1")
	assert.True(t, pending.Begin("T-1", "reset"))
}

func TestPendingActionsFailureSticks(t *testing.T) {
	pending := NewPendingActions()
	require.True(t, pending.Begin("T-1", "approve"))

	failErr := errors.New("409 conflict")
	pending.Fail("T-1", failErr)

	action, found := pending.Get("T-1")
	require.True(t, found)
	assert.Equal(t, ActionFailed, action.State)
	assert.Equal(t, "approve", action.Kind)
	assert.ErrorIs(t, action.Err, failErr)

	// A failed action no longer blocks a retry.
	assert.True(t, pending.Begin("T-1", "approve"))
}

func TestPendingActionsClear(t *testing.T) {
	pending := NewPendingActions()
	require.True(t, pending.Begin("T-1", "approve"))
	pending.Clear("T-1")

	_, found := pending.Get("T-1")
	assert.False(t, found)
	assert.False(t, pending.IsPending("T-1"))
}

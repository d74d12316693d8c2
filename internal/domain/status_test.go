package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []TaskStatus{
	StatusNew, StatusReady, StatusRunning, StatusApprove, StatusBlocked,
	StatusRedo, StatusReview, StatusConclude, StatusDone,
}

func TestWorkflowStateMapping(t *testing.T) {
	// Every status except done lands in exactly one column.
	seen := make(map[TaskStatus]int)
	for _, statuses := range StateStatuses {
		for _, s := range statuses {
			seen[s]++
		}
	}
	for _, s := range allStatuses {
		if s == StatusDone {
			assert.Zero(t, seen[s], "done must not appear on the board")
			continue
		}
		assert.Equal(t, 1, seen[s], "status %q must map to exactly one column", s)
	}

	for _, s := range allStatuses {
		state, ok := s.WorkflowState()
		if s == StatusDone {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok, "status %q must map", s)
		assert.Contains(t, StateStatuses[state], s)
	}
}

func TestWorkflowStateColumns(t *testing.T) {
	cases := map[TaskStatus]WorkflowState{
		StatusNew:      StatePlanning,
		StatusBlocked:  StatePlanning,
		StatusRedo:     StatePlanning,
		StatusApprove:  StatePlanning,
		StatusReady:    StateQueued,
		StatusConclude: StateQueued,
		StatusRunning:  StateRunning,
		StatusReview:   StateReview,
	}
	for status, want := range cases {
		got, ok := status.WorkflowState()
		require.True(t, ok)
		assert.Equal(t, want, got, "status %q", status)
	}
}

func TestApprove(t *testing.T) {
	next, err := Approve(StatusApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, next)

	next, err = Approve(StatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, next)

	// Approving a reviewed task queues cleanup, not execution.
	next, err = Approve(StatusReview)
	require.NoError(t, err)
	assert.Equal(t, StatusConclude, next)

	for _, s := range []TaskStatus{StatusNew, StatusReady, StatusRunning, StatusRedo, StatusConclude, StatusDone} {
		_, err := Approve(s)
		assert.ErrorIs(t, err, ErrInvalidTransition, "approve from %q", s)
	}
}

func TestUnblock(t *testing.T) {
	next, err := Unblock(StatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, next)

	for _, s := range allStatuses {
		if s == StatusBlocked {
			continue
		}
		_, err := Unblock(s)
		assert.ErrorIs(t, err, ErrInvalidTransition, "unblock from %q", s)
	}
}

func TestFinish(t *testing.T) {
	next, err := Finish(StatusReview)
	require.NoError(t, err)
	assert.Equal(t, StatusConclude, next)

	for _, s := range allStatuses {
		if s == StatusReview {
			continue
		}
		_, err := Finish(s)
		assert.ErrorIs(t, err, ErrInvalidTransition, "finish from %q", s)
	}
}

func TestResetFromEveryStatus(t *testing.T) {
	for _, s := range allStatuses {
		assert.Equal(t, StatusRedo, Reset(s), "reset from %q", s)
	}
}

func TestMarkDoneBypassesCleanup(t *testing.T) {
	for _, s := range allStatuses {
		assert.Equal(t, StatusDone, MarkDone(s), "done from %q", s)
	}
}

func TestCanRunAndCanStop(t *testing.T) {
	for _, s := range allStatuses {
		assert.Equal(t, s == StatusRunning, CanStop(s), "stop from %q", s)
		assert.Equal(t, s != StatusRunning && s != StatusDone, CanRun(s), "run from %q", s)
	}
}

func TestNeedsAttention(t *testing.T) {
	attention := map[TaskStatus]bool{StatusApprove: true, StatusBlocked: true, StatusReview: true}
	for _, s := range allStatuses {
		assert.Equal(t, attention[s], s.NeedsAttention(), "status %q", s)
	}
}

func TestExecutorPickable(t *testing.T) {
	pickable := map[TaskStatus]bool{StatusReady: true, StatusConclude: true}
	for _, s := range allStatuses {
		assert.Equal(t, pickable[s], s.ExecutorPickable(), "status %q", s)
	}
}

package domain

import (
	"errors"
	"fmt"
)

// TaskStatus is the 9-state task lifecycle. done is terminal: nothing in the
// workflow moves a task out of it short of deletion or external re-creation.
type TaskStatus string

const (
	StatusNew      TaskStatus = "new"
	StatusReady    TaskStatus = "ready"
	StatusRunning  TaskStatus = "running"
	StatusApprove  TaskStatus = "approve"
	StatusBlocked  TaskStatus = "blocked"
	StatusRedo     TaskStatus = "redo"
	StatusReview   TaskStatus = "review"
	StatusConclude TaskStatus = "conclude"
	StatusDone     TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusNew, StatusReady, StatusRunning, StatusApprove, StatusBlocked,
		StatusRedo, StatusReview, StatusConclude, StatusDone:
		return true
	}
	return false
}

// WorkflowState is the 4-column board grouping derived from status. It is
// never stored: clients that persist it independently risk divergence.
type WorkflowState string

const (
	StatePlanning WorkflowState = "planning"
	StateQueued   WorkflowState = "queued"
	StateRunning  WorkflowState = "running"
	StateReview   WorkflowState = "review"
)

// WorkflowStateOrder is the board column order, left to right.
var WorkflowStateOrder = []WorkflowState{StatePlanning, StateQueued, StateRunning, StateReview}

// StateStatuses maps each column to the statuses it groups.
var StateStatuses = map[WorkflowState][]TaskStatus{
	StatePlanning: {StatusNew, StatusBlocked, StatusRedo, StatusApprove},
	StateQueued:   {StatusReady, StatusConclude},
	StateRunning:  {StatusRunning},
	StateReview:   {StatusReview},
}

// WorkflowState returns the board column for a status. done is not shown on
// the board, so ok is false for it (and for unknown statuses).
func (s TaskStatus) WorkflowState() (WorkflowState, bool) {
	switch s {
	case StatusNew, StatusBlocked, StatusRedo, StatusApprove:
		return StatePlanning, true
	case StatusReady, StatusConclude:
		return StateQueued, true
	case StatusRunning:
		return StateRunning, true
	case StatusReview:
		return StateReview, true
	}
	return "", false
}

// NeedsAttention reports whether a task in this status is waiting on a human.
func (s TaskStatus) NeedsAttention() bool {
	return s == StatusApprove || s == StatusBlocked || s == StatusReview
}

// ExecutorPickable reports whether the executor may admit a task in this
// status from the queue.
func (s TaskStatus) ExecutorPickable() bool {
	return s == StatusReady || s == StatusConclude
}

// ==================== TRANSITIONS ====================

var ErrInvalidTransition = errors.New("invalid status transition")

// Approve is a single contextual action: approve/blocked advance toward
// execution (ready), review advances toward cleanup (conclude). The
// destination depends on the current status and must not be hardcoded by
// callers.
func Approve(s TaskStatus) (TaskStatus, error) {
	switch s {
	case StatusApprove, StatusBlocked:
		return StatusReady, nil
	case StatusReview:
		return StatusConclude, nil
	}
	return s, fmt.Errorf("%w: approve from %q", ErrInvalidTransition, s)
}

// Unblock clears a blocker and requeues the task.
func Unblock(s TaskStatus) (TaskStatus, error) {
	if s != StatusBlocked {
		return s, fmt.Errorf("%w: unblock from %q", ErrInvalidTransition, s)
	}
	return StatusReady, nil
}

// Finish moves a reviewed task to conclude, which queues the cleanup
// workflow on the executor.
func Finish(s TaskStatus) (TaskStatus, error) {
	if s != StatusReview {
		return s, fmt.Errorf("%w: finish from %q", ErrInvalidTransition, s)
	}
	return StatusConclude, nil
}

// Reset is the escape hatch: any status returns to redo for rework.
func Reset(TaskStatus) TaskStatus {
	return StatusRedo
}

// MarkDone jumps straight to done, deliberately bypassing the conclude-phase
// cleanup workflow.
func MarkDone(TaskStatus) TaskStatus {
	return StatusDone
}

// CanStop reports whether a stop request is valid for this status. The
// resulting status after a stop is decided by the executor (blocked or
// review, depending on where the run was killed), not by the caller.
func CanStop(s TaskStatus) bool {
	return s == StatusRunning
}

// CanRun reports whether the executor may be asked to run this task.
func CanRun(s TaskStatus) bool {
	return s != StatusRunning && s != StatusDone
}

package client

import "sync"

// ActionState is the lifecycle of an optimistic task action.
type ActionState string

const (
	ActionNone    ActionState = "none"
	ActionPending ActionState = "pending"
	ActionFailed  ActionState = "failed"
)

// PendingAction records one in-flight or failed action against a task.
type PendingAction struct {
	Kind  string
	State ActionState
	Err   error
}

// PendingActions tracks at most one action per task. A second action against
// a task with one already pending is rejected, which keeps optimistic UI
// updates from racing each other.
type PendingActions struct {
	mu      sync.Mutex
	actions map[string]*PendingAction
}

func NewPendingActions() *PendingActions {
	return &PendingActions{actions: make(map[string]*PendingAction)}
}

// Begin marks an action pending for the task. Returns false when another
// action is already pending.
func (p *PendingActions) Begin(taskID, kind string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, found := p.actions[taskID]; found && existing.State == ActionPending {
		return false
	}
	p.actions[taskID] = &PendingAction{Kind: kind, State: ActionPending}
	return true
}

// Complete clears the pending action after success.
func (p *PendingActions) Complete(taskID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.actions, taskID)
}

// Fail records the failure; the action stays visible until cleared.
func (p *PendingActions) Fail(taskID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if action, found := p.actions[taskID]; found {
		action.State = ActionFailed
		action.Err = err
	}
}

// Clear removes any record for the task, pending or failed.
func (p *PendingActions) Clear(taskID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.actions, taskID)
}

// Get returns the action recorded for the task, if any.
func (p *PendingActions) Get(taskID string) (PendingAction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	action, found := p.actions[taskID]
	if !found {
		return PendingAction{State: ActionNone}, false
	}
	return *action, true
}

// IsPending reports whether an action is currently in flight for the task.
func (p *PendingActions) IsPending(taskID string) bool {
	action, found := p.Get(taskID)
	return found && action.State == ActionPending
}

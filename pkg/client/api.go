package client

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/atwboard/backend/internal/domain"
)

// TaskFilter narrows ListTasks results. Zero values mean no filtering.
type TaskFilter struct {
	Project     string
	Status      string
	Type        string
	IncludeDone bool
	Limit       int
}

func (f TaskFilter) query() string {
	q := url.Values{}
	if f.Project != "" {
		q.Set("project", f.Project)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.IncludeDone {
		q.Set("include_done", "true")
	}
	if f.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", f.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// CreateTaskRequest creates a task by hand, outside the ticketing import.
type CreateTaskRequest struct {
	Project     string `json:"project,omitempty"`
	Name        string `json:"name"`
	SourceID    string `json:"source_id,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// ==================== TASKS ====================

func (c *Client) ListTasks(filter TaskFilter) ([]domain.Task, error) {
	var resp struct {
		Tasks []domain.Task `json:"tasks"`
		Total int           `json:"total"`
	}
	err := c.get("/api/tasks"+filter.query(), &resp)
	return resp.Tasks, err
}

// Dashboard fetches the board grouped by column. progress asks the gateway
// to include per-task workflow progress in the payload.
func (c *Client) Dashboard(progress bool) (*domain.DashboardData, error) {
	var data domain.DashboardData
	path := "/api/tasks/dashboard"
	if progress {
		path += "?progress=true"
	}
	err := c.get(path, &data)
	return &data, err
}

func (c *Client) TasksSummary() (*domain.TasksSummary, error) {
	var summary domain.TasksSummary
	err := c.get("/api/tasks/summary", &summary)
	return &summary, err
}

func (c *Client) BlockedTasks() ([]domain.Task, error) {
	var tasks []domain.Task
	err := c.get("/api/tasks/blocked", &tasks)
	return tasks, err
}

func (c *Client) GetTask(ref string) (*domain.TaskDetail, error) {
	var detail domain.TaskDetail
	err := c.get("/api/tasks/"+url.PathEscape(ref), &detail)
	return &detail, err
}

func (c *Client) CreateTask(req CreateTaskRequest) (*domain.Task, error) {
	var task domain.Task
	err := c.post("/api/tasks", req, &task)
	return &task, err
}

func (c *Client) DeleteTask(ref string) error {
	return c.delete("/api/tasks/"+url.PathEscape(ref), nil)
}

func (c *Client) taskAction(ref, action string) (*domain.Task, error) {
	var task domain.Task
	err := c.post("/api/tasks/"+url.PathEscape(ref)+"/"+action, nil, &task)
	return &task, err
}

func (c *Client) ApproveTask(ref string) (*domain.Task, error)  { return c.taskAction(ref, "approve") }
func (c *Client) UnblockTask(ref string) (*domain.Task, error)  { return c.taskAction(ref, "unblock") }
func (c *Client) FinishTask(ref string) (*domain.Task, error)   { return c.taskAction(ref, "finish") }
func (c *Client) ResetTask(ref string) (*domain.Task, error)    { return c.taskAction(ref, "reset") }
func (c *Client) MarkTaskDone(ref string) (*domain.Task, error) { return c.taskAction(ref, "done") }

func (c *Client) PassTesting(ref string) (*domain.Task, error) {
	var task domain.Task
	err := c.post("/api/workflow/pass/"+url.PathEscape(ref), nil, &task)
	return &task, err
}

func (c *Client) FailTesting(ref, reason string) (*domain.Task, error) {
	var task domain.Task
	payload := map[string]string{"reason": reason}
	err := c.post("/api/workflow/fail/"+url.PathEscape(ref), payload, &task)
	return &task, err
}

func (c *Client) SetPriority(ref string, priority int) (*domain.Task, error) {
	var task domain.Task
	payload := map[string]int{"priority": priority}
	err := c.post("/api/tasks/"+url.PathEscape(ref)+"/priority", payload, &task)
	return &task, err
}

func (c *Client) SetType(ref, taskType string) (*domain.Task, error) {
	var task domain.Task
	payload := map[string]string{"type": taskType}
	err := c.post("/api/tasks/"+url.PathEscape(ref)+"/type", payload, &task)
	return &task, err
}

func (c *Client) CategorizeTask(ref string) (*domain.Task, error) {
	return c.taskAction(ref, "categorize")
}

// ==================== QUEUE REORDERING ====================

func queueItemRef(item domain.QueueItem) string {
	if item.SourceID != "" {
		return item.SourceID
	}
	return strconv.FormatUint(uint64(item.ID), 10)
}

// ReorderTask moves the item at oldIndex to newIndex in the queued column and
// persists the moved item's fractional priority. Only the moved item is
// written; when midpoint precision between its new neighbors is exhausted the
// whole queue is renormalized to evenly spaced priorities instead.
func (c *Client) ReorderTask(queue []domain.QueueItem, oldIndex, newIndex int) error {
	n := len(queue)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		return fmt.Errorf("reorder index out of range (queue size %d)", n)
	}
	if oldIndex == newIndex && n > 1 {
		return nil
	}

	priorities := make([]int, n)
	for i := range queue {
		priorities[i] = queue[i].Priority
	}

	computed := domain.ReorderPriority(priorities, oldIndex, newIndex)
	if !domain.NeedsRebalance(priorities, oldIndex, newIndex, computed) {
		_, err := c.SetPriority(queueItemRef(queue[oldIndex]), computed)
		return err
	}

	// Collision with a neighbor: rewrite the whole queue in its post-move
	// order with fresh spacing.
	order := make([]domain.QueueItem, 0, n)
	order = append(order, queue[:oldIndex]...)
	order = append(order, queue[oldIndex+1:]...)
	order = append(order, domain.QueueItem{})
	copy(order[newIndex+1:], order[newIndex:])
	order[newIndex] = queue[oldIndex]

	for i, priority := range domain.Renormalize(n) {
		if _, err := c.SetPriority(queueItemRef(order[i]), priority); err != nil {
			return err
		}
	}
	return nil
}

// ==================== FILE EXPLORER ====================

func (c *Client) ListTaskFiles(ref, path string) (*domain.FileListing, error) {
	var listing domain.FileListing
	q := ""
	if path != "" {
		q = "?path=" + url.QueryEscape(path)
	}
	err := c.get("/api/tasks/"+url.PathEscape(ref)+"/files"+q, &listing)
	return &listing, err
}

func (c *Client) ReadTaskFile(ref, path string) (*domain.FileContent, error) {
	var content domain.FileContent
	err := c.get("/api/tasks/"+url.PathEscape(ref)+"/files/read?path="+url.QueryEscape(path), &content)
	return &content, err
}

// ==================== WORKFLOW ====================

// RunWorkflow queues a task for execution. restart discards recorded
// progress; now bypasses the admission queue when a slot is free.
func (c *Client) RunWorkflow(ref string, restart, now bool) error {
	payload := map[string]bool{"restart": restart, "now": now}
	return c.post("/api/workflow/run/"+url.PathEscape(ref), payload, nil)
}

func (c *Client) StopWorkflow(ref string) error {
	return c.post("/api/workflow/stop/"+url.PathEscape(ref), nil, nil)
}

func (c *Client) WorkflowStatus(ref string) (*domain.WorkflowProgress, error) {
	var progress domain.WorkflowProgress
	err := c.get("/api/workflow/status/"+url.PathEscape(ref), &progress)
	return &progress, err
}

func (c *Client) WorkflowTypes() ([]domain.WorkflowType, error) {
	var types []domain.WorkflowType
	err := c.get("/api/workflow/types", &types)
	return types, err
}

// FixTask runs the AI fix pass server-side. Uses the long timeout.
func (c *Client) FixTask(ref string) (string, error) {
	var resp struct {
		Output string `json:"output"`
	}
	err := c.postTimeout("/api/workflow/fix/"+url.PathEscape(ref), nil, &resp, c.config.LongTimeout)
	return resp.Output, err
}

// SubmitTimesheet drafts (dryRun) or submits a timesheet entry for the task.
// Uses the long timeout.
func (c *Client) SubmitTimesheet(ref, prompt string, dryRun bool) (string, error) {
	var resp struct {
		Output string `json:"output"`
	}
	payload := map[string]interface{}{"prompt": prompt, "dry_run": dryRun}
	err := c.postTimeout("/api/workflow/timesheet/"+url.PathEscape(ref), payload, &resp, c.config.LongTimeout)
	return resp.Output, err
}

func (c *Client) WorkflowLogs(lines int) (string, error) {
	var resp struct {
		Content string `json:"content"`
	}
	err := c.get(fmt.Sprintf("/api/workflow/logs?lines=%d", lines), &resp)
	return resp.Content, err
}

func (c *Client) ClearWorkflowLogs() error {
	return c.delete("/api/workflow/logs", nil)
}

// ==================== EXECUTOR ====================

func (c *Client) ExecutorStatus() (*domain.ExecutorStatus, error) {
	var wire executorStatusWire
	if err := c.get("/api/executor/status", &wire); err != nil {
		return nil, err
	}
	return wire.normalize(), nil
}

func (c *Client) StartExecutor() error {
	return c.post("/api/executor/start", nil, nil)
}

func (c *Client) StopExecutor() error {
	return c.post("/api/executor/stop", nil, nil)
}

// RunAll imports pending source tasks and queues them all.
func (c *Client) RunAll() (int, error) {
	var resp struct {
		Queued int `json:"queued"`
	}
	err := c.post("/api/executor/run-all", nil, &resp)
	return resp.Queued, err
}

func (c *Client) Queue() (*domain.QueueStatus, error) {
	var queue domain.QueueStatus
	err := c.get("/api/workflow/queue", &queue)
	return &queue, err
}

func (c *Client) ClearQueue() error {
	return c.delete("/api/workflow/queue", nil)
}

// ==================== PROJECTS ====================

func (c *Client) ListProjects(domainFilter string) ([]domain.Project, error) {
	var projects []domain.Project
	q := ""
	if domainFilter != "" {
		q = "?domain=" + url.QueryEscape(domainFilter)
	}
	err := c.get("/api/projects"+q, &projects)
	return projects, err
}

func (c *Client) GetProject(name string) (*domain.Project, error) {
	var project domain.Project
	err := c.get("/api/projects/"+url.PathEscape(name), &project)
	return &project, err
}

func (c *Client) CheckProjectEnv(name, env string) error {
	q := ""
	if env != "" {
		q = "?env=" + url.QueryEscape(env)
	}
	return c.post("/api/projects/"+url.PathEscape(name)+"/check-env"+q, nil, nil)
}

// ==================== SYNC ====================

func (c *Client) SyncTasks() (int, string, error) {
	var resp struct {
		Imported int    `json:"imported"`
		Output   string `json:"output"`
	}
	err := c.post("/api/sync/tasks", nil, &resp)
	return resp.Imported, resp.Output, err
}

// SyncData mirrors the server data directory with its remote over SFTP.
// Uses the long timeout; a full mirror can take a while.
func (c *Client) SyncData(dryRun, toRemote, fromRemote bool) (string, error) {
	var resp struct {
		Output string `json:"output"`
	}
	payload := map[string]bool{"dry_run": dryRun, "to_remote": toRemote, "from_remote": fromRemote}
	err := c.postTimeout("/api/sync/data", payload, &resp, c.config.LongTimeout)
	return resp.Output, err
}

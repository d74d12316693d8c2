package domain

// Read-model projections served by the gateway. These are computed views:
// none of them are persisted, and every one is recomputable from Task rows
// plus the executor's runtime state.

type DashboardData struct {
	Columns        map[WorkflowState][]Task `json:"columns"`
	Counts         map[WorkflowState]int    `json:"counts"`
	NeedsAttention int                      `json:"needs_attention"`
	TotalActive    int                      `json:"total_active"`
}

type SummaryTotals struct {
	All              int `json:"all"`
	Active           int `json:"active"`
	Done             int `json:"done"`
	NeedsAttention   int `json:"needs_attention"`
	ExecutorPickable int `json:"executor_pickable"`
	Overdue          int `json:"overdue"`
}

type TasksSummary struct {
	Totals          SummaryTotals         `json:"totals"`
	ByStatus        map[TaskStatus]int    `json:"by_status"`
	ByWorkflowState map[WorkflowState]int `json:"by_workflow_state"`
	ByType          map[TaskType]int      `json:"by_type"`
	ByProject       map[string]int        `json:"by_project"`
}

// TaskPaths points at the on-disk artifacts of a task's workflow run.
type TaskPaths struct {
	Resources     string `json:"resources"`
	TicketRaw     string `json:"ticket_raw"`
	TicketRevised string `json:"ticket_revised"`
	Plan          string `json:"plan"`
	Blockers      string `json:"blockers"`
}

type TaskDetail struct {
	Task
	Paths      TaskPaths       `json:"paths"`
	FilesExist map[string]bool `json:"files_exist"`
}

// RunningTask is the executor's view of one occupied slot.
type RunningTask struct {
	SourceID       string            `json:"source_id"`
	TaskName       string            `json:"task_name"`
	Type           TaskType          `json:"type"`
	PID            int               `json:"pid"`
	RuntimeSeconds float64           `json:"runtime_seconds"`
	Progress       *WorkflowProgress `json:"workflow_progress,omitempty"`
}

// ExecutorStatus is a volatile runtime projection of the executor process.
// It must be reconciled against task rows, never trusted as the source of
// truth for task status.
type ExecutorStatus struct {
	IsRunning      bool          `json:"is_running"`
	RunningTasks   []RunningTask `json:"running_tasks"`
	MaxParallel    int           `json:"max_parallel"`
	SlotsUsed      int           `json:"slots_used"`
	Uptime         string        `json:"uptime"`
	UptimeSeconds  float64       `json:"uptime_seconds"`
	TasksProcessed int           `json:"tasks_processed"`
	TasksCompleted int           `json:"tasks_completed"`
	TasksFailed    int           `json:"tasks_failed"`
}

type QueueStatus struct {
	Queue []QueueItem `json:"queue"`
	Total int         `json:"total"`
}

type WorkflowType struct {
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// ==================== FILE EXPLORER ====================

type FileInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Type      string `json:"type"` // "file" or "directory"
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
	Modified  int64  `json:"modified"`
}

type FileListing struct {
	TaskID        string     `json:"task_id"`
	ResourcesPath string     `json:"resources_path"`
	CurrentPath   string     `json:"current_path"`
	Files         []FileInfo `json:"files"`
}

type FileContent struct {
	TaskID    string `json:"task_id"`
	Path      string `json:"path"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Size      int64  `json:"size"`
	Content   string `json:"content"`
}

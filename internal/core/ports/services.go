package ports

import (
	"context"

	"github.com/atwboard/backend/internal/domain"
)

// Notifier broadcasts an event to every connected dashboard client.
type Notifier interface {
	Broadcast(event domain.NotificationEvent)
}

type CreateTaskInput struct {
	Project     string
	Name        string
	SourceID    string
	Type        domain.TaskType
	Description string
}

// TaskService owns the task state machine. Every mutation broadcasts a
// notification so connected dashboards can reconcile their caches.
type TaskService interface {
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Dashboard(ctx context.Context, withProgress bool) (*domain.DashboardData, error)
	Summary(ctx context.Context) (*domain.TasksSummary, error)
	Blocked(ctx context.Context) ([]domain.Task, error)
	Detail(ctx context.Context, ref string) (*domain.TaskDetail, error)
	// Resolve accepts either the internal numeric id or the ticketing-system
	// source id.
	Resolve(ctx context.Context, ref string) (*domain.Task, error)

	Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error)
	Approve(ctx context.Context, ref string) (*domain.Task, error)
	Unblock(ctx context.Context, ref string) (*domain.Task, error)
	Finish(ctx context.Context, ref string) (*domain.Task, error)
	Reset(ctx context.Context, ref string) (*domain.Task, error)
	MarkDone(ctx context.Context, ref string) (*domain.Task, error)
	PassTesting(ctx context.Context, ref string) (*domain.Task, error)
	FailTesting(ctx context.Context, ref string, reason string) (*domain.Task, error)
	SetPriority(ctx context.Context, ref string, priority int) (*domain.Task, error)
	SetType(ctx context.Context, ref string, taskType domain.TaskType) (*domain.Task, error)
	Categorize(ctx context.Context, ref string) (*domain.Task, error)
	Delete(ctx context.Context, ref string) error

	ListFiles(ctx context.Context, ref string, path string) (*domain.FileListing, error)
	ReadFile(ctx context.Context, ref string, path string) (*domain.FileContent, error)
}

// ExecutorService coordinates the bounded workflow runner pool.
type ExecutorService interface {
	Status(ctx context.Context) *domain.ExecutorStatus
	// Start and Stop are idempotent: starting a running executor (or
	// stopping a stopped one) is a no-op, not an error.
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Run queues one task. restart discards recorded progress and begins at
	// the first step; now bypasses the admission queue when a slot is free.
	Run(ctx context.Context, ref string, restart, now bool) error
	StopTask(ctx context.Context, ref string) error
	// RunAll imports and queues every pending source task. Fire-and-forget:
	// the returned count reflects what was queued, not what has landed in
	// task listings yet.
	RunAll(ctx context.Context) (int, error)
	Queue(ctx context.Context) (*domain.QueueStatus, error)
	ClearQueue(ctx context.Context) error
	WorkflowStatus(ctx context.Context, ref string) (*domain.WorkflowProgress, error)
	WorkflowTypes(ctx context.Context) []domain.WorkflowType
	// Fix and Timesheet invoke AI-agent work server-side and can run for
	// minutes; callers set the extended timeout via ctx.
	Fix(ctx context.Context, ref string) (string, error)
	Timesheet(ctx context.Context, ref string, prompt string, dryRun bool) (string, error)
}

type ProjectService interface {
	List(ctx context.Context, domainFilter string) ([]domain.Project, error)
	Get(ctx context.Context, name string) (*domain.Project, error)
	// CheckRemoteEnv verifies SSH reachability of a project environment.
	CheckRemoteEnv(ctx context.Context, projectName, envName string) error
}

type SyncOptions struct {
	DryRun     bool
	ToRemote   bool
	FromRemote bool
}

type SyncService interface {
	// SyncTasks imports tasks from the external ticketing source.
	SyncTasks(ctx context.Context) (imported int, output string, err error)
	// SyncData mirrors the data directory to or from the default remote
	// environment over SFTP.
	SyncData(ctx context.Context, opts SyncOptions) (output string, err error)
}

type LogService interface {
	Tail(lines int) (string, error)
	Clear() error
}

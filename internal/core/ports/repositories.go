package ports

import (
	"context"

	"github.com/atwboard/backend/internal/domain"
)

// TaskFilter narrows task listings. Zero values mean "no filter"; done tasks
// are excluded unless IncludeDone is set.
type TaskFilter struct {
	Project     string
	Status      domain.TaskStatus
	Type        domain.TaskType
	IncludeDone bool
	Limit       int
}

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id uint) (*domain.Task, error)
	GetBySourceID(ctx context.Context, sourceID string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	// ListQueued returns queued-column tasks ordered by ascending priority,
	// then id (stable insertion order for ties).
	ListQueued(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	UpdateStatus(ctx context.Context, id uint, status domain.TaskStatus) error
	UpdatePriority(ctx context.Context, id uint, priority int) error
	UpdateType(ctx context.Context, id uint, taskType domain.TaskType) error
	UpdateProgress(ctx context.Context, id uint, progress *domain.WorkflowProgress) error
	// Delete is a hard delete.
	Delete(ctx context.Context, id uint) error
}

type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByName(ctx context.Context, name string) (*domain.Project, error)
	GetAll(ctx context.Context, domainFilter string) ([]domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
}

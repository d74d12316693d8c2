package services

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/domain"
)

// fakeTaskRepo is an in-memory ports.TaskRepository for service tests.
type fakeTaskRepo struct {
	mu     sync.Mutex
	nextID uint
	tasks  map[uint]*domain.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uint]*domain.Task)}
}

func (r *fakeTaskRepo) add(task domain.Task) *domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	task.ID = r.nextID
	copy := task
	r.tasks[task.ID] = &copy
	return &copy
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	task.ID = r.nextID
	copy := *task
	r.tasks[task.ID] = &copy
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id uint) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, found := r.tasks[id]
	if !found {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *task
	return &copy, nil
}

func (r *fakeTaskRepo) GetBySourceID(_ context.Context, sourceID string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, task := range r.tasks {
		if task.SourceID != nil && *task.SourceID == sourceID {
			copy := *task
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTaskRepo) List(_ context.Context, filter ports.TaskFilter) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Task
	for _, task := range r.tasks {
		if task.Status == domain.StatusDone && !filter.IncludeDone {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Type != "" && task.Type != filter.Type {
			continue
		}
		out = append(out, *task)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeTaskRepo) ListQueued(_ context.Context) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Task
	for _, task := range r.tasks {
		if task.Status.ExecutorPickable() {
			out = append(out, *task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *task
	r.tasks[task.ID] = &copy
	return nil
}

func (r *fakeTaskRepo) UpdateStatus(_ context.Context, id uint, status domain.TaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, found := r.tasks[id]
	if !found {
		return gorm.ErrRecordNotFound
	}
	task.Status = status
	return nil
}

func (r *fakeTaskRepo) UpdatePriority(_ context.Context, id uint, priority int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, found := r.tasks[id]
	if !found {
		return gorm.ErrRecordNotFound
	}
	task.Priority = priority
	return nil
}

func (r *fakeTaskRepo) UpdateType(_ context.Context, id uint, taskType domain.TaskType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, found := r.tasks[id]
	if !found {
		return gorm.ErrRecordNotFound
	}
	task.Type = taskType
	return nil
}

func (r *fakeTaskRepo) UpdateProgress(_ context.Context, id uint, progress *domain.WorkflowProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, found := r.tasks[id]
	if !found {
		return gorm.ErrRecordNotFound
	}
	task.Progress = progress
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.tasks[id]; !found {
		return gorm.ErrRecordNotFound
	}
	delete(r.tasks, id)
	return nil
}

// fakeProjectRepo is an in-memory ports.ProjectRepository.
type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*domain.Project)}
}

func (r *fakeProjectRepo) Create(_ context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project.ID = uint(len(r.projects) + 1)
	copy := *project
	r.projects[project.Name] = &copy
	return nil
}

func (r *fakeProjectRepo) GetByName(_ context.Context, name string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, found := r.projects[name]
	if !found {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *project
	return &copy, nil
}

func (r *fakeProjectRepo) GetAll(_ context.Context, domainFilter string) ([]domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Project
	for _, project := range r.projects {
		if domainFilter != "" && project.Domain != domainFilter {
			continue
		}
		out = append(out, *project)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeProjectRepo) Update(_ context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *project
	r.projects[project.Name] = &copy
	return nil
}

// fakeNotifier records broadcast events.
type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
}

func (n *fakeNotifier) Broadcast(event domain.NotificationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *fakeNotifier) all() []domain.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.NotificationEvent, len(n.events))
	copy(out, n.events)
	return out
}

func (n *fakeNotifier) last() (domain.NotificationEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return domain.NotificationEvent{}, false
	}
	return n.events[len(n.events)-1], true
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/domain"
	"github.com/atwboard/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type TaskServiceConfig struct {
	TaskRepo    ports.TaskRepository
	ProjectRepo ports.ProjectRepository
	Notifier    ports.Notifier
	Logger      *logger.Logger
}

type taskService struct {
	repo     ports.TaskRepository
	projects ports.ProjectRepository
	notifier ports.Notifier
	log      *logger.Logger
}

func NewTaskService(cfg TaskServiceConfig) ports.TaskService {
	return &taskService{
		repo:     cfg.TaskRepo,
		projects: cfg.ProjectRepo,
		notifier: cfg.Notifier,
		log:      cfg.Logger,
	}
}

// taskRef is the identifier used in notification events and executor
// addressing: the ticketing-system id when present, the numeric id
// otherwise.
func taskRef(t *domain.Task) string {
	if ref := t.DisplayID(); ref != "" {
		return ref
	}
	return strconv.FormatUint(uint64(t.ID), 10)
}

func (s *taskService) Resolve(ctx context.Context, ref string) (*domain.Task, error) {
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		task, err := s.repo.GetByID(ctx, uint(id))
		if err == nil {
			return task, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// A purely numeric source id is unusual but legal; fall through.
	}

	task, err := s.repo.GetBySourceID(ctx, ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	return task, err
}

// ==================== READ MODELS ====================

func (s *taskService) List(ctx context.Context, filter ports.TaskFilter) ([]domain.Task, error) {
	return s.repo.List(ctx, filter)
}

func (s *taskService) Blocked(ctx context.Context) ([]domain.Task, error) {
	return s.repo.List(ctx, ports.TaskFilter{Status: domain.StatusBlocked})
}

func (s *taskService) Dashboard(ctx context.Context, withProgress bool) (*domain.DashboardData, error) {
	tasks, err := s.repo.List(ctx, ports.TaskFilter{})
	if err != nil {
		return nil, err
	}

	data := &domain.DashboardData{
		Columns: make(map[domain.WorkflowState][]domain.Task, len(domain.WorkflowStateOrder)),
		Counts:  make(map[domain.WorkflowState]int, len(domain.WorkflowStateOrder)),
	}
	for _, state := range domain.WorkflowStateOrder {
		data.Columns[state] = []domain.Task{}
	}

	for _, task := range tasks {
		state, ok := task.Status.WorkflowState()
		if !ok {
			continue
		}
		if !withProgress {
			task.Progress = nil
		}
		data.Columns[state] = append(data.Columns[state], task)
		data.Counts[state]++
		data.TotalActive++
		if task.Status.NeedsAttention() {
			data.NeedsAttention++
		}
	}

	return data, nil
}

func (s *taskService) Summary(ctx context.Context) (*domain.TasksSummary, error) {
	tasks, err := s.repo.List(ctx, ports.TaskFilter{IncludeDone: true})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summary := &domain.TasksSummary{
		ByStatus:        make(map[domain.TaskStatus]int),
		ByWorkflowState: make(map[domain.WorkflowState]int),
		ByType:          make(map[domain.TaskType]int),
		ByProject:       make(map[string]int),
	}

	for _, task := range tasks {
		summary.Totals.All++
		summary.ByStatus[task.Status]++
		summary.ByType[task.Type]++
		if task.Project != nil {
			summary.ByProject[task.Project.Name]++
		}

		if task.Status == domain.StatusDone {
			summary.Totals.Done++
			continue
		}
		summary.Totals.Active++
		if state, ok := task.Status.WorkflowState(); ok {
			summary.ByWorkflowState[state]++
		}
		if task.Status.NeedsAttention() {
			summary.Totals.NeedsAttention++
		}
		if task.Status.ExecutorPickable() {
			summary.Totals.ExecutorPickable++
		}
		if task.IsOverdue(now) {
			summary.Totals.Overdue++
		}
	}

	return summary, nil
}

// ==================== MUTATIONS ====================

func (s *taskService) Create(ctx context.Context, input ports.CreateTaskInput) (*domain.Task, error) {
	task := &domain.Task{
		Name:     input.Name,
		Summary:  input.Description,
		Status:   domain.StatusNew,
		Type:     domain.TaskTypeUnclassified,
		Priority: domain.PriorityDefault,
	}
	if input.Type != "" {
		if !input.Type.Valid() {
			return nil, ErrInvalidType
		}
		task.Type = input.Type
	}
	if input.SourceID != "" {
		task.SourceID = &input.SourceID
	}
	if input.Project != "" {
		project, err := s.projects.GetByName(ctx, input.Project)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		if err != nil {
			return nil, err
		}
		task.ProjectID = &project.ID
		task.Project = project
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.notifier.Broadcast(domain.NotificationEvent{
		Type:      "task_created",
		TaskID:    taskRef(task),
		TaskName:  task.Name,
		NewStatus: string(task.Status),
	})
	return task, nil
}

// transition applies a status transition, persists it, and broadcasts the
// change. The transition itself stays in the domain package so its
// preconditions are testable in isolation.
func (s *taskService) transition(ctx context.Context, ref string, detail string, apply func(domain.TaskStatus) (domain.TaskStatus, error)) (*domain.Task, error) {
	task, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	oldStatus := task.Status
	newStatus, err := apply(oldStatus)
	if err != nil {
		s.log.Warnw("task_transition_rejected", "task", taskRef(task), "from", oldStatus, "error", err)
		return nil, err
	}

	if newStatus != oldStatus {
		if err := s.repo.UpdateStatus(ctx, task.ID, newStatus); err != nil {
			return nil, err
		}
		task.Status = newStatus
	}

	s.notifier.Broadcast(domain.NotificationEvent{
		Type:      "status_change",
		TaskID:    taskRef(task),
		TaskName:  task.Name,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
		Detail:    detail,
	})
	return task, nil
}

func (s *taskService) Approve(ctx context.Context, ref string) (*domain.Task, error) {
	return s.transition(ctx, ref, "approved", domain.Approve)
}

func (s *taskService) Unblock(ctx context.Context, ref string) (*domain.Task, error) {
	return s.transition(ctx, ref, "unblocked", domain.Unblock)
}

func (s *taskService) Finish(ctx context.Context, ref string) (*domain.Task, error) {
	return s.transition(ctx, ref, "queued for cleanup", domain.Finish)
}

func (s *taskService) Reset(ctx context.Context, ref string) (*domain.Task, error) {
	return s.transition(ctx, ref, "reset for rework", func(from domain.TaskStatus) (domain.TaskStatus, error) {
		return domain.Reset(from), nil
	})
}

func (s *taskService) MarkDone(ctx context.Context, ref string) (*domain.Task, error) {
	return s.transition(ctx, ref, "marked done, cleanup skipped", func(from domain.TaskStatus) (domain.TaskStatus, error) {
		return domain.MarkDone(from), nil
	})
}

func (s *taskService) PassTesting(ctx context.Context, ref string) (*domain.Task, error) {
	return s.transition(ctx, ref, "testing passed", func(from domain.TaskStatus) (domain.TaskStatus, error) {
		if from == domain.StatusDone {
			return from, fmt.Errorf("%w: pass from %q", domain.ErrInvalidTransition, from)
		}
		return domain.StatusReview, nil
	})
}

func (s *taskService) FailTesting(ctx context.Context, ref string, reason string) (*domain.Task, error) {
	detail := "testing failed"
	if reason != "" {
		detail = "testing failed: " + reason
	}
	return s.transition(ctx, ref, detail, func(from domain.TaskStatus) (domain.TaskStatus, error) {
		if from == domain.StatusDone {
			return from, fmt.Errorf("%w: fail from %q", domain.ErrInvalidTransition, from)
		}
		return domain.StatusBlocked, nil
	})
}

func (s *taskService) SetPriority(ctx context.Context, ref string, priority int) (*domain.Task, error) {
	if priority < domain.PriorityMin || priority > domain.PriorityMax {
		return nil, ErrInvalidPriority
	}

	task, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePriority(ctx, task.ID, priority); err != nil {
		return nil, err
	}
	task.Priority = priority

	s.notifier.Broadcast(domain.NotificationEvent{
		Type:     "priority_change",
		TaskID:   taskRef(task),
		TaskName: task.Name,
		Detail:   fmt.Sprintf("priority set to %d (%s)", priority, domain.PriorityLabel(priority)),
	})
	return task, nil
}

func (s *taskService) SetType(ctx context.Context, ref string, taskType domain.TaskType) (*domain.Task, error) {
	if !taskType.Valid() {
		return nil, ErrInvalidType
	}

	task, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateType(ctx, task.ID, taskType); err != nil {
		return nil, err
	}
	task.Type = taskType

	s.notifier.Broadcast(domain.NotificationEvent{
		Type:     "type_change",
		TaskID:   taskRef(task),
		TaskName: task.Name,
		Detail:   "type set to " + string(taskType),
	})
	return task, nil
}

// Categorize assigns a workflow type to an unclassified task from its name
// and summary. The real classification runs through the AI runner; this is
// the keyword fallback used when the runner is unavailable.
func (s *taskService) Categorize(ctx context.Context, ref string) (*domain.Task, error) {
	task, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	guessed := classify(task.Name + " " + task.Summary)
	if err := s.repo.UpdateType(ctx, task.ID, guessed); err != nil {
		return nil, err
	}
	task.Type = guessed

	s.notifier.Broadcast(domain.NotificationEvent{
		Type:     "task_categorized",
		TaskID:   taskRef(task),
		TaskName: task.Name,
		Detail:   "categorized as " + string(guessed),
	})
	return task, nil
}

func classify(text string) domain.TaskType {
	text = strings.ToLower(text)
	switch {
	case strings.Contains(text, "review"):
		return domain.TaskTypeCodeReview
	case strings.Contains(text, "install"), strings.Contains(text, "deploy"):
		return domain.TaskTypeInstallation
	case strings.Contains(text, "investigate"), strings.Contains(text, "why"):
		return domain.TaskTypeInvestigation
	case strings.Contains(text, "estimate"), strings.Contains(text, "quote"):
		return domain.TaskTypeEstimation
	case strings.Contains(text, "triage"):
		return domain.TaskTypeTriage
	}
	return domain.TaskTypeFeatureFix
}

func (s *taskService) Delete(ctx context.Context, ref string) error {
	task, err := s.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, task.ID); err != nil {
		return err
	}

	s.notifier.Broadcast(domain.NotificationEvent{
		Type:     "task_deleted",
		TaskID:   taskRef(task),
		TaskName: task.Name,
		Detail:   "task deleted",
	})
	return nil
}

package db

import (
	"context"

	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/domain"
	"github.com/atwboard/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type taskRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepository(db *gorm.DB, log *logger.Logger) ports.TaskRepository {
	return &taskRepository{db: db, log: log}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		r.log.Errorw("task_repo_create_failed", "name", task.Name, "error", err)
		return err
	}
	r.log.Infow("task_repo_create_ok", "id", task.ID, "name", task.Name)
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).Preload("Project").First(&task, id).Error; err != nil {
		r.log.Errorw("task_repo_get_failed", "id", id, "error", err)
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) GetBySourceID(ctx context.Context, sourceID string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).Preload("Project").
		Where("source_id = ?", sourceID).First(&task).Error; err != nil {
		r.log.Errorw("task_repo_get_by_source_failed", "source_id", sourceID, "error", err)
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]domain.Task, error) {
	q := r.db.WithContext(ctx).Preload("Project").Model(&domain.Task{})

	if !filter.IncludeDone {
		q = q.Where("status <> ?", domain.StatusDone)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Project != "" {
		q = q.Joins("JOIN projects ON projects.id = tasks.project_id").
			Where("projects.name = ?", filter.Project)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var tasks []domain.Task
	if err := q.Order("priority ASC, id ASC").Find(&tasks).Error; err != nil {
		r.log.Errorw("task_repo_list_failed", "error", err)
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) ListQueued(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).Preload("Project").
		Where("status IN ?", []domain.TaskStatus{domain.StatusReady, domain.StatusConclude}).
		Order("priority ASC, id ASC").
		Find(&tasks).Error
	if err != nil {
		r.log.Errorw("task_repo_list_queued_failed", "error", err)
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		r.log.Errorw("task_repo_update_failed", "id", task.ID, "error", err)
		return err
	}
	return nil
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id uint, status domain.TaskStatus) error {
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", id).Update("status", status).Error; err != nil {
		r.log.Errorw("task_repo_update_status_failed", "id", id, "status", status, "error", err)
		return err
	}
	r.log.Infow("task_repo_update_status_ok", "id", id, "status", status)
	return nil
}

func (r *taskRepository) UpdatePriority(ctx context.Context, id uint, priority int) error {
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", id).Update("priority", priority).Error; err != nil {
		r.log.Errorw("task_repo_update_priority_failed", "id", id, "error", err)
		return err
	}
	return nil
}

func (r *taskRepository) UpdateType(ctx context.Context, id uint, taskType domain.TaskType) error {
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", id).Update("type", taskType).Error; err != nil {
		r.log.Errorw("task_repo_update_type_failed", "id", id, "error", err)
		return err
	}
	return nil
}

func (r *taskRepository) UpdateProgress(ctx context.Context, id uint, progress *domain.WorkflowProgress) error {
	if err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ?", id).Update("progress", progress).Error; err != nil {
		r.log.Errorw("task_repo_update_progress_failed", "id", id, "error", err)
		return err
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Task{}, id).Error; err != nil {
		r.log.Errorw("task_repo_delete_failed", "id", id, "error", err)
		return err
	}
	r.log.Infow("task_repo_delete_ok", "id", id)
	return nil
}

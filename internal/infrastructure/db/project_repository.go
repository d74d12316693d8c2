package db

import (
	"context"

	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/domain"
	"github.com/atwboard/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type projectRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepository(db *gorm.DB, log *logger.Logger) ports.ProjectRepository {
	return &projectRepository{db: db, log: log}
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		r.log.Errorw("project_repo_create_failed", "name", project.Name, "error", err)
		return err
	}
	r.log.Infow("project_repo_create_ok", "id", project.ID, "name", project.Name)
	return nil
}

func (r *projectRepository) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	var project domain.Project
	if err := r.db.WithContext(ctx).Preload("RemoteEnvs").
		Where("name = ?", name).First(&project).Error; err != nil {
		r.log.Errorw("project_repo_get_failed", "name", name, "error", err)
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) GetAll(ctx context.Context, domainFilter string) ([]domain.Project, error) {
	q := r.db.WithContext(ctx).Preload("RemoteEnvs")
	if domainFilter != "" {
		q = q.Where("domain = ?", domainFilter)
	}

	var projects []domain.Project
	if err := q.Order("name ASC").Find(&projects).Error; err != nil {
		r.log.Errorw("project_repo_list_failed", "error", err)
		return nil, err
	}
	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		r.log.Errorw("project_repo_update_failed", "id", project.ID, "error", err)
		return err
	}
	return nil
}

package services

import (
	"context"
	"errors"

	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/domain"
	"github.com/atwboard/backend/internal/infrastructure/logger"
	"github.com/atwboard/backend/internal/infrastructure/remote"
	"gorm.io/gorm"
)

type ProjectServiceConfig struct {
	ProjectRepo ports.ProjectRepository
	Logger      *logger.Logger
}

type projectService struct {
	repo ports.ProjectRepository
	log  *logger.Logger
}

func NewProjectService(cfg ProjectServiceConfig) ports.ProjectService {
	return &projectService{repo: cfg.ProjectRepo, log: cfg.Logger}
}

func (s *projectService) List(ctx context.Context, domainFilter string) ([]domain.Project, error) {
	return s.repo.GetAll(ctx, domainFilter)
}

func (s *projectService) Get(ctx context.Context, name string) (*domain.Project, error) {
	project, err := s.repo.GetByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	return project, err
}

func (s *projectService) CheckRemoteEnv(ctx context.Context, projectName, envName string) error {
	project, err := s.Get(ctx, projectName)
	if err != nil {
		return err
	}

	var env *domain.RemoteEnv
	if envName == "" {
		env = project.DefaultRemoteEnv()
	} else {
		for i := range project.RemoteEnvs {
			if project.RemoteEnvs[i].Name == envName {
				env = &project.RemoteEnvs[i]
				break
			}
		}
	}
	if env == nil {
		return ErrNoRemoteEnv
	}

	client := remote.NewSSHClient(remote.SSHConfig{
		Host:   env.Host,
		Port:   env.SSHPort,
		User:   env.User,
		SSHKey: env.SSHKey,
	})
	if err := client.Check(); err != nil {
		s.log.Warnw("project_remote_env_check_failed",
			"project", projectName, "env", env.Name, "host", env.Host, "error", err)
		return err
	}

	s.log.Infow("project_remote_env_check_ok", "project", projectName, "env", env.Name)
	return nil
}

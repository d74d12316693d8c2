package db

import (
	"github.com/atwboard/backend/internal/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Project{},
		&domain.RemoteEnv{},
		&domain.Task{},
	)
	if err != nil {
		return err
	}

	return createCustomIndexes(db)
}

func createCustomIndexes(db *gorm.DB) error {
	// Queue ordering scan: queued-column statuses by ascending priority.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tasks_queue_order
		ON tasks (priority, id)
		WHERE status IN ('ready', 'conclude')
	`).Error; err != nil {
		return err
	}

	// One default remote environment per project.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_remote_envs_default
		ON remote_envs (project_id)
		WHERE is_default
	`).Error; err != nil {
		return err
	}

	return nil
}

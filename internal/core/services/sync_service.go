package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/sftp"
	"gorm.io/gorm"

	"github.com/atwboard/backend/internal/config"
	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/domain"
	"github.com/atwboard/backend/internal/infrastructure/logger"
	"github.com/atwboard/backend/internal/infrastructure/remote"
)

type SyncServiceConfig struct {
	Config   config.SyncConfig
	TaskRepo ports.TaskRepository
	Notifier ports.Notifier
	Logger   *logger.Logger
}

type syncService struct {
	cfg      config.SyncConfig
	repo     ports.TaskRepository
	notifier ports.Notifier
	log      *logger.Logger
}

func NewSyncService(cfg SyncServiceConfig) ports.SyncService {
	return &syncService{
		cfg:      cfg.Config,
		repo:     cfg.TaskRepo,
		notifier: cfg.Notifier,
		log:      cfg.Logger,
	}
}

// ==================== TASK IMPORT ====================

// SyncTasks imports tickets dropped into <data_dir>/tasks by the ticketing
// exporter. Each subdirectory is one ticket: the directory name is the
// source id and ticket.raw.md holds the raw ticket text, first line first.
// Already-imported tickets are skipped, so the import is idempotent.
func (s *syncService) SyncTasks(ctx context.Context) (int, string, error) {
	tasksDir := filepath.Join(s.cfg.DataDir, "tasks")
	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, "no tasks directory; nothing to import", nil
		}
		return 0, "", err
	}

	var out strings.Builder
	imported := 0
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		sourceID := entry.Name()

		_, err := s.repo.GetBySourceID(ctx, sourceID)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return imported, out.String(), err
		}

		resourcesPath := filepath.Join(tasksDir, sourceID)
		name, summary := readTicket(filepath.Join(resourcesPath, "ticket.raw.md"))
		if name == "" {
			name = sourceID
		}

		sid := sourceID
		task := &domain.Task{
			SourceID:      &sid,
			Name:          name,
			Summary:       summary,
			Status:        domain.StatusNew,
			Type:          domain.TaskTypeUnclassified,
			Priority:      domain.PriorityDefault,
			ResourcesPath: resourcesPath,
		}
		if err := s.repo.Create(ctx, task); err != nil {
			s.log.Errorw("sync_import_failed", "source_id", sourceID, "error", err)
			fmt.Fprintf(&out, "failed %s: %v\n", sourceID, err)
			continue
		}

		imported++
		fmt.Fprintf(&out, "imported %s: %s\n", sourceID, name)
		s.notifier.Broadcast(domain.NotificationEvent{
			Type:      "task_created",
			TaskID:    sourceID,
			TaskName:  name,
			NewStatus: string(domain.StatusNew),
			Detail:    "imported from ticketing source",
		})
	}

	s.log.Infow("sync_tasks_done", "imported", imported)
	return imported, out.String(), nil
}

// readTicket pulls the title (first heading or first non-blank line) and the
// remainder as summary.
func readTicket(path string) (name, summary string) {
	f, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer f.Close()

	var body strings.Builder
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if name == "" {
			if line == "" {
				continue
			}
			name = strings.TrimSpace(strings.TrimLeft(line, "# "))
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	return name, strings.TrimSpace(body.String())
}

// ==================== DATA MIRROR ====================

func (s *syncService) SyncData(ctx context.Context, opts ports.SyncOptions) (string, error) {
	if !opts.ToRemote && !opts.FromRemote {
		opts.ToRemote = true
	}
	if s.cfg.RemoteHost == "" {
		return "", ErrNoRemoteEnv
	}

	key, err := os.ReadFile(s.cfg.RemoteKeyPath)
	if err != nil {
		return "", fmt.Errorf("reading sync key: %w", err)
	}

	sshClient, err := remote.NewSSHClient(remote.SSHConfig{
		Host:   s.cfg.RemoteHost,
		Port:   s.cfg.RemotePort,
		User:   s.cfg.RemoteUser,
		SSHKey: string(key),
	}).Dial()
	if err != nil {
		return "", err
	}
	defer sshClient.Close()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return "", fmt.Errorf("sftp session: %w", err)
	}
	defer client.Close()

	var out strings.Builder
	if opts.ToRemote {
		if err := s.pushDir(client, &out, opts.DryRun); err != nil {
			return out.String(), err
		}
	}
	if opts.FromRemote {
		if err := s.pullDir(client, &out, opts.DryRun); err != nil {
			return out.String(), err
		}
	}

	s.log.Infow("sync_data_done", "dry_run", opts.DryRun, "to_remote", opts.ToRemote, "from_remote", opts.FromRemote)
	return out.String(), nil
}

// pushDir mirrors the local data directory onto the remote. Files are copied
// when missing remotely or when the local copy is newer.
func (s *syncService) pushDir(client *sftp.Client, out *strings.Builder, dryRun bool) error {
	return filepath.Walk(s.cfg.DataDir, func(local string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.cfg.DataDir, local)
		if err != nil {
			return err
		}
		if rel == "." || strings.HasPrefix(filepath.Base(rel), ".") {
			if info.IsDir() && rel != "." && strings.HasPrefix(filepath.Base(rel), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		remotePath := path.Join(s.cfg.RemoteDir, filepath.ToSlash(rel))
		if info.IsDir() {
			if dryRun {
				return nil
			}
			return client.MkdirAll(remotePath)
		}

		rInfo, err := client.Stat(remotePath)
		if err == nil && !rInfo.ModTime().Before(info.ModTime()) {
			return nil
		}

		fmt.Fprintf(out, "push %s\n", rel)
		if dryRun {
			return nil
		}
		return copyToRemote(client, local, remotePath)
	})
}

// pullDir mirrors the remote data directory into the local one.
func (s *syncService) pullDir(client *sftp.Client, out *strings.Builder, dryRun bool) error {
	walker := client.Walk(s.cfg.RemoteDir)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return err
		}
		info := walker.Stat()
		rel, err := filepath.Rel(s.cfg.RemoteDir, walker.Path())
		if err != nil || rel == "." {
			continue
		}
		if strings.HasPrefix(filepath.Base(rel), ".") {
			if info.IsDir() {
				walker.SkipDir()
			}
			continue
		}

		local := filepath.Join(s.cfg.DataDir, rel)
		if info.IsDir() {
			if !dryRun {
				if err := os.MkdirAll(local, 0o755); err != nil {
					return err
				}
			}
			continue
		}

		lInfo, err := os.Stat(local)
		if err == nil && !lInfo.ModTime().Before(info.ModTime()) {
			continue
		}

		fmt.Fprintf(out, "pull %s\n", rel)
		if dryRun {
			continue
		}
		if err := copyFromRemote(client, walker.Path(), local); err != nil {
			return err
		}
	}
	return nil
}

func copyToRemote(client *sftp.Client, local, remotePath string) error {
	src, err := os.Open(local)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := client.MkdirAll(path.Dir(remotePath)); err != nil {
		return err
	}
	dst, err := client.Create(remotePath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func copyFromRemote(client *sftp.Client, remotePath, local string) error {
	src, err := client.Open(remotePath)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(local)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

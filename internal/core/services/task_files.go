package services

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/atwboard/backend/internal/domain"
)

// maxFileReadSize caps file-explorer reads. Workflow artifacts are markdown
// and logs; anything past 1 MiB is served truncated via Tail-style tooling,
// not the explorer.
const maxFileReadSize = 1 << 20

// resolveTaskPath joins a client-supplied relative path onto the task's
// resources directory, rejecting anything that would escape it.
func resolveTaskPath(root, rel string) (string, error) {
	if root == "" {
		return "", ErrNoResources
	}
	if filepath.IsAbs(rel) {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	if clean == "." {
		return root, nil
	}
	return filepath.Join(root, clean), nil
}

func taskArtifactPaths(task *domain.Task) domain.TaskPaths {
	root := task.ResourcesPath
	if root == "" {
		return domain.TaskPaths{}
	}
	return domain.TaskPaths{
		Resources:     root,
		TicketRaw:     filepath.Join(root, "ticket.raw.md"),
		TicketRevised: filepath.Join(root, "ticket.md"),
		Plan:          filepath.Join(root, "plan.md"),
		Blockers:      filepath.Join(root, "blockers.md"),
	}
}

func (s *taskService) Detail(ctx context.Context, ref string) (*domain.TaskDetail, error) {
	task, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	paths := taskArtifactPaths(task)
	exists := map[string]bool{
		"ticket_raw":     fileExists(paths.TicketRaw),
		"ticket_revised": fileExists(paths.TicketRevised),
		"plan":           fileExists(paths.Plan),
		"blockers":       fileExists(paths.Blockers),
	}

	return &domain.TaskDetail{
		Task:       *task,
		Paths:      paths,
		FilesExist: exists,
	}, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (s *taskService) ListFiles(ctx context.Context, ref string, path string) (*domain.FileListing, error) {
	task, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	dir, err := resolveTaskPath(task.ResourcesPath, path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, ErrInvalidPath
	}
	if !info.IsDir() {
		return nil, ErrNotADir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.log.Errorw("task_files_list_failed", "task", taskRef(task), "path", path, "error", err)
		return nil, err
	}

	files := make([]domain.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		kind := "file"
		if entry.IsDir() {
			kind = "directory"
		}
		rel := entry.Name()
		if clean := filepath.Clean(path); clean != "." && clean != "" {
			rel = filepath.Join(clean, entry.Name())
		}
		files = append(files, domain.FileInfo{
			Name:      entry.Name(),
			Path:      rel,
			Type:      kind,
			Size:      fi.Size(),
			Extension: strings.TrimPrefix(filepath.Ext(entry.Name()), "."),
			Modified:  fi.ModTime().Unix(),
		})
	}

	// Directories first, then alphabetical.
	sort.Slice(files, func(i, j int) bool {
		if files[i].Type != files[j].Type {
			return files[i].Type == "directory"
		}
		return files[i].Name < files[j].Name
	})

	return &domain.FileListing{
		TaskID:        taskRef(task),
		ResourcesPath: task.ResourcesPath,
		CurrentPath:   filepath.Clean(path),
		Files:         files,
	}, nil
}

func (s *taskService) ReadFile(ctx context.Context, ref string, path string) (*domain.FileContent, error) {
	task, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	full, err := resolveTaskPath(task.ResourcesPath, path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, ErrInvalidPath
	}
	if info.IsDir() {
		return nil, ErrNotAFile
	}
	if info.Size() > maxFileReadSize {
		return nil, ErrFileTooLarge
	}

	data, err := os.ReadFile(full)
	if err != nil {
		s.log.Errorw("task_files_read_failed", "task", taskRef(task), "path", path, "error", err)
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, ErrNotText
	}

	return &domain.FileContent{
		TaskID:    taskRef(task),
		Path:      filepath.Clean(path),
		Name:      filepath.Base(full),
		Extension: strings.TrimPrefix(filepath.Ext(full), "."),
		Size:      info.Size(),
		Content:   string(data),
	}, nil
}

package services

import (
	"io"
	"os"
	"strings"

	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/infrastructure/logger"
)

// maxLogReadSize bounds how much of the workflow log one Tail call reads.
const maxLogReadSize = 4 << 20

type LogServiceConfig struct {
	Path   string
	Logger *logger.Logger
}

type logService struct {
	path string
	log  *logger.Logger
}

func NewLogService(cfg LogServiceConfig) ports.LogService {
	return &logService{path: cfg.Path, log: cfg.Logger}
}

// Tail returns the last n lines of the workflow runner log. A missing log
// file means no runs yet, which is empty output, not an error.
func (s *logService) Tail(lines int) (string, error) {
	if lines <= 0 {
		lines = 100
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	offset := int64(0)
	if info.Size() > maxLogReadSize {
		offset = info.Size() - maxLogReadSize
	}
	if _, err := f.Seek(offset, 0); err != nil {
		return "", err
	}

	// A single Read may return early on a large window.
	buf := make([]byte, info.Size()-offset)
	if _, err := io.ReadFull(f, buf); err != nil {
		return "", err
	}

	all := strings.Split(strings.TrimRight(string(buf), "\n"), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}
	return strings.Join(all, "\n"), nil
}

func (s *logService) Clear() error {
	if err := os.Truncate(s.path, 0); err != nil && !os.IsNotExist(err) {
		s.log.Errorw("workflow_log_clear_failed", "path", s.path, "error", err)
		return err
	}
	s.log.Infow("workflow_log_cleared", "path", s.path)
	return nil
}

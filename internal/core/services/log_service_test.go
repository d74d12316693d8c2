package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atwboard/backend/internal/infrastructure/logger"
)

func newTestLogService(t *testing.T, content string) (*logService, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.log")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	svc := NewLogService(LogServiceConfig{Path: path, Logger: logger.NewNop()}).(*logService)
	return svc, path
}

func TestLogTail(t *testing.T) {
	svc, _ := newTestLogService(t, "one\ntwo\nthree\nfour\nfive\n")

	out, err := svc.Tail(2)
	require.NoError(t, err)
	assert.Equal(t, "four\nfive", out)

	out, err = svc.Tail(100)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\nfour\nfive", out)
}

func TestLogTailDefaultsLineCount(t *testing.T) {
	var lines []string
	for i := 0; i < 250; i++ {
		lines = append(lines, "line")
	}
	svc, _ := newTestLogService(t, strings.Join(lines, "\n")+"\n")

	out, err := svc.Tail(0)
	require.NoError(t, err)
	assert.Len(t, strings.Split(out, "\n"), 100)
}

func TestLogTailReadsFullWindowOfLargeFile(t *testing.T) {
	// The log can exceed the read window; every byte of the window must be
	// consumed even when the file no longer fits in one Read.
	var b strings.Builder
	for i := 0; b.Len() < maxLogReadSize+1024; i++ {
		fmt.Fprintf(&b, "run %08d finished\n", i)
	}
	b.WriteString("first marker\nsecond marker\n")
	svc, _ := newTestLogService(t, b.String())

	out, err := svc.Tail(2)
	require.NoError(t, err)
	assert.Equal(t, "first marker\nsecond marker", out)
}

func TestLogTailMissingFile(t *testing.T) {
	svc, _ := newTestLogService(t, "")

	out, err := svc.Tail(10)
	require.NoError(t, err)
	assert.Empty(t, out, "missing log reads as empty, not an error")
}

func TestLogClear(t *testing.T) {
	svc, path := newTestLogService(t, "old content\n")

	require.NoError(t, svc.Clear())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	out, err := svc.Tail(10)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLogClearMissingFile(t *testing.T) {
	svc, _ := newTestLogService(t, "")
	assert.NoError(t, svc.Clear())
}

package services

import "errors"

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrProjectNotFound = errors.New("project not found")

	ErrInvalidPriority = errors.New("priority must be between 1 and 200")
	ErrInvalidType     = errors.New("unknown task type")

	ErrTaskNotRunning = errors.New("task is not running")
	ErrTaskIsRunning  = errors.New("task is already running")
	ErrTaskIsDone     = errors.New("task is done")

	ErrNoRemoteEnv = errors.New("project has no remote environment")

	ErrInvalidPath  = errors.New("invalid path")
	ErrNotAFile     = errors.New("path is not a file")
	ErrNotADir      = errors.New("path is not a directory")
	ErrFileTooLarge = errors.New("file too large")
	ErrNotText      = errors.New("file is not a text file")
	ErrNoResources  = errors.New("task has no resources path")
)

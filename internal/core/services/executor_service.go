package services

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/atwboard/backend/internal/config"
	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/domain"
	"github.com/atwboard/backend/internal/infrastructure/logger"
)

type ExecutorServiceConfig struct {
	Config   config.ExecutorConfig
	TaskRepo ports.TaskRepository
	Tasks    ports.TaskService
	Sync     ports.SyncService
	Notifier ports.Notifier
	Logger   *logger.Logger
}

// runningSlot tracks one occupied executor slot: the task, its runner
// process, and when it started. stopping marks a user-requested stop so reap
// knows the kill is not a runner failure.
type runningSlot struct {
	task      *domain.Task
	cmd       *exec.Cmd
	startedAt time.Time
	stopping  bool
}

type executorService struct {
	cfg      config.ExecutorConfig
	repo     ports.TaskRepository
	tasks    ports.TaskService
	sync     ports.SyncService
	notifier ports.Notifier
	log      *logger.Logger

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	stop      chan struct{}
	slots     map[uint]*runningSlot

	processed int
	completed int
	failed    int
}

func NewExecutorService(cfg ExecutorServiceConfig) ports.ExecutorService {
	if cfg.Config.MaxParallel <= 0 {
		cfg.Config.MaxParallel = 1
	}
	if cfg.Config.PollInterval <= 0 {
		cfg.Config.PollInterval = 2 * time.Second
	}
	return &executorService{
		cfg:      cfg.Config,
		repo:     cfg.TaskRepo,
		tasks:    cfg.Tasks,
		sync:     cfg.Sync,
		notifier: cfg.Notifier,
		log:      cfg.Logger,
		slots:    make(map[uint]*runningSlot),
	}
}

// ==================== LIFECYCLE ====================

func (s *executorService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	s.running = true
	s.startedAt = time.Now()
	s.stop = make(chan struct{})

	go s.admissionLoop(s.stop)

	s.log.Infow("executor_started", "max_parallel", s.cfg.MaxParallel, "poll_interval", s.cfg.PollInterval)
	s.notifier.Broadcast(domain.NotificationEvent{
		Type:   "executor_started",
		Detail: "executor started",
	})
	return nil
}

func (s *executorService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.log.Infow("executor_stopped")
	s.notifier.Broadcast(domain.NotificationEvent{
		Type:   "executor_stopped",
		Detail: "executor stopped; running tasks finish out",
	})
	return nil
}

// admissionLoop fills free slots from the persistent queue until the
// executor is stopped. Running tasks are never interrupted by Stop; the
// loop only stops admitting new ones.
func (s *executorService) admissionLoop(stop chan struct{}) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.admitNext()
		}
	}
}

func (s *executorService) admitNext() {
	s.mu.Lock()
	free := s.cfg.MaxParallel - len(s.slots)
	s.mu.Unlock()
	if free <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	queued, err := s.repo.ListQueued(ctx)
	if err != nil {
		s.log.Errorw("executor_queue_poll_failed", "error", err)
		return
	}

	for i := range queued {
		if free <= 0 {
			return
		}
		task := queued[i]

		s.mu.Lock()
		_, busy := s.slots[task.ID]
		s.mu.Unlock()
		if busy {
			continue
		}

		if err := s.launch(ctx, &task, false); err != nil {
			s.log.Errorw("executor_launch_failed", "task", taskRef(&task), "error", err)
			continue
		}
		free--
	}
}

// launch spawns one runner process for the task and occupies a slot. The
// caller must have verified a slot is free; launch re-checks under the lock.
func (s *executorService) launch(ctx context.Context, task *domain.Task, restart bool) error {
	ref := taskRef(task)
	args := []string{"run", ref}
	if task.Status == domain.StatusConclude {
		args = []string{"conclude", ref}
	}
	if restart {
		args = append(args, "--restart")
	}

	cmd := exec.Command(s.cfg.RunnerCommand, args...)
	if s.cfg.LogPath != "" {
		if logFile := s.openLog(); logFile != nil {
			cmd.Stdout = logFile
			cmd.Stderr = logFile
		}
	}

	s.mu.Lock()
	if len(s.slots) >= s.cfg.MaxParallel {
		s.mu.Unlock()
		return fmt.Errorf("no free executor slot")
	}
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.slots[task.ID] = &runningSlot{task: task, cmd: cmd, startedAt: time.Now()}
	s.processed++
	s.mu.Unlock()

	oldStatus := task.Status
	if err := s.repo.UpdateStatus(ctx, task.ID, domain.StatusRunning); err != nil {
		s.log.Errorw("executor_status_update_failed", "task", ref, "error", err)
	}
	s.log.Infow("executor_task_started", "task", ref, "pid", cmd.Process.Pid, "restart", restart)
	s.notifier.Broadcast(domain.NotificationEvent{
		Type:      "status_change",
		TaskID:    ref,
		TaskName:  task.Name,
		OldStatus: string(oldStatus),
		NewStatus: string(domain.StatusRunning),
		Detail:    "picked up by executor",
	})

	go s.reap(task, oldStatus, cmd)
	return nil
}

// reap waits for the runner to exit, frees the slot, and records the
// outcome. The entry status decides the success landing: ready goes to
// review for human inspection, conclude goes straight to done.
func (s *executorService) reap(task *domain.Task, entryStatus domain.TaskStatus, cmd *exec.Cmd) {
	err := cmd.Wait()
	ref := taskRef(task)

	s.mu.Lock()
	slot := s.slots[task.ID]
	stopped := slot != nil && slot.stopping
	delete(s.slots, task.ID)
	if !stopped {
		if err != nil {
			s.failed++
		} else {
			s.completed++
		}
	}
	s.mu.Unlock()

	if stopped {
		// StopTask owns the landing status and the broadcast; the kill must
		// not count as a failed run.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var newStatus domain.TaskStatus
	detail := ""
	switch {
	case err != nil:
		newStatus = domain.StatusBlocked
		detail = "workflow run failed: " + err.Error()
		s.log.Errorw("executor_task_failed", "task", ref, "error", err)
	case entryStatus == domain.StatusConclude:
		newStatus = domain.StatusDone
		detail = "cleanup finished"
		s.log.Infow("executor_task_concluded", "task", ref)
	default:
		newStatus = domain.StatusReview
		detail = "workflow run finished"
		s.log.Infow("executor_task_completed", "task", ref)
	}

	if uerr := s.repo.UpdateStatus(ctx, task.ID, newStatus); uerr != nil {
		s.log.Errorw("executor_status_update_failed", "task", ref, "error", uerr)
	}
	s.notifier.Broadcast(domain.NotificationEvent{
		Type:      "status_change",
		TaskID:    ref,
		TaskName:  task.Name,
		OldStatus: string(domain.StatusRunning),
		NewStatus: string(newStatus),
		Detail:    detail,
	})
}

func (s *executorService) openLog() *os.File {
	if err := os.MkdirAll(filepath.Dir(s.cfg.LogPath), 0o755); err != nil {
		s.log.Warnw("executor_log_dir_failed", "path", s.cfg.LogPath, "error", err)
		return nil
	}
	f, err := os.OpenFile(s.cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.log.Warnw("executor_log_open_failed", "path", s.cfg.LogPath, "error", err)
		return nil
	}
	return f
}

// ==================== STATUS ====================

func (s *executorService) Status(ctx context.Context) *domain.ExecutorStatus {
	type slotView struct {
		task      *domain.Task
		startedAt time.Time
		pid       int
	}

	s.mu.Lock()
	status := &domain.ExecutorStatus{
		IsRunning:      s.running,
		RunningTasks:   make([]domain.RunningTask, 0, len(s.slots)),
		MaxParallel:    s.cfg.MaxParallel,
		SlotsUsed:      len(s.slots),
		TasksProcessed: s.processed,
		TasksCompleted: s.completed,
		TasksFailed:    s.failed,
	}
	if s.running {
		uptime := time.Since(s.startedAt)
		status.Uptime = uptime.Round(time.Second).String()
		status.UptimeSeconds = uptime.Seconds()
	}
	views := make([]slotView, 0, len(s.slots))
	for _, slot := range s.slots {
		view := slotView{task: slot.task, startedAt: slot.startedAt}
		if slot.cmd.Process != nil {
			view.pid = slot.cmd.Process.Pid
		}
		views = append(views, view)
	}
	s.mu.Unlock()

	// Progress comes from the store; fetch it outside the slot lock so a
	// slow read cannot stall launches and stops.
	now := time.Now()
	for _, view := range views {
		rt := domain.RunningTask{
			SourceID:       taskRef(view.task),
			TaskName:       view.task.Name,
			Type:           view.task.Type,
			PID:            view.pid,
			RuntimeSeconds: now.Sub(view.startedAt).Seconds(),
		}
		if fresh, err := s.repo.GetByID(ctx, view.task.ID); err == nil {
			rt.Progress = fresh.Progress
		}
		status.RunningTasks = append(status.RunningTasks, rt)
	}
	return status
}

// ==================== TASK CONTROL ====================

func (s *executorService) Run(ctx context.Context, ref string, restart, now bool) error {
	task, err := s.tasks.Resolve(ctx, ref)
	if err != nil {
		return err
	}

	s.mu.Lock()
	_, busy := s.slots[task.ID]
	free := s.cfg.MaxParallel - len(s.slots)
	s.mu.Unlock()

	if busy || task.Status == domain.StatusRunning {
		return ErrTaskIsRunning
	}
	if task.Status == domain.StatusDone {
		return ErrTaskIsDone
	}

	if restart {
		if err := s.repo.UpdateProgress(ctx, task.ID, nil); err != nil {
			return err
		}
		task.Progress = nil
	}

	if now && free > 0 {
		return s.launch(ctx, task, restart)
	}

	// No immediate slot: park the task in the persistent queue and let the
	// admission loop pick it up in priority order.
	if !task.Status.ExecutorPickable() {
		if err := s.repo.UpdateStatus(ctx, task.ID, domain.StatusReady); err != nil {
			return err
		}
		s.notifier.Broadcast(domain.NotificationEvent{
			Type:      "status_change",
			TaskID:    taskRef(task),
			TaskName:  task.Name,
			OldStatus: string(task.Status),
			NewStatus: string(domain.StatusReady),
			Detail:    "queued for execution",
		})
	}
	return nil
}

func (s *executorService) StopTask(ctx context.Context, ref string) error {
	task, err := s.tasks.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	if !domain.CanStop(task.Status) {
		return ErrTaskNotRunning
	}

	s.mu.Lock()
	slot, ok := s.slots[task.ID]
	s.mu.Unlock()
	if !ok {
		// Status says running but no slot: stale row from a crashed runner.
		// Reconcile it back to ready.
		if err := s.repo.UpdateStatus(ctx, task.ID, domain.StatusReady); err != nil {
			return err
		}
		return nil
	}

	s.log.Infow("executor_task_stop_requested", "task", taskRef(task), "pid", slot.cmd.Process.Pid)
	// reap observes the kill as a failed Wait and would mark the task
	// blocked; mark the slot first so reap skips the landing status and the
	// failure counter, leaving both to this path. reap still does the Wait
	// and frees the slot.
	s.mu.Lock()
	slot.stopping = true
	s.mu.Unlock()
	if err := slot.cmd.Process.Kill(); err != nil {
		s.log.Warnw("executor_task_kill_failed", "task", taskRef(task), "error", err)
	}

	if err := s.repo.UpdateStatus(ctx, task.ID, domain.StatusReady); err != nil {
		return err
	}
	s.notifier.Broadcast(domain.NotificationEvent{
		Type:      "status_change",
		TaskID:    taskRef(task),
		TaskName:  task.Name,
		OldStatus: string(domain.StatusRunning),
		NewStatus: string(domain.StatusReady),
		Detail:    "stopped by user",
	})
	return nil
}

func (s *executorService) RunAll(ctx context.Context) (int, error) {
	imported, _, err := s.sync.SyncTasks(ctx)
	if err != nil {
		return 0, err
	}

	pending, err := s.repo.List(ctx, ports.TaskFilter{Status: domain.StatusNew})
	if err != nil {
		return imported, err
	}

	queued := 0
	for i := range pending {
		if err := s.repo.UpdateStatus(ctx, pending[i].ID, domain.StatusReady); err != nil {
			s.log.Errorw("executor_run_all_queue_failed", "task", taskRef(&pending[i]), "error", err)
			continue
		}
		queued++
	}

	s.log.Infow("executor_run_all", "imported", imported, "queued", queued)
	s.notifier.Broadcast(domain.NotificationEvent{
		Type:   "run_all_started",
		Detail: fmt.Sprintf("%d tasks queued", queued),
	})
	return queued, nil
}

// ==================== QUEUE ====================

func (s *executorService) Queue(ctx context.Context) (*domain.QueueStatus, error) {
	queued, err := s.repo.ListQueued(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]domain.QueueItem, 0, len(queued))
	for i := range queued {
		items = append(items, domain.QueueItemFromTask(&queued[i]))
	}
	return &domain.QueueStatus{Queue: items, Total: len(items)}, nil
}

func (s *executorService) ClearQueue(ctx context.Context) error {
	queued, err := s.repo.ListQueued(ctx)
	if err != nil {
		return err
	}

	for i := range queued {
		task := &queued[i]
		if err := s.repo.UpdateStatus(ctx, task.ID, domain.StatusRedo); err != nil {
			s.log.Errorw("executor_clear_queue_failed", "task", taskRef(task), "error", err)
			continue
		}
		s.notifier.Broadcast(domain.NotificationEvent{
			Type:      "status_change",
			TaskID:    taskRef(task),
			TaskName:  task.Name,
			OldStatus: string(task.Status),
			NewStatus: string(domain.StatusRedo),
			Detail:    "removed from queue",
		})
	}
	s.log.Infow("executor_queue_cleared", "count", len(queued))
	return nil
}

// ==================== WORKFLOW INTROSPECTION ====================

func (s *executorService) WorkflowStatus(ctx context.Context, ref string) (*domain.WorkflowProgress, error) {
	task, err := s.tasks.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if task.Progress == nil {
		return &domain.WorkflowProgress{ExecutionPhase: domain.PhaseIdle}, nil
	}
	return task.Progress, nil
}

func (s *executorService) WorkflowTypes(ctx context.Context) []domain.WorkflowType {
	return []domain.WorkflowType{
		{Name: string(domain.TaskTypeEstimation), Enabled: true, Description: "Produce an effort estimate from the ticket"},
		{Name: string(domain.TaskTypeFeatureFix), Enabled: true, Description: "Implement a feature or bug fix end to end"},
		{Name: string(domain.TaskTypeInvestigation), Enabled: true, Description: "Investigate and report, no code changes"},
		{Name: string(domain.TaskTypeInstallation), Enabled: true, Description: "Install or deploy onto a remote environment"},
		{Name: string(domain.TaskTypeCodeReview), Enabled: true, Description: "Review a merge request"},
		{Name: string(domain.TaskTypeTriage), Enabled: true, Description: "Classify and route an incoming ticket"},
		{Name: string(domain.TaskTypeUnclassified), Enabled: false, Description: "Awaiting categorization; not runnable"},
	}
}

// ==================== AGENT OPERATIONS ====================

// runRunner invokes the runner binary synchronously and returns its combined
// output. The context bounds the run; callers of long operations pass an
// extended deadline.
func (s *executorService) runRunner(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, s.cfg.RunnerCommand, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("runner %v: %w", args, err)
	}
	return string(out), nil
}

func (s *executorService) Fix(ctx context.Context, ref string) (string, error) {
	task, err := s.tasks.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}

	refStr := taskRef(task)
	s.log.Infow("executor_fix_started", "task", refStr)
	out, err := s.runRunner(ctx, "fix", refStr)
	if err != nil {
		s.log.Errorw("executor_fix_failed", "task", refStr, "error", err)
		return out, err
	}

	s.notifier.Broadcast(domain.NotificationEvent{
		Type:     "fix_completed",
		TaskID:   refStr,
		TaskName: task.Name,
		Detail:   "fix pass finished",
	})
	return out, nil
}

func (s *executorService) Timesheet(ctx context.Context, ref string, prompt string, dryRun bool) (string, error) {
	task, err := s.tasks.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}

	refStr := taskRef(task)
	args := []string{"timesheet", refStr}
	if prompt != "" {
		args = append(args, "--prompt", prompt)
	}
	if dryRun {
		args = append(args, "--dry-run")
	}

	s.log.Infow("executor_timesheet_started", "task", refStr, "dry_run", dryRun)
	out, err := s.runRunner(ctx, args...)
	if err != nil {
		s.log.Errorw("executor_timesheet_failed", "task", refStr, "error", err)
		return out, err
	}

	if !dryRun {
		s.notifier.Broadcast(domain.NotificationEvent{
			Type:     "timesheet_submitted",
			TaskID:   refStr,
			TaskName: task.Name,
			Detail:   "timesheet submitted",
		})
	}
	return out, nil
}

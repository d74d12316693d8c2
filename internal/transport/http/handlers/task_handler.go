package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/domain"
	"github.com/atwboard/backend/internal/infrastructure/logger"
	"github.com/atwboard/backend/internal/transport/http/dto"
)

type TaskHandler struct {
	service ports.TaskService
	logger  *logger.Logger
}

func NewTaskHandler(service ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logger}
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	filter := ports.TaskFilter{
		Project:     c.Query("project"),
		Status:      domain.TaskStatus(c.Query("status")),
		Type:        domain.TaskType(c.Query("type")),
		IncludeDone: c.QueryBool("include_done"),
		Limit:       c.QueryInt("limit"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		h.logger.Warnw("tasks_list_bad_status", "status", filter.Status)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "unknown status filter",
		})
	}
	if filter.Type != "" && !filter.Type.Valid() {
		h.logger.Warnw("tasks_list_bad_type", "type", filter.Type)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "unknown type filter",
		})
	}

	tasks, err := h.service.List(c.Context(), filter)
	if err != nil {
		h.logger.Errorw("tasks_list_failed", "error", err)
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"tasks": tasks,
		"total": len(tasks),
	})
}

func (h *TaskHandler) GetDashboard(c *fiber.Ctx) error {
	withProgress := c.QueryBool("progress")
	data, err := h.service.Dashboard(c.Context(), withProgress)
	if err != nil {
		h.logger.Errorw("dashboard_failed", "error", err)
		return respondError(c, err)
	}
	return c.JSON(data)
}

func (h *TaskHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.Context())
	if err != nil {
		h.logger.Errorw("tasks_summary_failed", "error", err)
		return respondError(c, err)
	}
	return c.JSON(summary)
}

func (h *TaskHandler) GetBlocked(c *fiber.Ctx) error {
	tasks, err := h.service.Blocked(c.Context())
	if err != nil {
		h.logger.Errorw("tasks_blocked_failed", "error", err)
		return respondError(c, err)
	}
	return c.JSON(tasks)
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	detail, err := h.service.Detail(c.Context(), c.Params("id"))
	if err != nil {
		h.logger.Warnw("task_get_failed", "id", c.Params("id"), "error", err)
		return respondError(c, err)
	}
	return c.JSON(detail)
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("task_create_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	if errors := req.Validate(); len(errors) > 0 {
		h.logger.Warnw("task_create_validation_failed", "details", errors)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Details: errors,
		})
	}

	h.logger.Infow("task_create_request", "name", req.Name, "project", req.Project)
	task, err := h.service.Create(c.Context(), ports.CreateTaskInput{
		Project:     req.Project,
		Name:        req.Name,
		SourceID:    req.SourceID,
		Type:        domain.TaskType(req.Type),
		Description: req.Description,
	})
	if err != nil {
		h.logger.Errorw("task_create_failed", "name", req.Name, "error", err)
		return respondError(c, err)
	}

	h.logger.Infow("task_create_success", "id", task.ID, "name", task.Name)
	return c.Status(fiber.StatusCreated).JSON(task)
}

// transition wraps the status-changing endpoints, which differ only in the
// service call.
func (h *TaskHandler) transition(c *fiber.Ctx, event string, apply func(string) (*domain.Task, error)) error {
	ref := c.Params("id")
	h.logger.Infow(event+"_request", "id", ref)
	task, err := apply(ref)
	if err != nil {
		h.logger.Warnw(event+"_failed", "id", ref, "error", err)
		return respondError(c, err)
	}
	return c.JSON(task)
}

func (h *TaskHandler) ApproveTask(c *fiber.Ctx) error {
	return h.transition(c, "task_approve", func(ref string) (*domain.Task, error) {
		return h.service.Approve(c.Context(), ref)
	})
}

func (h *TaskHandler) UnblockTask(c *fiber.Ctx) error {
	return h.transition(c, "task_unblock", func(ref string) (*domain.Task, error) {
		return h.service.Unblock(c.Context(), ref)
	})
}

func (h *TaskHandler) FinishTask(c *fiber.Ctx) error {
	return h.transition(c, "task_finish", func(ref string) (*domain.Task, error) {
		return h.service.Finish(c.Context(), ref)
	})
}

func (h *TaskHandler) ResetTask(c *fiber.Ctx) error {
	return h.transition(c, "task_reset", func(ref string) (*domain.Task, error) {
		return h.service.Reset(c.Context(), ref)
	})
}

func (h *TaskHandler) MarkTaskDone(c *fiber.Ctx) error {
	return h.transition(c, "task_done", func(ref string) (*domain.Task, error) {
		return h.service.MarkDone(c.Context(), ref)
	})
}

func (h *TaskHandler) PassTesting(c *fiber.Ctx) error {
	return h.transition(c, "task_pass", func(ref string) (*domain.Task, error) {
		return h.service.PassTesting(c.Context(), ref)
	})
}

func (h *TaskHandler) FailTesting(c *fiber.Ctx) error {
	var req dto.FailTestingRequest
	// The body is optional; a bare POST fails with no reason recorded.
	_ = c.BodyParser(&req)

	return h.transition(c, "task_fail", func(ref string) (*domain.Task, error) {
		return h.service.FailTesting(c.Context(), ref, req.Reason)
	})
}

func (h *TaskHandler) UpdatePriority(c *fiber.Ctx) error {
	var req dto.PriorityUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("task_priority_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	return h.transition(c, "task_priority", func(ref string) (*domain.Task, error) {
		return h.service.SetPriority(c.Context(), ref, req.Priority)
	})
}

func (h *TaskHandler) UpdateType(c *fiber.Ctx) error {
	var req dto.TypeUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("task_type_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	return h.transition(c, "task_type", func(ref string) (*domain.Task, error) {
		return h.service.SetType(c.Context(), ref, domain.TaskType(req.Type))
	})
}

func (h *TaskHandler) CategorizeTask(c *fiber.Ctx) error {
	return h.transition(c, "task_categorize", func(ref string) (*domain.Task, error) {
		return h.service.Categorize(c.Context(), ref)
	})
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	ref := c.Params("id")
	h.logger.Infow("task_delete_request", "id", ref)
	if err := h.service.Delete(c.Context(), ref); err != nil {
		h.logger.Warnw("task_delete_failed", "id", ref, "error", err)
		return respondError(c, err)
	}

	h.logger.Infow("task_delete_success", "id", ref)
	return c.JSON(dto.SuccessResponse{
		Message: "task deleted successfully",
	})
}

func (h *TaskHandler) ListFiles(c *fiber.Ctx) error {
	ref := c.Params("id")
	path := c.Query("path", ".")
	listing, err := h.service.ListFiles(c.Context(), ref, path)
	if err != nil {
		h.logger.Warnw("task_files_list_failed", "id", ref, "path", path, "error", err)
		return respondError(c, err)
	}
	return c.JSON(listing)
}

func (h *TaskHandler) ReadFile(c *fiber.Ctx) error {
	ref := c.Params("id")
	path := c.Query("path")
	if path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "path query parameter is required",
		})
	}

	content, err := h.service.ReadFile(c.Context(), ref, path)
	if err != nil {
		h.logger.Warnw("task_file_read_failed", "id", ref, "path", path, "error", err)
		return respondError(c, err)
	}
	return c.JSON(content)
}

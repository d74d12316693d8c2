package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/infrastructure/logger"
	"github.com/atwboard/backend/internal/transport/http/dto"
)

// agentOperationTimeout bounds the long AI-agent endpoints (fix, timesheet).
// Clients use a matching extended timeout for these calls.
const agentOperationTimeout = 180 * time.Second

// WorkflowHandler serves workflow introspection and the long-running agent
// operations.
type WorkflowHandler struct {
	service ports.ExecutorService
	logs    ports.LogService
	logger  *logger.Logger
}

func NewWorkflowHandler(service ports.ExecutorService, logs ports.LogService, logger *logger.Logger) *WorkflowHandler {
	return &WorkflowHandler{service: service, logs: logs, logger: logger}
}

func (h *WorkflowHandler) GetWorkflowStatus(c *fiber.Ctx) error {
	ref := c.Params("id")
	progress, err := h.service.WorkflowStatus(c.Context(), ref)
	if err != nil {
		h.logger.Warnw("workflow_status_failed", "id", ref, "error", err)
		return respondError(c, err)
	}
	return c.JSON(progress)
}

func (h *WorkflowHandler) GetWorkflowTypes(c *fiber.Ctx) error {
	return c.JSON(h.service.WorkflowTypes(c.Context()))
}

func (h *WorkflowHandler) FixTask(c *fiber.Ctx) error {
	ref := c.Params("id")

	ctx, cancel := context.WithTimeout(c.Context(), agentOperationTimeout)
	defer cancel()

	h.logger.Infow("workflow_fix_request", "id", ref)
	output, err := h.service.Fix(ctx, ref)
	if err != nil {
		h.logger.Errorw("workflow_fix_failed", "id", ref, "error", err)
		return respondError(c, err)
	}

	h.logger.Infow("workflow_fix_success", "id", ref)
	return c.JSON(dto.AgentOutputResponse{Output: output})
}

func (h *WorkflowHandler) SubmitTimesheet(c *fiber.Ctx) error {
	ref := c.Params("id")

	var req dto.TimesheetRequest
	_ = c.BodyParser(&req)

	ctx, cancel := context.WithTimeout(c.Context(), agentOperationTimeout)
	defer cancel()

	h.logger.Infow("timesheet_request", "id", ref, "dry_run", req.DryRun)
	output, err := h.service.Timesheet(ctx, ref, req.Prompt, req.DryRun)
	if err != nil {
		h.logger.Errorw("timesheet_failed", "id", ref, "error", err)
		return respondError(c, err)
	}

	return c.JSON(dto.AgentOutputResponse{Output: output})
}

func (h *WorkflowHandler) GetLogs(c *fiber.Ctx) error {
	lines := c.QueryInt("lines", 100)
	content, err := h.logs.Tail(lines)
	if err != nil {
		h.logger.Errorw("workflow_logs_failed", "error", err)
		return respondError(c, err)
	}
	return c.JSON(dto.LogTailResponse{Lines: lines, Content: content})
}

func (h *WorkflowHandler) ClearLogs(c *fiber.Ctx) error {
	h.logger.Infow("workflow_logs_clear_request")
	if err := h.logs.Clear(); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Message: "logs cleared"})
}

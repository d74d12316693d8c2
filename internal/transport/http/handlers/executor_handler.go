package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/infrastructure/logger"
	"github.com/atwboard/backend/internal/transport/http/dto"
)

type ExecutorHandler struct {
	service ports.ExecutorService
	logger  *logger.Logger
}

func NewExecutorHandler(service ports.ExecutorService, logger *logger.Logger) *ExecutorHandler {
	return &ExecutorHandler{service: service, logger: logger}
}

func (h *ExecutorHandler) GetStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status(c.Context()))
}

func (h *ExecutorHandler) Start(c *fiber.Ctx) error {
	h.logger.Infow("executor_start_request")
	if err := h.service.Start(c.Context()); err != nil {
		h.logger.Errorw("executor_start_failed", "error", err)
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Message: "executor started"})
}

func (h *ExecutorHandler) Stop(c *fiber.Ctx) error {
	h.logger.Infow("executor_stop_request")
	if err := h.service.Stop(c.Context()); err != nil {
		h.logger.Errorw("executor_stop_failed", "error", err)
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Message: "executor stopped"})
}

func (h *ExecutorHandler) RunTask(c *fiber.Ctx) error {
	ref := c.Params("id")

	var req dto.RunWorkflowRequest
	// Options body is optional; a bare POST queues with defaults.
	_ = c.BodyParser(&req)

	h.logger.Infow("workflow_run_request", "id", ref, "restart", req.Restart, "now", req.Now)
	if err := h.service.Run(c.Context(), ref, req.Restart, req.Now); err != nil {
		h.logger.Warnw("workflow_run_failed", "id", ref, "error", err)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.SuccessResponse{
		Message: "workflow queued",
	})
}

func (h *ExecutorHandler) StopTask(c *fiber.Ctx) error {
	ref := c.Params("id")
	h.logger.Infow("workflow_stop_request", "id", ref)
	if err := h.service.StopTask(c.Context(), ref); err != nil {
		h.logger.Warnw("workflow_stop_failed", "id", ref, "error", err)
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Message: "workflow stopped"})
}

func (h *ExecutorHandler) RunAll(c *fiber.Ctx) error {
	h.logger.Infow("run_all_request")
	queued, err := h.service.RunAll(c.Context())
	if err != nil {
		h.logger.Errorw("run_all_failed", "error", err)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.RunAllResponse{
		Message: fmt.Sprintf("%d tasks queued", queued),
		Queued:  queued,
	})
}

func (h *ExecutorHandler) GetQueue(c *fiber.Ctx) error {
	queue, err := h.service.Queue(c.Context())
	if err != nil {
		h.logger.Errorw("queue_get_failed", "error", err)
		return respondError(c, err)
	}
	return c.JSON(queue)
}

func (h *ExecutorHandler) ClearQueue(c *fiber.Ctx) error {
	h.logger.Infow("queue_clear_request")
	if err := h.service.ClearQueue(c.Context()); err != nil {
		h.logger.Errorw("queue_clear_failed", "error", err)
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Message: "queue cleared"})
}

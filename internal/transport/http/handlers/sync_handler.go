package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/infrastructure/logger"
	"github.com/atwboard/backend/internal/transport/http/dto"
)

type SyncHandler struct {
	service ports.SyncService
	logger  *logger.Logger
}

func NewSyncHandler(service ports.SyncService, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{service: service, logger: logger}
}

func (h *SyncHandler) SyncTasks(c *fiber.Ctx) error {
	h.logger.Infow("sync_tasks_request")
	imported, output, err := h.service.SyncTasks(c.Context())
	if err != nil {
		h.logger.Errorw("sync_tasks_failed", "error", err)
		return respondError(c, err)
	}

	h.logger.Infow("sync_tasks_success", "imported", imported)
	return c.JSON(fiber.Map{
		"message":  fmt.Sprintf("%d tasks imported", imported),
		"imported": imported,
		"output":   output,
	})
}

func (h *SyncHandler) SyncData(c *fiber.Ctx) error {
	var req dto.SyncDataRequest
	_ = c.BodyParser(&req)

	h.logger.Infow("sync_data_request", "dry_run", req.DryRun, "to_remote", req.ToRemote, "from_remote", req.FromRemote)
	output, err := h.service.SyncData(c.Context(), ports.SyncOptions{
		DryRun:     req.DryRun,
		ToRemote:   req.ToRemote,
		FromRemote: req.FromRemote,
	})
	if err != nil {
		h.logger.Errorw("sync_data_failed", "error", err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "sync completed",
		"output":  output,
	})
}

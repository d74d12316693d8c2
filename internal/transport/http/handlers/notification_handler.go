package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/atwboard/backend/internal/domain"
	"github.com/atwboard/backend/internal/infrastructure/logger"
	"github.com/atwboard/backend/internal/notify"
	"github.com/atwboard/backend/internal/transport/http/dto"
)

// NotificationHandler serves the debug surface of the notification hub. The
// WebSocket endpoint itself is wired in the router via the hub.
type NotificationHandler struct {
	hub    *notify.Hub
	logger *logger.Logger
}

func NewNotificationHandler(hub *notify.Hub, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{hub: hub, logger: logger}
}

// SendTest pushes a synthetic notification to every connected client.
func (h *NotificationHandler) SendTest(c *fiber.Ctx) error {
	var req dto.NotificationTestRequest
	_ = c.BodyParser(&req)

	if req.Type == "" {
		req.Type = "test"
	}
	if req.Detail == "" {
		req.Detail = "test notification"
	}

	h.logger.Infow("notification_test_request", "type", req.Type, "task_id", req.TaskID)
	h.hub.Broadcast(domain.NotificationEvent{
		Type:   req.Type,
		TaskID: req.TaskID,
		Detail: req.Detail,
	})
	return c.JSON(dto.SuccessResponse{Message: "notification sent"})
}

func (h *NotificationHandler) Debug(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connected_clients":  h.hub.ClientCount(),
		"keepalive_interval": notify.KeepaliveInterval.String(),
	})
}

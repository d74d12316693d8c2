package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/atwboard/backend/internal/core/services"
	"github.com/atwboard/backend/internal/domain"
	"github.com/atwboard/backend/internal/transport/http/dto"
)

// statusForError maps service sentinels to HTTP status codes. Everything
// unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, services.ErrTaskIsRunning),
		errors.Is(err, services.ErrTaskNotRunning),
		errors.Is(err, services.ErrTaskIsDone):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidType),
		errors.Is(err, services.ErrInvalidPath),
		errors.Is(err, services.ErrNotAFile),
		errors.Is(err, services.ErrNotADir),
		errors.Is(err, services.ErrNoResources),
		errors.Is(err, services.ErrNoRemoteEnv):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrNotText):
		return fiber.StatusUnsupportedMediaType
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(dto.ErrorResponse{
		Error: err.Error(),
	})
}

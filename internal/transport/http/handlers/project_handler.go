package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/infrastructure/logger"
	"github.com/atwboard/backend/internal/transport/http/dto"
)

type ProjectHandler struct {
	service ports.ProjectService
	logger  *logger.Logger
}

func NewProjectHandler(service ports.ProjectService, logger *logger.Logger) *ProjectHandler {
	return &ProjectHandler{service: service, logger: logger}
}

func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.service.List(c.Context(), c.Query("domain"))
	if err != nil {
		h.logger.Errorw("projects_list_failed", "error", err)
		return respondError(c, err)
	}
	return c.JSON(projects)
}

func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	name := c.Params("name")
	project, err := h.service.Get(c.Context(), name)
	if err != nil {
		h.logger.Warnw("project_get_failed", "name", name, "error", err)
		return respondError(c, err)
	}
	return c.JSON(project)
}

func (h *ProjectHandler) CheckRemoteEnv(c *fiber.Ctx) error {
	name := c.Params("name")
	env := c.Query("env")

	h.logger.Infow("project_env_check_request", "name", name, "env", env)
	if err := h.service.CheckRemoteEnv(c.Context(), name, env); err != nil {
		h.logger.Warnw("project_env_check_failed", "name", name, "env", env, "error", err)
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{Message: "remote environment reachable"})
}

package dto

import (
	"github.com/atwboard/backend/internal/domain"
)

type CreateTaskRequest struct {
	Project     string `json:"project,omitempty"`
	Name        string `json:"name" validate:"required"`
	SourceID    string `json:"source_id,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

func (r *CreateTaskRequest) Validate() []string {
	var errors []string

	if r.Name == "" {
		errors = append(errors, "name is required")
	}
	if r.Type != "" && !domain.TaskType(r.Type).Valid() {
		errors = append(errors, "type must be one of: estimation, feature-fix, investigation, installation, code-review, triage, unclassified")
	}

	return errors
}

type PriorityUpdateRequest struct {
	Priority int `json:"priority" validate:"required"`
}

type TypeUpdateRequest struct {
	Type string `json:"type" validate:"required"`
}

type FailTestingRequest struct {
	Reason string `json:"reason,omitempty"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ==================== ENUMS ====================

type TaskType string

const (
	TaskTypeEstimation    TaskType = "estimation"
	TaskTypeFeatureFix    TaskType = "feature-fix"
	TaskTypeInvestigation TaskType = "investigation"
	TaskTypeInstallation  TaskType = "installation"
	TaskTypeCodeReview    TaskType = "code-review"
	TaskTypeTriage        TaskType = "triage"
	TaskTypeUnclassified  TaskType = "unclassified"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeEstimation, TaskTypeFeatureFix, TaskTypeInvestigation,
		TaskTypeInstallation, TaskTypeCodeReview, TaskTypeTriage, TaskTypeUnclassified:
		return true
	}
	return false
}

type ExecutionPhase string

const (
	PhaseIdle     ExecutionPhase = "idle"
	PhaseMain     ExecutionPhase = "main"
	PhaseConclude ExecutionPhase = "conclude"
)

// ==================== JSONB TYPES ====================

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan JSONB: invalid type")
	}
	return json.Unmarshal(bytes, j)
}

type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan StringList: invalid type")
	}
	return json.Unmarshal(bytes, l)
}

// ==================== WORKFLOW PROGRESS ====================

// StepCounts breaks a workflow run down by step outcome. ProgressPercent is
// reported separately because AI-driven steps are open-ended and the two can
// legitimately disagree.
type StepCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Pending   int `json:"pending"`
}

type CurrentStep struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

type WorkflowProgress struct {
	ExecutionPhase  ExecutionPhase `json:"execution_phase"`
	CurrentStep     CurrentStep    `json:"current_step"`
	Steps           StepCounts     `json:"steps"`
	ProgressPercent float64        `json:"progress_percent"`
}

func (p WorkflowProgress) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *WorkflowProgress) Scan(value interface{}) error {
	if value == nil {
		*p = WorkflowProgress{ExecutionPhase: PhaseIdle}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan WorkflowProgress: invalid type")
	}
	return json.Unmarshal(bytes, p)
}

// ==================== ENTITIES ====================

// Task is the central entity. Tasks are hard-deleted on user request, never
// soft-deleted, so there is no DeletedAt column.
type Task struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// SourceID is the external ticketing-system identifier. Nullable: tasks
	// created by hand have none until synced.
	SourceID *string `gorm:"size:64;index" json:"source_id"`

	Name    string     `gorm:"size:255;not null" json:"name"`
	Summary string     `gorm:"type:text" json:"summary,omitempty"`
	Status  TaskStatus `gorm:"size:20;not null;default:'new';index" json:"status"`
	Type    TaskType   `gorm:"size:30;not null;default:'unclassified';index" json:"type"`

	// Priority: lower = higher priority, valid range [1,200]. Ties allowed;
	// display order tie-breaks on id.
	Priority int `gorm:"not null;default:100" json:"priority"`

	Tags           StringList `gorm:"type:jsonb" json:"tags"`
	AllocatedHours float64    `gorm:"default:0" json:"allocated_hours"`
	SpentHours     float64    `gorm:"default:0" json:"spent_hours"`
	Deadline       *time.Time `json:"deadline"`
	SourceURL      string     `gorm:"size:512" json:"source_url,omitempty"`
	ResourcesPath  string     `gorm:"size:512" json:"resources_path,omitempty"`

	Progress *WorkflowProgress `gorm:"type:jsonb" json:"workflow_progress,omitempty"`

	ProjectID *uint    `gorm:"index" json:"project_id,omitempty"`
	Project   *Project `gorm:"constraint:OnDelete:SET NULL" json:"project,omitempty"`
}

func (t *Task) RemainingHours() float64 {
	r := t.AllocatedHours - t.SpentHours
	if r < 0 {
		return 0
	}
	return r
}

func (t *Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Status != StatusDone && now.After(*t.Deadline)
}

// DisplayID prefers the ticketing-system id for executor addressing and UI.
func (t *Task) DisplayID() string {
	if t.SourceID != nil && *t.SourceID != "" {
		return *t.SourceID
	}
	return ""
}

type Project struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name          string `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Domain        string `gorm:"size:100;index" json:"domain"`
	Repository    string `gorm:"size:512" json:"repository"`
	ResourcesPath string `gorm:"size:512" json:"resources_path"`

	RemoteEnvs []RemoteEnv `gorm:"foreignKey:ProjectID" json:"remote_envs,omitempty"`
	Tasks      []Task      `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}

// DefaultRemoteEnv returns the environment flagged as default, if any.
func (p *Project) DefaultRemoteEnv() *RemoteEnv {
	for i := range p.RemoteEnvs {
		if p.RemoteEnvs[i].IsDefault {
			return &p.RemoteEnvs[i]
		}
	}
	return nil
}

type RemoteEnv struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID uint   `gorm:"not null;index" json:"project_id"`
	Name      string `gorm:"size:100;not null" json:"name"`
	Host      string `gorm:"size:255;not null" json:"host"`
	SSHPort   int    `gorm:"default:22" json:"ssh_port"`
	User      string `gorm:"size:100" json:"user"`
	SSHKey    string `gorm:"type:text" json:"-"`
	IsDefault bool   `gorm:"default:false" json:"is_default"`
}

// ==================== QUEUE PROJECTION ====================

// QueueItem is the lightweight projection of a Task shown in the queued
// column. Ordering is ascending priority, then id (stable insertion order).
type QueueItem struct {
	ID       uint     `json:"id"`
	SourceID string   `json:"source_id"`
	Name     string   `json:"name"`
	Type     TaskType `json:"type"`
	Priority int      `json:"priority"`
	Status   string   `json:"status"`
	Project  string   `json:"project"`
}

func QueueItemFromTask(t *Task) QueueItem {
	item := QueueItem{
		ID:       t.ID,
		SourceID: t.DisplayID(),
		Name:     t.Name,
		Type:     t.Type,
		Priority: t.Priority,
		Status:   string(t.Status),
	}
	if t.Project != nil {
		item.Project = t.Project.Name
	}
	return item
}

// ==================== NOTIFICATIONS ====================

// NotificationEvent is the wire shape pushed to dashboard clients. The
// control pseudo-types ping/connected/pong never reach the user.
type NotificationEvent struct {
	Type      string `json:"type"`
	TaskID    string `json:"task_id,omitempty"`
	TaskName  string `json:"task_name,omitempty"`
	OldStatus string `json:"old_status,omitempty"`
	NewStatus string `json:"new_status,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

const (
	EventConnected = "connected"
	EventPing      = "ping"
	EventPong      = "pong"
)

// IsControl reports whether the event is protocol keepalive traffic rather
// than a substantive notification.
func (e NotificationEvent) IsControl() bool {
	return e.Type == EventPing || e.Type == EventConnected || e.Type == EventPong
}

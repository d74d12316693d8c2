package dto

type RunWorkflowRequest struct {
	Restart bool `json:"restart,omitempty"`
	Now     bool `json:"now,omitempty"`
}

type TimesheetRequest struct {
	Prompt string `json:"prompt,omitempty"`
	DryRun bool   `json:"dry_run,omitempty"`
}

type SyncDataRequest struct {
	DryRun     bool `json:"dry_run,omitempty"`
	ToRemote   bool `json:"to_remote,omitempty"`
	FromRemote bool `json:"from_remote,omitempty"`
}

type RunAllResponse struct {
	Message string `json:"message"`
	Queued  int    `json:"queued"`
}

type AgentOutputResponse struct {
	Output string `json:"output"`
}

type LogTailResponse struct {
	Lines   int    `json:"lines"`
	Content string `json:"content"`
}

type NotificationTestRequest struct {
	Type   string `json:"type,omitempty"`
	TaskID string `json:"task_id,omitempty"`
	Detail string `json:"detail,omitempty"`
}

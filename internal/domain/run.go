package domain

import "encoding/json"

// Trigger names why a run was started.
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

// RunArtifact is the immutable, append-only record of a single pipeline run.
type RunArtifact struct {
	TemplateID   string          `json:"template_id"`
	Trigger      Trigger         `json:"trigger"`
	Status       LastStatus      `json:"status"`
	StartedAt    string          `json:"started_at"`
	FinishedAt   string          `json:"finished_at"`
	DurationMs   int64           `json:"duration_ms"`
	AttemptCount int             `json:"attempt_count"`
	Published    bool            `json:"published"`
	Errors       []string        `json:"errors"`
	FillResponse json.RawMessage `json:"fill_response,omitempty"`
}

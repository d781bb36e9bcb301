package models

import (
	"time"
)

// Job types run by the processor.
const (
	JobTypeExport           = "EXPORT_VIDEO"
	JobTypeGenerateCaptions = "GENERATE_CAPTIONS"
)

// Job statuses.
const (
	JobStatusPending    = "PENDING"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

// ProcessingJob represents the state of one job known to this processor.
type ProcessingJob struct {
	ID           string     `json:"id"`
	JobType      string     `json:"job_type"`
	ProjectID    string     `json:"project_id"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"` // Nullable TEXT
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

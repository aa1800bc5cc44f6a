package chat

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one queued page-summary request from the floating page control.
// The page text and screenshot are captured at submit time so the worker
// only has to run the remote call.
type Job struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	TabID string `gorm:"size:64;index"`

	PageText   string `gorm:"type:text;not null"`
	Screenshot string `gorm:"type:text"` // base64 JPEG

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when succeeded
	Result *string `gorm:"type:text"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string { return "summarize_jobs" }

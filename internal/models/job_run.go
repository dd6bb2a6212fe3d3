package models

// JobRun represents one execution of a background job
type JobRun struct {
	ID int64 `json:"id" db:"id"`

	// Job identification
	JobName string `json:"job_name" db:"job_name"` // Which job ran
	Mode    string `json:"mode" db:"mode"`         // INCREMENTAL, FULL_RECOMPUTE
	UID     string `json:"uid,omitempty" db:"uid"` // Empty when the run spans all users

	// Status
	Status          string `json:"status" db:"status"` // pending, running, completed, failed
	ProgressPercent int    `json:"progress_percent" db:"progress_percent"`

	// Execution info
	TotalItems     int `json:"total_items,omitempty" db:"total_items"`
	ProcessedItems int `json:"processed_items" db:"processed_items"`
	SkippedItems   int `json:"skipped_items" db:"skipped_items"`

	// Results
	ResultSummary string `json:"result_summary,omitempty" db:"result_summary"` // One-line outcome
	ErrorMessage  string `json:"error_message,omitempty" db:"error_message"`

	CreatedAt   int64 `json:"created_at" db:"created_at"`               // Unix timestamp
	StartedAt   int64 `json:"started_at,omitempty" db:"started_at"`     // Unix timestamp
	CompletedAt int64 `json:"completed_at,omitempty" db:"completed_at"` // Unix timestamp
}

// Job mode constants
const (
	JobModeIncremental   = "INCREMENTAL"
	JobModeFullRecompute = "FULL_RECOMPUTE"
)

// Job status constants
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

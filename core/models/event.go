package models

import "time"

// JobEvent represents a batch state transition within a job
type JobEvent struct {
	JobID      string
	BatchID    string
	At         time.Time
	FromStatus *BatchStatus // nil for the creation event
	ToStatus   BatchStatus
	JobStatus  JobStatus // Aggregate status after the transition
	Reason     string
}

// Event reasons
const (
	ReasonJobCreated     = "job_created"
	ReasonBatchTriggered = "batch_triggered"
	ReasonBatchCompleted = "batch_completed"
	ReasonBatchFailed    = "external_call_failed"
)

package models

import "time"

// Job represents one accepted ingestion request
type Job struct {
	ID        string
	Priority  Priority
	Status    JobStatus // Derived from batch statuses, never set directly
	Batches   []*Batch  // Creation order
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Batch is a fixed-size group of item ids processed as one scheduling unit
type Batch struct {
	ID         string
	ItemIDs    []int64
	Status     BatchStatus
	Results    []ItemResult // Set when the batch completes
	Error      string       // Set when the batch fails
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// ItemResult is the outcome of processing a single item id
type ItemResult struct {
	ID   int64  `json:"id"`
	Data string `json:"data"`
}

// Priority represents the submission priority of a job
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Rank maps a priority onto its dequeue order. Lower ranks are dequeued first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Priorities lists all priorities in rank order
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// BatchStatus represents the processing state of a batch
type BatchStatus string

const (
	BatchStatusYetToStart BatchStatus = "yet_to_start"
	BatchStatusTriggered  BatchStatus = "triggered"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// Valid reports whether s is one of the known batch statuses
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchStatusYetToStart, BatchStatusTriggered, BatchStatusCompleted, BatchStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s
func (s BatchStatus) Terminal() bool {
	switch s {
	case BatchStatusCompleted, BatchStatusFailed:
		return true
	case BatchStatusYetToStart, BatchStatusTriggered:
		return false
	}
	return false
}

// CanTransitionTo reports whether a batch may move from s to next.
// Statuses only move forward: yet_to_start -> triggered -> completed|failed.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	switch s {
	case BatchStatusYetToStart:
		return next == BatchStatusTriggered
	case BatchStatusTriggered:
		return next == BatchStatusCompleted || next == BatchStatusFailed
	case BatchStatusCompleted, BatchStatusFailed:
		return false
	}
	return false
}

// BatchStatuses lists all batch statuses in lifecycle order
func BatchStatuses() []BatchStatus {
	return []BatchStatus{BatchStatusYetToStart, BatchStatusTriggered, BatchStatusCompleted, BatchStatusFailed}
}

// JobStatus represents the aggregate status of a job
type JobStatus string

const (
	JobStatusYetToStart      JobStatus = "yet_to_start"
	JobStatusTriggered       JobStatus = "triggered"
	JobStatusCompleted       JobStatus = "completed"
	JobStatusFailed          JobStatus = "failed"
	JobStatusPartiallyFailed JobStatus = "partially_failed"
)

// Valid reports whether s is one of the known job statuses
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusYetToStart, JobStatusTriggered, JobStatusCompleted, JobStatusFailed, JobStatusPartiallyFailed:
		return true
	}
	return false
}

// JobStatuses lists all job statuses
func JobStatuses() []JobStatus {
	return []JobStatus{JobStatusYetToStart, JobStatusTriggered, JobStatusCompleted, JobStatusFailed, JobStatusPartiallyFailed}
}

// AggregateStatus derives a job status from the statuses of its batches.
//
// All completed gives completed, all untouched gives yet_to_start. Once every
// batch is terminal and at least one failed the job is failed (every batch
// failed) or partially_failed. Anything else means work has started and the
// job is triggered.
func AggregateStatus(statuses []BatchStatus) JobStatus {
	var yetToStart, triggered, completed, failed int
	for _, s := range statuses {
		switch s {
		case BatchStatusYetToStart:
			yetToStart++
		case BatchStatusTriggered:
			triggered++
		case BatchStatusCompleted:
			completed++
		case BatchStatusFailed:
			failed++
		}
	}

	total := len(statuses)
	switch {
	case total > 0 && completed == total:
		return JobStatusCompleted
	case yetToStart == total:
		return JobStatusYetToStart
	case completed+failed == total && failed == total:
		return JobStatusFailed
	case completed+failed == total:
		return JobStatusPartiallyFailed
	default:
		return JobStatusTriggered
	}
}

// BatchStatuses returns the statuses of the job's batches in creation order
func (j *Job) BatchStatuses() []BatchStatus {
	statuses := make([]BatchStatus, len(j.Batches))
	for i, b := range j.Batches {
		statuses[i] = b.Status
	}
	return statuses
}

// FindBatch returns the batch with the given id, or nil
func (j *Job) FindBatch(batchID string) *Batch {
	for _, b := range j.Batches {
		if b.ID == batchID {
			return b
		}
	}
	return nil
}

// Clone returns a deep copy of the job
func (j *Job) Clone() *Job {
	out := *j
	out.Batches = make([]*Batch, len(j.Batches))
	for i, b := range j.Batches {
		out.Batches[i] = b.Clone()
	}
	return &out
}

// Clone returns a deep copy of the batch
func (b *Batch) Clone() *Batch {
	out := *b
	out.ItemIDs = append([]int64(nil), b.ItemIDs...)
	if b.Results != nil {
		out.Results = append([]ItemResult(nil), b.Results...)
	}
	if b.StartedAt != nil {
		t := *b.StartedAt
		out.StartedAt = &t
	}
	if b.FinishedAt != nil {
		t := *b.FinishedAt
		out.FinishedAt = &t
	}
	return &out
}

package handlers

import (
	"time"

	"batch-ingestor/core/models"
)

// IngestResponse is returned by POST /ingest
type IngestResponse struct {
	IngestionID string `json:"ingestion_id"`
}

// BatchResponse is one batch of a status response
type BatchResponse struct {
	BatchID    string              `json:"batch_id"`
	IDs        []int64             `json:"ids"`
	Status     models.BatchStatus  `json:"status"`
	Error      string              `json:"error,omitempty"`
	Results    []models.ItemResult `json:"results,omitempty"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// StatusResponse is returned by GET /status/{id}
type StatusResponse struct {
	IngestionID string           `json:"ingestion_id"`
	Status      models.JobStatus `json:"status"`
	Priority    models.Priority  `json:"priority"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Batches     []BatchResponse  `json:"batches"`
}

// EventResponse is a single batch transition
type EventResponse struct {
	BatchID    string              `json:"batch_id,omitempty"`
	At         time.Time           `json:"at"`
	FromStatus *models.BatchStatus `json:"from_status,omitempty"`
	ToStatus   models.BatchStatus  `json:"to_status,omitempty"`
	JobStatus  models.JobStatus    `json:"job_status"`
	Reason     string              `json:"reason"`
}

// EventsResponse is returned by GET /status/{id}/events
type EventsResponse struct {
	IngestionID string          `json:"ingestion_id"`
	Items       []EventResponse `json:"items"`
}

// JobSummary is one row of a job listing
type JobSummary struct {
	IngestionID string           `json:"ingestion_id"`
	Status      models.JobStatus `json:"status"`
	Priority    models.Priority  `json:"priority"`
	Batches     int              `json:"batches"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ListJobsResponse is returned by GET /jobs
type ListJobsResponse struct {
	Items []JobSummary `json:"items"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewStatusResponse renders a job snapshot, batches in creation order
func NewStatusResponse(job *models.Job) StatusResponse {
	resp := StatusResponse{
		IngestionID: job.ID,
		Status:      job.Status,
		Priority:    job.Priority,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		Batches:     make([]BatchResponse, len(job.Batches)),
	}
	for i, b := range job.Batches {
		resp.Batches[i] = BatchResponse{
			BatchID:    b.ID,
			IDs:        b.ItemIDs,
			Status:     b.Status,
			Error:      b.Error,
			Results:    b.Results,
			StartedAt:  b.StartedAt,
			FinishedAt: b.FinishedAt,
		}
	}
	return resp
}

// NewEventsResponse renders the transition history of a job
func NewEventsResponse(jobID string, events []models.JobEvent) EventsResponse {
	resp := EventsResponse{IngestionID: jobID, Items: make([]EventResponse, len(events))}
	for i, e := range events {
		resp.Items[i] = EventResponse{
			BatchID:    e.BatchID,
			At:         e.At,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			JobStatus:  e.JobStatus,
			Reason:     e.Reason,
		}
	}
	return resp
}

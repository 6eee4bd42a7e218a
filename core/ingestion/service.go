package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"batch-ingestor/core/models"
	"batch-ingestor/core/repository"
)

// Enqueuer schedules the batches of a freshly created job
type Enqueuer interface {
	Enqueue(job *models.Job)
}

// Service turns ingestion requests into jobs and schedules their batches
type Service struct {
	store    *repository.JobStore
	enqueuer Enqueuer
	audit    repository.AuditSink
	limits   Limits
	logger   *slog.Logger
}

// NewService creates a new ingestion service
func NewService(
	store *repository.JobStore,
	enqueuer Enqueuer,
	audit repository.AuditSink,
	limits Limits,
	logger *slog.Logger,
) *Service {
	if audit == nil {
		audit = repository.NopAuditSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		enqueuer: enqueuer,
		audit:    audit,
		limits:   limits,
		logger:   logger.With("component", "ingestion"),
	}
}

// Ingest validates req, creates the job and enqueues one entry per batch
func (s *Service) Ingest(ctx context.Context, req Request) (*models.Job, error) {
	if err := s.limits.Validate(&req); err != nil {
		return nil, err
	}

	batches := SplitBatches(req.IDs, s.limits.BatchSize)
	job, err := s.store.CreateJob(req.Priority, batches)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := s.audit.RecordJob(ctx, job); err != nil {
		s.logger.Warn("failed to record job in audit log", "job_id", job.ID, "error", err)
	}

	s.enqueuer.Enqueue(job)

	s.logger.Info("job accepted",
		"job_id", job.ID,
		"priority", job.Priority,
		"ids", len(req.IDs),
		"batches", len(job.Batches))
	return job, nil
}

// GetJob returns the current snapshot of a job
func (s *Service) GetJob(jobID string) (*models.Job, error) {
	return s.store.GetJob(jobID)
}

// Events returns the transition history of a job
func (s *Service) Events(jobID string) ([]models.JobEvent, error) {
	return s.store.Events(jobID)
}

// ListJobs returns jobs, most recent first
func (s *Service) ListJobs(status *models.JobStatus, limit int) []*models.Job {
	return s.store.ListJobs(status, limit)
}

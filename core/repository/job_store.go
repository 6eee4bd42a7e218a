package repository

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"batch-ingestor/core/models"

	"github.com/google/uuid"
)

// JobStore is the in-memory source of truth for jobs and their batches.
//
// The map is guarded by one lock and every job by its own, so a batch update
// only blocks readers of that job. Readers always get a deep copy taken under
// the job lock, never a half-applied update.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*jobEntry
	now  func() time.Time
}

type jobEntry struct {
	mu     sync.RWMutex
	job    *models.Job
	events []models.JobEvent
}

// StoreStats counts jobs and batches by status
type StoreStats struct {
	Jobs    map[models.JobStatus]int
	Batches map[models.BatchStatus]int
}

// NewJobStore creates an empty job store
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*jobEntry),
		now:  time.Now,
	}
}

// CreateJob registers a job with one batch per entry of batches. The job
// becomes visible with all of its batches at once.
func (s *JobStore) CreateJob(priority models.Priority, batches [][]int64) (*models.Job, error) {
	if !priority.Valid() {
		return nil, models.NewValidationError("priority", "unknown priority %q", priority)
	}
	if len(batches) == 0 {
		return nil, models.NewValidationError("batches", "job needs at least one batch")
	}

	now := s.now()
	job := &models.Job{
		ID:        uuid.New().String(),
		Priority:  priority,
		Status:    models.JobStatusYetToStart,
		Batches:   make([]*models.Batch, 0, len(batches)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	entry := &jobEntry{job: job}
	for i, ids := range batches {
		if len(ids) == 0 {
			return nil, models.NewValidationError("batches", "batch %d is empty", i)
		}
		batch := &models.Batch{
			ID:      uuid.New().String(),
			ItemIDs: append([]int64(nil), ids...),
			Status:  models.BatchStatusYetToStart,
		}
		job.Batches = append(job.Batches, batch)
		entry.events = append(entry.events, models.JobEvent{
			JobID:     job.ID,
			BatchID:   batch.ID,
			At:        now,
			ToStatus:  models.BatchStatusYetToStart,
			JobStatus: job.Status,
			Reason:    models.ReasonJobCreated,
		})
	}

	s.mu.Lock()
	s.jobs[job.ID] = entry
	s.mu.Unlock()

	return job.Clone(), nil
}

// GetJob returns a snapshot of the job
func (s *JobStore) GetJob(jobID string) (*models.Job, error) {
	entry, err := s.entry(jobID)
	if err != nil {
		return nil, err
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return entry.job.Clone(), nil
}

// Events returns the transition history of the job, oldest first
func (s *JobStore) Events(jobID string) ([]models.JobEvent, error) {
	entry, err := s.entry(jobID)
	if err != nil {
		return nil, err
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return slices.Clone(entry.events), nil
}

// SetBatchStatus moves a batch to status and recomputes the job status in the
// same critical section.
func (s *JobStore) SetBatchStatus(jobID, batchID string, status models.BatchStatus) (*models.JobEvent, error) {
	return s.transition(jobID, batchID, status, reasonFor(status), nil)
}

// CompleteBatch marks a triggered batch completed and stores its results
func (s *JobStore) CompleteBatch(jobID, batchID string, results []models.ItemResult) (*models.JobEvent, error) {
	return s.transition(jobID, batchID, models.BatchStatusCompleted, models.ReasonBatchCompleted, func(b *models.Batch) {
		b.Results = slices.Clone(results)
	})
}

// FailBatch marks a triggered batch failed and records the cause
func (s *JobStore) FailBatch(jobID, batchID string, cause error) (*models.JobEvent, error) {
	return s.transition(jobID, batchID, models.BatchStatusFailed, models.ReasonBatchFailed, func(b *models.Batch) {
		if cause != nil {
			b.Error = cause.Error()
		}
	})
}

func (s *JobStore) transition(jobID, batchID string, to models.BatchStatus, reason string, mutate func(*models.Batch)) (*models.JobEvent, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidTransition, to)
	}

	entry, err := s.entry(jobID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	batch := entry.job.FindBatch(batchID)
	if batch == nil {
		return nil, &models.NotFoundError{Resource: "batch", ID: batchID}
	}

	from := batch.Status
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: batch %s %s -> %s", models.ErrInvalidTransition, batchID, from, to)
	}

	now := s.now()
	batch.Status = to
	switch to {
	case models.BatchStatusTriggered:
		batch.StartedAt = &now
	case models.BatchStatusCompleted, models.BatchStatusFailed:
		batch.FinishedAt = &now
	case models.BatchStatusYetToStart:
	}
	if mutate != nil {
		mutate(batch)
	}

	entry.job.Status = models.AggregateStatus(entry.job.BatchStatuses())
	entry.job.UpdatedAt = now

	event := models.JobEvent{
		JobID:      jobID,
		BatchID:    batchID,
		At:         now,
		FromStatus: &from,
		ToStatus:   to,
		JobStatus:  entry.job.Status,
		Reason:     reason,
	}
	entry.events = append(entry.events, event)

	return &event, nil
}

// ListJobs returns job snapshots, most recent first. A nil status returns all
// jobs; a non-positive limit returns everything that matches.
func (s *JobStore) ListJobs(status *models.JobStatus, limit int) []*models.Job {
	s.mu.RLock()
	entries := make([]*jobEntry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	jobs := make([]*models.Job, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		if status == nil || e.job.Status == *status {
			jobs = append(jobs, e.job.Clone())
		}
		e.mu.RUnlock()
	}

	slices.SortFunc(jobs, func(a, b *models.Job) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs
}

// Count returns the number of jobs in the store
func (s *JobStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Stats counts jobs and batches by status
func (s *JobStore) Stats() StoreStats {
	stats := StoreStats{
		Jobs:    make(map[models.JobStatus]int),
		Batches: make(map[models.BatchStatus]int),
	}
	for _, st := range models.JobStatuses() {
		stats.Jobs[st] = 0
	}
	for _, st := range models.BatchStatuses() {
		stats.Batches[st] = 0
	}

	s.mu.RLock()
	entries := make([]*jobEntry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	for _, e := range entries {
		e.mu.RLock()
		stats.Jobs[e.job.Status]++
		for _, b := range e.job.Batches {
			stats.Batches[b.Status]++
		}
		e.mu.RUnlock()
	}
	return stats
}

func (s *JobStore) entry(jobID string) (*jobEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.jobs[jobID]
	if !ok {
		return nil, &models.NotFoundError{Resource: "job", ID: jobID}
	}
	return entry, nil
}

func reasonFor(status models.BatchStatus) string {
	switch status {
	case models.BatchStatusTriggered:
		return models.ReasonBatchTriggered
	case models.BatchStatusCompleted:
		return models.ReasonBatchCompleted
	case models.BatchStatusFailed:
		return models.ReasonBatchFailed
	case models.BatchStatusYetToStart:
		return models.ReasonJobCreated
	}
	return string(status)
}

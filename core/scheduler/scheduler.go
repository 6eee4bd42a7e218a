package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"batch-ingestor/core/executor"
	"batch-ingestor/core/models"
	"batch-ingestor/core/repository"
)

// DefaultInterval is the minimum pause between two batches
const DefaultInterval = 5 * time.Second

const auditTimeout = 5 * time.Second

// State is the worker loop state
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateWaiting    State = "waiting"
)

// States lists all worker states
func States() []State {
	return []State{StateIdle, StateProcessing, StateWaiting}
}

// Scheduler owns the batch queue and runs the single worker loop that drains
// it. Only one batch is ever in flight, and after each batch the loop pauses
// for the configured interval before dequeuing the next.
type Scheduler struct {
	store     *repository.JobStore
	queue     *BatchQueue
	processor executor.BatchProcessor
	audit     repository.AuditSink
	logger    *slog.Logger
	interval  time.Duration

	mu    sync.RWMutex
	state State

	processed atomic.Int64
	failed    atomic.Int64

	started  atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler creates a new scheduler. A nil audit sink discards audit
// records and a non-positive interval falls back to DefaultInterval.
func NewScheduler(
	store *repository.JobStore,
	queue *BatchQueue,
	processor executor.BatchProcessor,
	audit repository.AuditSink,
	logger *slog.Logger,
	interval time.Duration,
) *Scheduler {
	if audit == nil {
		audit = repository.NopAuditSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		store:     store,
		queue:     queue,
		processor: processor,
		audit:     audit,
		logger:    logger.With("component", "scheduler"),
		interval:  interval,
		state:     StateIdle,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Enqueue schedules every batch of job in creation order
func (s *Scheduler) Enqueue(job *models.Job) {
	for _, batch := range job.Batches {
		s.queue.Enqueue(QueueEntry{
			JobID:    job.ID,
			BatchID:  batch.ID,
			ItemIDs:  batch.ItemIDs,
			Priority: job.Priority,
		})
	}
	s.logger.Debug("job enqueued", "job_id", job.ID, "batches", len(job.Batches), "priority", job.Priority)
}

// Start runs the worker loop until ctx is cancelled or Stop is called.
// Only the first call runs the loop; later calls return immediately.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		s.logger.Warn("scheduler already started")
		return
	}
	defer close(s.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("scheduler started", "interval", s.interval)
	defer s.logger.Info("scheduler stopped")

	for {
		s.setState(StateIdle)
		entry, err := s.queue.Dequeue(ctx)
		if err != nil {
			return
		}

		s.setState(StateProcessing)
		if !s.processEntry(ctx, entry) {
			continue
		}

		s.setState(StateWaiting)
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Stop stops the worker loop. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Wait blocks until the worker loop has exited or ctx is done
func (s *Scheduler) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current worker state
func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// QueueDepth returns the number of batches waiting to be processed
func (s *Scheduler) QueueDepth() map[models.Priority]int {
	return s.queue.DepthByPriority()
}

// Processed returns the number of batches completed by this scheduler
func (s *Scheduler) Processed() int64 {
	return s.processed.Load()
}

// Failed returns the number of batches whose external call failed
func (s *Scheduler) Failed() int64 {
	return s.failed.Load()
}

// Interval returns the pause enforced between batches
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// processEntry runs one batch through the processor and records the outcome.
// It reports whether the external call was made, so the caller knows whether
// the rate-limit pause applies.
func (s *Scheduler) processEntry(ctx context.Context, entry QueueEntry) bool {
	log := s.logger.With(
		"job_id", entry.JobID,
		"batch_id", entry.BatchID,
		"priority", entry.Priority,
		"seq", entry.Seq,
	)

	event, err := s.store.SetBatchStatus(entry.JobID, entry.BatchID, models.BatchStatusTriggered)
	if err != nil {
		log.Error("failed to trigger batch, skipping", "error", err)
		return false
	}
	s.record(log, *event)
	log.Info("batch triggered", "items", len(entry.ItemIDs))

	start := time.Now()
	results, err := s.callProcessor(ctx, entry.ItemIDs)
	duration := time.Since(start)

	if err != nil && ctx.Err() != nil {
		log.Warn("batch abandoned due to shutdown, leaving it triggered", "error", err)
		return true
	}

	if err != nil {
		extErr := &models.ExternalCallError{JobID: entry.JobID, BatchID: entry.BatchID, Err: err}
		event, markErr := s.store.FailBatch(entry.JobID, entry.BatchID, extErr)
		if markErr != nil {
			log.Error("failed to mark batch failed", "error", markErr)
			return true
		}
		s.failed.Add(1)
		s.record(log, *event)
		log.Warn("batch failed",
			"error", extErr,
			"duration_ms", duration.Milliseconds(),
			"job_status", event.JobStatus)
		return true
	}

	event, err = s.store.CompleteBatch(entry.JobID, entry.BatchID, results)
	if err != nil {
		log.Error("failed to mark batch completed", "error", err)
		return true
	}
	s.processed.Add(1)
	s.record(log, *event)
	log.Info("batch completed",
		"duration_ms", duration.Milliseconds(),
		"job_status", event.JobStatus)
	return true
}

// callProcessor invokes the processor, turning panics and short result sets
// into errors so a misbehaving processor cannot take the loop down.
func (s *Scheduler) callProcessor(ctx context.Context, itemIDs []int64) (results []models.ItemResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("processor panicked: %v", r)
		}
	}()

	results, err = s.processor.Process(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	if len(results) != len(itemIDs) {
		return nil, fmt.Errorf("processor returned %d results for %d items", len(results), len(itemIDs))
	}
	return results, nil
}

func (s *Scheduler) record(log *slog.Logger, event models.JobEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	if err := s.audit.RecordEvent(ctx, event); err != nil {
		log.Warn("failed to record audit event", "reason", event.Reason, "error", err)
	}
}

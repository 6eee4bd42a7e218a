package repository

import (
	"context"
	"fmt"

	"batch-ingestor/core/models"

	"github.com/lib/pq"
)

// AuditSink receives every accepted job and every batch transition.
// It is write-only: nothing is read back on startup.
type AuditSink interface {
	RecordJob(ctx context.Context, job *models.Job) error
	RecordEvent(ctx context.Context, event models.JobEvent) error
}

// NopAuditSink discards everything
type NopAuditSink struct{}

// RecordJob implements AuditSink
func (NopAuditSink) RecordJob(context.Context, *models.Job) error { return nil }

// RecordEvent implements AuditSink
func (NopAuditSink) RecordEvent(context.Context, models.JobEvent) error { return nil }

const auditSchema = `
CREATE TABLE IF NOT EXISTS ingestion_jobs (
	id         UUID PRIMARY KEY,
	priority   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ingestion_batches (
	id       UUID PRIMARY KEY,
	job_id   UUID NOT NULL REFERENCES ingestion_jobs(id),
	position INT NOT NULL,
	item_ids BIGINT[] NOT NULL
);

CREATE TABLE IF NOT EXISTS batch_events (
	id          BIGSERIAL PRIMARY KEY,
	job_id      UUID NOT NULL,
	batch_id    UUID NOT NULL,
	at          TIMESTAMPTZ NOT NULL,
	from_status TEXT,
	to_status   TEXT NOT NULL,
	job_status  TEXT NOT NULL,
	reason      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS batch_events_job_id_idx ON batch_events (job_id, at);
`

// EventRepository writes the audit trail to Postgres
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// EnsureSchema creates the audit tables if they do not exist
func (r *EventRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// RecordJob stores a job and its batches in one transaction
func (r *EventRepository) RecordJob(ctx context.Context, job *models.Job) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingestion_jobs (id, priority, created_at) VALUES ($1, $2, $3)`,
		job.ID, string(job.Priority), job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}

	for i, batch := range job.Batches {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ingestion_batches (id, job_id, position, item_ids) VALUES ($1, $2, $3, $4)`,
			batch.ID, job.ID, i, pq.Array(batch.ItemIDs),
		)
		if err != nil {
			return fmt.Errorf("insert batch %s: %w", batch.ID, err)
		}
	}

	return tx.Commit()
}

// RecordEvent appends a batch transition
func (r *EventRepository) RecordEvent(ctx context.Context, event models.JobEvent) error {
	var fromStatus *string
	if event.FromStatus != nil {
		s := string(*event.FromStatus)
		fromStatus = &s
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO batch_events (job_id, batch_id, at, from_status, to_status, job_status, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		event.JobID,
		event.BatchID,
		event.At,
		fromStatus,
		string(event.ToStatus),
		string(event.JobStatus),
		event.Reason,
	)
	return err
}

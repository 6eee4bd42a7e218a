package ingestion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"batch-ingestor/core/models"
	"batch-ingestor/core/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	mu   sync.Mutex
	jobs []*models.Job
}

func (e *recordingEnqueuer) Enqueue(job *models.Job) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, job)
}

type failingSink struct {
	repository.NopAuditSink
}

func (failingSink) RecordJob(context.Context, *models.Job) error {
	return errors.New("database unavailable")
}

func newTestService(sink repository.AuditSink) (*Service, *repository.JobStore, *recordingEnqueuer) {
	store := repository.NewJobStore()
	enq := &recordingEnqueuer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, enq, sink, DefaultLimits(), logger), store, enq
}

func sequence(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return ids
}

func TestSplitBatches(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 8, 9, 10, 999, 1000} {
		ids := sequence(n)
		batches := SplitBatches(ids, 3)

		assert.Len(t, batches, (n+2)/3, "n=%d", n)

		var joined []int64
		for i, b := range batches {
			assert.NotEmpty(t, b)
			assert.LessOrEqual(t, len(b), 3)
			if i < len(batches)-1 {
				assert.Len(t, b, 3)
			}
			joined = append(joined, b...)
		}
		assert.Equal(t, ids, joined, "n=%d", n)
	}

	assert.Equal(t, [][]int64{{1, 2, 3}, {4, 5}}, SplitBatches([]int64{1, 2, 3, 4, 5}, 3))
	assert.Empty(t, SplitBatches(nil, 3))
}

func TestLimitsValidate(t *testing.T) {
	limits := DefaultLimits()

	tests := []struct {
		name    string
		req     Request
		wantErr string
	}{
		{"valid", Request{IDs: []int64{1, 1_000_000_007}, Priority: models.PriorityHigh}, ""},
		{"default priority", Request{IDs: []int64{5}}, ""},
		{"empty ids", Request{IDs: nil}, "at least one id"},
		{"too many ids", Request{IDs: sequence(1001)}, "at most 1000"},
		{"zero id", Request{IDs: []int64{1, 0, 2}}, "ID 0 out of valid range"},
		{"negative id", Request{IDs: []int64{-4}}, "ID -4 out of valid range"},
		{"id above range", Request{IDs: []int64{1_000_000_008}}, "ID 1000000008 out of valid range"},
		{"unknown priority", Request{IDs: []int64{1}, Priority: "URGENT"}, "must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := limits.Validate(&req)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.True(t, req.Priority.Valid())
				return
			}
			require.Error(t, err)
			assert.True(t, models.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	req := Request{IDs: []int64{1}}
	require.NoError(t, limits.Validate(&req))
	assert.Equal(t, models.PriorityMedium, req.Priority)
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest(strings.NewReader(`{"ids":[1,2,3],"priority":"LOW"}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, req.IDs)
	assert.Equal(t, models.PriorityLow, req.Priority)

	req, err = DecodeRequest(strings.NewReader("ids: [4, 5]\npriority: HIGH\n"), "application/yaml; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, req.IDs)
	assert.Equal(t, models.PriorityHigh, req.Priority)

	_, err = DecodeRequest(strings.NewReader(`{"ids":[1.5]}`), "")
	assert.True(t, models.IsValidation(err))

	_, err = DecodeRequest(strings.NewReader(`not json`), "application/json")
	assert.True(t, models.IsValidation(err))

	_, err = DecodeRequest(strings.NewReader("ids: [a"), "text/yaml")
	assert.True(t, models.IsValidation(err))
}

func TestServiceIngest(t *testing.T) {
	svc, store, enq := newTestService(nil)

	job, err := svc.Ingest(context.Background(), Request{IDs: []int64{1, 2, 3, 4, 5}})
	require.NoError(t, err)

	assert.Equal(t, models.PriorityMedium, job.Priority)
	require.Len(t, job.Batches, 2)
	assert.Equal(t, []int64{1, 2, 3}, job.Batches[0].ItemIDs)
	assert.Equal(t, []int64{4, 5}, job.Batches[1].ItemIDs)

	stored, err := svc.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusYetToStart, stored.Status)

	require.Len(t, enq.jobs, 1)
	assert.Equal(t, job.ID, enq.jobs[0].ID)
	assert.Equal(t, 1, store.Count())

	events, err := svc.Events(job.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Len(t, svc.ListJobs(nil, 0), 1)
}

func TestServiceIngestEightHighPriorityIDs(t *testing.T) {
	svc, _, _ := newTestService(nil)

	job, err := svc.Ingest(context.Background(), Request{IDs: sequence(8), Priority: models.PriorityHigh})
	require.NoError(t, err)

	require.Len(t, job.Batches, 3)
	assert.Equal(t, []int64{7, 8}, job.Batches[2].ItemIDs)
	assert.Equal(t, models.PriorityHigh, job.Priority)
}

func TestServiceIngestRejectsWithoutCreatingJob(t *testing.T) {
	svc, store, enq := newTestService(nil)

	_, err := svc.Ingest(context.Background(), Request{IDs: []int64{1, 2, 1_000_000_008}})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))

	assert.Equal(t, 0, store.Count())
	assert.Empty(t, enq.jobs)
}

func TestServiceIngestSurvivesAuditFailure(t *testing.T) {
	svc, store, enq := newTestService(failingSink{})

	job, err := svc.Ingest(context.Background(), Request{IDs: []int64{9}})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, 1, store.Count())
	assert.Len(t, enq.jobs, 1)
}

package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"batch-ingestor/api/rest/handlers"
	"batch-ingestor/api/rest/routes"
	"batch-ingestor/core/executor"
	"batch-ingestor/core/ingestion"
	"batch-ingestor/core/models"
	"batch-ingestor/core/monitoring"
	"batch-ingestor/core/repository"
	"batch-ingestor/core/scheduler"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServer runs the full HTTP stack with a fast processor and a running scheduler
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewJobStore()
	processor := executor.NewSimulatedProcessor(
		executor.WithItemLatency(time.Millisecond),
		executor.WithFailFunc(func(ids []int64) bool { return ids[0] == 666 }),
	)
	sched := scheduler.NewScheduler(store, scheduler.NewBatchQueue(), processor, nil, logger, 5*time.Millisecond)
	service := ingestion.NewService(store, sched, nil, ingestion.DefaultLimits(), logger)

	r := mux.NewRouter()
	routes.SetupRoutes(r, service, sched, monitoring.NewMetricsExporter(store, sched), logger)
	srv := httptest.NewServer(r)

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Start(ctx)

	t.Cleanup(func() {
		srv.Close()
		cancel()
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer waitCancel()
		sched.Wait(waitCtx)
	})
	return srv
}

func TestIngestAndWatch(t *testing.T) {
	c := New(newServer(t).URL)
	ctx := context.Background()

	id, err := c.Ingest(ctx, []int64{1, 2, 3, 4, 5}, models.PriorityHigh)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var updates int
	final, err := c.Watch(ctx, id, 5*time.Millisecond, func(*handlers.StatusResponse) { updates++ })
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusCompleted, final.Status)
	assert.Equal(t, models.PriorityHigh, final.Priority)
	require.Len(t, final.Batches, 2)
	assert.Equal(t, []int64{4, 5}, final.Batches[1].IDs)
	assert.GreaterOrEqual(t, updates, 1)

	events, err := c.Events(ctx, id)
	require.NoError(t, err)
	assert.Len(t, events.Items, 6)
}

func TestWatchPartialFailure(t *testing.T) {
	c := New(newServer(t).URL)
	ctx := context.Background()

	id, err := c.Ingest(ctx, []int64{1, 2, 3, 666}, "")
	require.NoError(t, err)

	final, err := c.Watch(ctx, id, 5*time.Millisecond, nil)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPartiallyFailed, final.Status)
	assert.Equal(t, models.PriorityMedium, final.Priority)
	assert.Equal(t, models.BatchStatusFailed, final.Batches[1].Status)
	assert.NotEmpty(t, final.Batches[1].Error)
}

func TestWatchRejectsNonPositiveInterval(t *testing.T) {
	c := New(newServer(t).URL)
	ctx := context.Background()

	id, err := c.Ingest(ctx, []int64{1}, models.PriorityLow)
	require.NoError(t, err)

	for _, interval := range []time.Duration{0, -time.Second} {
		_, err := c.Watch(ctx, id, interval, nil)
		assert.ErrorContains(t, err, "watch interval must be positive")
	}
}

func TestAPIErrors(t *testing.T) {
	c := New(newServer(t).URL)
	ctx := context.Background()

	_, err := c.Ingest(ctx, []int64{0}, models.PriorityLow)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "ID 0 out of valid range")
	assert.NotEmpty(t, apiErr.RequestID)

	_, err = c.Status(ctx, "missing")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Ingestion ID not found", apiErr.Message)
}

func TestJobs(t *testing.T) {
	c := New(newServer(t).URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Ingest(ctx, []int64{1}, models.PriorityLow)
		require.NoError(t, err)
	}

	jobs, err := c.Jobs(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	_, err = c.Jobs(ctx, "bogus", 0)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestNewDefaults(t *testing.T) {
	t.Setenv("INGEST_SERVER_URL", "http://example.test:9000/")
	t.Setenv("INGEST_CLIENT_TIMEOUT", "3s")

	c := New("")
	assert.Equal(t, "http://example.test:9000", c.baseURL)
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
}

func TestIsFinal(t *testing.T) {
	assert.True(t, IsFinal(models.JobStatusCompleted))
	assert.True(t, IsFinal(models.JobStatusPartiallyFailed))
	assert.True(t, IsFinal(models.JobStatusFailed))
	assert.False(t, IsFinal(models.JobStatusTriggered))
	assert.False(t, IsFinal(models.JobStatusYetToStart))
}

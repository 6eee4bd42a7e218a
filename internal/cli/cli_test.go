package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"batch-ingestor/api/rest/handlers"
	"batch-ingestor/core/models"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers like the ingestion server for a single completed job
func fakeServer(t *testing.T, ingested *[]int64) *httptest.Server {
	t.Helper()

	job := handlers.StatusResponse{
		IngestionID: "job-1",
		Status:      models.JobStatusCompleted,
		Priority:    models.PriorityHigh,
		CreatedAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Batches: []handlers.BatchResponse{
			{BatchID: "b-1", IDs: []int64{1, 2, 3}, Status: models.BatchStatusCompleted},
			{BatchID: "b-2", IDs: []int64{4}, Status: models.BatchStatusCompleted},
		},
	}
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	r := mux.NewRouter()
	r.HandleFunc("/ingest", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs      []int64         `json:"ids"`
			Priority models.Priority `json:"priority"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*ingested = req.IDs
		writeJSON(w, http.StatusOK, handlers.IngestResponse{IngestionID: "job-1"})
	}).Methods("POST")
	r.HandleFunc("/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["id"] != "job-1" {
			writeJSON(w, http.StatusNotFound, handlers.ErrorResponse{Error: "Ingestion ID not found"})
			return
		}
		writeJSON(w, http.StatusOK, job)
	}).Methods("GET")
	r.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, handlers.ListJobsResponse{Items: []handlers.JobSummary{
			{IngestionID: "job-1", Status: job.Status, Priority: job.Priority, Batches: 2, CreatedAt: job.CreatedAt},
		}})
	}).Methods("GET")

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", url}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestIngestCommand(t *testing.T) {
	var ingested []int64
	srv := fakeServer(t, &ingested)

	out, err := run(t, srv.URL, "ingest", "1,2", "3", "4", "-p", "high", "--watch", "--interval", "10ms")
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3, 4}, ingested)
	assert.Contains(t, out, "job-1\n")
	assert.Contains(t, out, "completed        [completed completed]")
	assert.Contains(t, out, "Priority: HIGH")
}

func TestIngestCommandRejectsBadInput(t *testing.T) {
	var ingested []int64
	srv := fakeServer(t, &ingested)

	_, err := run(t, srv.URL, "ingest", "1,x")
	assert.ErrorContains(t, err, `invalid id "x"`)

	_, err = run(t, srv.URL, "ingest", "1", "-p", "urgent")
	assert.ErrorContains(t, err, "invalid priority")
	assert.Nil(t, ingested)
}

func TestWatchRejectsNonPositiveInterval(t *testing.T) {
	var ingested []int64
	srv := fakeServer(t, &ingested)

	for _, interval := range []string{"0s", "-1s"} {
		assert.NotPanics(t, func() {
			_, err := run(t, srv.URL, "watch", "job-1", "--interval", interval)
			assert.ErrorContains(t, err, "--interval must be positive")
		})
	}

	assert.NotPanics(t, func() {
		_, err := run(t, srv.URL, "ingest", "1", "--watch", "--interval", "0s")
		assert.ErrorContains(t, err, "--interval must be positive")
	})
	assert.Nil(t, ingested, "nothing is submitted when the watch interval is invalid")
}

func TestStatusCommand(t *testing.T) {
	srv := fakeServer(t, new([]int64))

	out, err := run(t, srv.URL, "status", "job-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Status: completed")
	assert.Contains(t, out, "[1 2 3]")

	_, err = run(t, srv.URL, "status", "nope")
	assert.ErrorContains(t, err, "Ingestion ID not found")
}

func TestJobsCommand(t *testing.T) {
	srv := fakeServer(t, new([]int64))

	out, err := run(t, srv.URL, "jobs", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "job-1")
	assert.Contains(t, out, "completed")
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1, 2", "3,", "4"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)

	_, err = parseIDs([]string{","})
	assert.ErrorContains(t, err, "no ids")
}

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"batch-ingestor/core/ingestion"
	"batch-ingestor/core/models"

	"github.com/gorilla/mux"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxBodyBytes     = 1 << 20
)

// JobHandler handles ingestion and status HTTP requests
type JobHandler struct {
	service *ingestion.Service
	logger  *slog.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(service *ingestion.Service, logger *slog.Logger) *JobHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobHandler{
		service: service,
		logger:  logger,
	}
}

// Ingest handles POST /ingest
func (h *JobHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req, err := ingestion.DecodeRequest(r.Body, r.Header.Get("Content-Type"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	job, err := h.service.Ingest(r.Context(), *req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{IngestionID: job.ID})
}

// GetStatus handles GET /status/{id}
func (h *JobHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.service.GetJob(jobID)
	if models.IsNotFound(err) {
		writeError(w, r, http.StatusNotFound, "Ingestion ID not found")
		return
	}
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewStatusResponse(job))
}

// GetEvents handles GET /status/{id}/events
func (h *JobHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	events, err := h.service.Events(jobID)
	if models.IsNotFound(err) {
		writeError(w, r, http.StatusNotFound, "Ingestion ID not found")
		return
	}
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewEventsResponse(jobID, events))
}

// ListJobs handles GET /jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var status *models.JobStatus
	if raw := query.Get("status"); raw != "" {
		s := models.JobStatus(raw)
		if !s.Valid() {
			writeError(w, r, http.StatusBadRequest, "unknown status "+strconv.Quote(raw))
			return
		}
		status = &s
	}

	limit := defaultListLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	jobs := h.service.ListJobs(status, limit)
	items := make([]JobSummary, len(jobs))
	for i, job := range jobs {
		items[i] = JobSummary{
			IngestionID: job.ID,
			Status:      job.Status,
			Priority:    job.Priority,
			Batches:     len(job.Batches),
			CreatedAt:   job.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, ListJobsResponse{Items: items})
}

package handlers

import (
	"net/http"
	"time"

	"batch-ingestor/core/monitoring"
	"batch-ingestor/core/scheduler"
)

// DashboardHandler serves operational endpoints
type DashboardHandler struct {
	metrics   *monitoring.MetricsExporter
	scheduler *scheduler.Scheduler
	startedAt time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(metrics *monitoring.MetricsExporter, sched *scheduler.Scheduler) *DashboardHandler {
	return &DashboardHandler{
		metrics:   metrics,
		scheduler: sched,
		startedAt: time.Now(),
	}
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status        string          `json:"status"`
	WorkerState   scheduler.State `json:"worker_state"`
	QueueDepth    int             `json:"queue_depth"`
	UptimeSeconds int64           `json:"uptime_seconds"`
}

// GetMetrics handles GET /metrics
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(h.metrics.GetPrometheusMetrics()))
}

// GetHealth handles GET /health
func (h *DashboardHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	depth := 0
	for _, n := range h.scheduler.QueueDepth() {
		depth += n
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		WorkerState:   h.scheduler.State(),
		QueueDepth:    depth,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	})
}

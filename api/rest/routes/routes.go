package routes

import (
	"log/slog"
	"net/http"

	"batch-ingestor/api/rest/handlers"
	"batch-ingestor/api/rest/middleware"
	"batch-ingestor/core/ingestion"
	"batch-ingestor/core/monitoring"
	"batch-ingestor/core/scheduler"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	r *mux.Router,
	service *ingestion.Service,
	sched *scheduler.Scheduler,
	metrics *monitoring.MetricsExporter,
	logger *slog.Logger,
) {
	jobHandler := handlers.NewJobHandler(service, logger)
	dashboardHandler := handlers.NewDashboardHandler(metrics, sched)

	requestID := middleware.RequestID()
	logging := middleware.Logging(logger)

	r.Use(requestID, logging)

	// mux skips r.Use middleware when no route matches
	r.NotFoundHandler = requestID(logging(http.HandlerFunc(handlers.NotFound)))
	r.MethodNotAllowedHandler = requestID(logging(http.HandlerFunc(handlers.MethodNotAllowed)))

	// Ingestion endpoints
	r.HandleFunc("/ingest", jobHandler.Ingest).Methods("POST")
	r.HandleFunc("/status/{id}", jobHandler.GetStatus).Methods("GET")
	r.HandleFunc("/status/{id}/events", jobHandler.GetEvents).Methods("GET")
	r.HandleFunc("/jobs", jobHandler.ListJobs).Methods("GET")

	// Operational endpoints
	r.HandleFunc("/metrics", dashboardHandler.GetMetrics).Methods("GET")
	r.HandleFunc("/health", dashboardHandler.GetHealth).Methods("GET")
}

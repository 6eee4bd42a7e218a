package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"batch-ingestor/api/rest/middleware"
	"batch-ingestor/core/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:     message,
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
}

// handleError maps domain errors onto status codes. Anything unrecognised
// is logged and reported as a generic 500.
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var validation *models.ValidationError
	var notFound *models.NotFoundError

	switch {
	case errors.As(err, &validation):
		writeError(w, r, http.StatusBadRequest, validation.Message)
	case errors.As(err, &notFound):
		writeError(w, r, http.StatusNotFound, notFound.Error())
	default:
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// NotFound renders unknown routes as JSON
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not found")
}

// MethodNotAllowed renders wrong methods on known routes as JSON
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

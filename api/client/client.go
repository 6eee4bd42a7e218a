// Package client provides an HTTP client for the ingestion server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"batch-ingestor/api/rest/handlers"
	"batch-ingestor/api/rest/middleware"
	"batch-ingestor/core/models"

	"github.com/google/uuid"
)

// Client talks to the ingestion HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID == "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s (request %s)", e.StatusCode, e.Message, e.RequestID)
}

// New creates a new client.
// If baseURL is empty, uses INGEST_SERVER_URL or defaults to localhost:8000.
// Timeout can be configured via INGEST_CLIENT_TIMEOUT (default 30s).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("INGEST_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	timeout := 30 * time.Second
	if t := os.Getenv("INGEST_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Ingest submits ids and returns the ingestion id. An empty priority lets
// the server apply its default.
func (c *Client) Ingest(ctx context.Context, ids []int64, priority models.Priority) (string, error) {
	body, err := json.Marshal(map[string]any{
		"ids":      ids,
		"priority": priority,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var resp handlers.IngestResponse
	if err := c.do(ctx, http.MethodPost, "/ingest", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	return resp.IngestionID, nil
}

// Status returns the current status of an ingestion job.
func (c *Client) Status(ctx context.Context, ingestionID string) (*handlers.StatusResponse, error) {
	var resp handlers.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/status/"+url.PathEscape(ingestionID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events returns the transition history of an ingestion job.
func (c *Client) Events(ctx context.Context, ingestionID string) (*handlers.EventsResponse, error) {
	var resp handlers.EventsResponse
	if err := c.do(ctx, http.MethodGet, "/status/"+url.PathEscape(ingestionID)+"/events", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Jobs lists jobs, most recent first. Empty status and zero limit use the
// server defaults.
func (c *Client) Jobs(ctx context.Context, status models.JobStatus, limit int) ([]handlers.JobSummary, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/jobs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp handlers.ListJobsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Watch polls the status of a job every interval until it reaches a final
// status or ctx is done. onUpdate, if set, is called with every snapshot.
// A non-positive interval is an error.
func (c *Client) Watch(ctx context.Context, ingestionID string, interval time.Duration, onUpdate func(*handlers.StatusResponse)) (*handlers.StatusResponse, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("watch interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.Status(ctx, ingestionID)
		if err != nil {
			return nil, err
		}
		if onUpdate != nil {
			onUpdate(status)
		}
		if IsFinal(status.Status) {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

// IsFinal reports whether no further batch transitions can change status
func IsFinal(status models.JobStatus) bool {
	switch status {
	case models.JobStatusCompleted, models.JobStatusFailed, models.JobStatusPartiallyFailed:
		return true
	}
	return false
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.RequestIDHeader, uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: resp.Header.Get(middleware.RequestIDHeader)}
		var errResp handlers.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			if errResp.RequestID != "" {
				apiErr.RequestID = errResp.RequestID
			}
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

package ingestion

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"strings"

	"batch-ingestor/core/models"

	"gopkg.in/yaml.v3"
)

// Request is a bulk ingestion request
type Request struct {
	IDs      []int64         `json:"ids" yaml:"ids"`
	Priority models.Priority `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Limits bounds what an ingestion request may contain
type Limits struct {
	BatchSize int   // Items per batch
	MaxIDs    int   // Items per request
	MinItemID int64 // Inclusive
	MaxItemID int64 // Inclusive
}

// DefaultLimits returns batches of 3 and up to 1000 ids in [1, 1_000_000_007]
func DefaultLimits() Limits {
	return Limits{
		BatchSize: 3,
		MaxIDs:    1000,
		MinItemID: 1,
		MaxItemID: 1_000_000_007,
	}
}

// DecodeRequest reads a request body. YAML bodies are accepted when the
// content type says so; everything else is decoded as JSON.
func DecodeRequest(body io.Reader, contentType string) (*Request, error) {
	var req Request

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case strings.HasSuffix(mediaType, "yaml"):
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if err := yaml.Unmarshal(data, &req); err != nil {
			return nil, models.NewValidationError("body", "invalid YAML: %v", err)
		}
	default:
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return nil, models.NewValidationError("body", "invalid JSON: %v", err)
		}
	}

	return &req, nil
}

// Validate checks the request against the limits and fills in the default
// priority. Nothing is created when it fails.
func (l Limits) Validate(req *Request) error {
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !req.Priority.Valid() {
		return models.NewValidationError("priority", "must be one of HIGH, MEDIUM, LOW, got %q", req.Priority)
	}

	if len(req.IDs) == 0 {
		return models.NewValidationError("ids", "at least one id is required")
	}
	if len(req.IDs) > l.MaxIDs {
		return models.NewValidationError("ids", "at most %d ids are allowed, got %d", l.MaxIDs, len(req.IDs))
	}

	for _, id := range req.IDs {
		if id < l.MinItemID || id > l.MaxItemID {
			return models.NewValidationError("ids", "ID %d out of valid range [%d, %d]", id, l.MinItemID, l.MaxItemID)
		}
	}
	return nil
}

// SplitBatches cuts ids into consecutive groups of size; the last group may
// be shorter.
func SplitBatches(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = 1
	}
	batches := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, append([]int64(nil), ids[start:end]...))
	}
	return batches
}

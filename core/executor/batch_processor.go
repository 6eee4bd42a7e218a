package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"batch-ingestor/core/models"
)

// ErrSimulatedFailure is returned by a SimulatedProcessor configured to fail
var ErrSimulatedFailure = errors.New("simulated external call failure")

// BatchProcessor performs the external call for one batch of item ids.
// It returns one result per input id in input order, or an error.
type BatchProcessor interface {
	Process(ctx context.Context, itemIDs []int64) ([]models.ItemResult, error)
}

// ProcessorFunc adapts a function to the BatchProcessor interface
type ProcessorFunc func(ctx context.Context, itemIDs []int64) ([]models.ItemResult, error)

// Process calls f
func (f ProcessorFunc) Process(ctx context.Context, itemIDs []int64) ([]models.ItemResult, error) {
	return f(ctx, itemIDs)
}

// SimulatedProcessor stands in for the external system: every item costs a
// fixed latency and always succeeds unless a failure hook says otherwise.
type SimulatedProcessor struct {
	itemLatency time.Duration
	failFunc    func(itemIDs []int64) bool

	mu    sync.Mutex
	calls int
}

// Option configures a SimulatedProcessor
type Option func(*SimulatedProcessor)

// WithItemLatency sets the simulated latency per item
func WithItemLatency(d time.Duration) Option {
	return func(p *SimulatedProcessor) {
		p.itemLatency = d
	}
}

// WithFailFunc makes the processor fail every batch for which fn returns true
func WithFailFunc(fn func(itemIDs []int64) bool) Option {
	return func(p *SimulatedProcessor) {
		p.failFunc = fn
	}
}

// NewSimulatedProcessor creates a simulated processor. The default latency is
// one second per item.
func NewSimulatedProcessor(opts ...Option) *SimulatedProcessor {
	p := &SimulatedProcessor{
		itemLatency: time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process simulates the external call item by item
func (p *SimulatedProcessor) Process(ctx context.Context, itemIDs []int64) ([]models.ItemResult, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.failFunc != nil && p.failFunc(itemIDs) {
		return nil, fmt.Errorf("process %v: %w", itemIDs, ErrSimulatedFailure)
	}

	results := make([]models.ItemResult, 0, len(itemIDs))
	for _, id := range itemIDs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.itemLatency):
		}
		results = append(results, models.ItemResult{ID: id, Data: "processed"})
	}
	return results, nil
}

// Calls returns how many batches have been handed to the processor
func (p *SimulatedProcessor) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

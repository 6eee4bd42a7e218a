package scheduler

import (
	"container/heap"
	"context"
	"sync"

	"batch-ingestor/core/models"
)

// QueueEntry references a pending batch. It only orders work; the job store
// holds the authoritative batch state.
type QueueEntry struct {
	JobID    string
	BatchID  string
	ItemIDs  []int64
	Priority models.Priority
	Seq      uint64 // Assigned by the queue on enqueue
}

// Less orders entries by priority rank, then by enqueue sequence
func (e *QueueEntry) Less(other *QueueEntry) bool {
	if e.Priority.Rank() != other.Priority.Rank() {
		return e.Priority.Rank() < other.Priority.Rank()
	}
	return e.Seq < other.Seq
}

// BatchQueue is a priority queue of pending batches. It is safe for
// concurrent use and Dequeue blocks until an entry is available.
type BatchQueue struct {
	mu      sync.Mutex
	entries entryHeap
	nextSeq uint64
	ready   chan struct{}
}

// NewBatchQueue creates an empty batch queue
func NewBatchQueue() *BatchQueue {
	bq := &BatchQueue{
		entries: make(entryHeap, 0),
		ready:   make(chan struct{}, 1),
	}
	heap.Init(&bq.entries)
	return bq
}

// Enqueue adds an entry and returns the sequence number assigned to it
func (bq *BatchQueue) Enqueue(entry QueueEntry) uint64 {
	bq.mu.Lock()
	bq.nextSeq++
	entry.Seq = bq.nextSeq
	heap.Push(&bq.entries, &entry)
	bq.mu.Unlock()

	bq.signal()
	return entry.Seq
}

// signal wakes a blocked Dequeue. A single pending signal is enough.
func (bq *BatchQueue) signal() {
	select {
	case bq.ready <- struct{}{}:
	default:
	}
}

// TryDequeue removes and returns the highest priority entry without blocking
func (bq *BatchQueue) TryDequeue() (QueueEntry, bool) {
	bq.mu.Lock()
	defer bq.mu.Unlock()

	if bq.entries.Len() == 0 {
		return QueueEntry{}, false
	}
	item := heap.Pop(&bq.entries).(*QueueEntry)
	return *item, true
}

// Dequeue removes and returns the highest priority entry, waiting until one
// is enqueued or ctx is done.
func (bq *BatchQueue) Dequeue(ctx context.Context) (QueueEntry, error) {
	for {
		if entry, ok := bq.TryDequeue(); ok {
			// Pass the wakeup on to any other waiter while work remains
			if bq.Len() > 0 {
				bq.signal()
			}
			return entry, nil
		}

		select {
		case <-ctx.Done():
			return QueueEntry{}, ctx.Err()
		case <-bq.ready:
		}
	}
}

// Len returns the number of pending entries
func (bq *BatchQueue) Len() int {
	bq.mu.Lock()
	defer bq.mu.Unlock()
	return bq.entries.Len()
}

// DepthByPriority returns the number of pending entries per priority
func (bq *BatchQueue) DepthByPriority() map[models.Priority]int {
	bq.mu.Lock()
	defer bq.mu.Unlock()

	depth := make(map[models.Priority]int, len(models.Priorities()))
	for _, p := range models.Priorities() {
		depth[p] = 0
	}
	for _, e := range bq.entries {
		depth[e.Priority]++
	}
	return depth
}

// entryHeap implements heap.Interface over queue entries
type entryHeap []*QueueEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool { return h[i].Less(h[j]) }

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push implements heap.Interface
func (h *entryHeap) Push(x interface{}) {
	*h = append(*h, x.(*QueueEntry))
}

// Pop implements heap.Interface
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}

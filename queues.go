package neo

import "sync"

// ═══════════════════════════════════════════════════════════════════════════════
// UPDATE / DELETE QUEUES (original_source supplement, SPEC_FULL.md §4)
// ═══════════════════════════════════════════════════════════════════════════════
// Attribute updates and row deletes against a live index are batched instead
// of applied one row at a time, flushing every DefaultQueueBatchSize entries
// (or on an explicit Flush call) - the same batching shape the teacher
// applies in bulk document indexing (index.go's Index), just queued ahead of
// application instead of applied immediately.
// ═══════════════════════════════════════════════════════════════════════════════

// AttrUpdate is one pending attribute-value change.
type AttrUpdate struct {
	DocID DocID
	Attr  string
	Value int64
}

// UpdateQueue batches AttrUpdate entries, flushing to apply once full.
type UpdateQueue struct {
	mu        sync.Mutex
	batchSize int
	pending   []AttrUpdate
	apply     func([]AttrUpdate)
}

// NewUpdateQueue builds a queue that calls apply once pending reaches
// batchSize (DefaultQueueBatchSize if batchSize <= 0).
func NewUpdateQueue(batchSize int, apply func([]AttrUpdate)) *UpdateQueue {
	if batchSize <= 0 {
		batchSize = DefaultQueueBatchSize
	}
	return &UpdateQueue{batchSize: batchSize, apply: apply}
}

// Push enqueues one update, flushing automatically if the batch fills.
func (q *UpdateQueue) Push(u AttrUpdate) {
	q.mu.Lock()
	q.pending = append(q.pending, u)
	full := len(q.pending) >= q.batchSize
	q.mu.Unlock()
	if full {
		q.Flush()
	}
}

// Flush applies every pending update (in FIFO order) and clears the queue.
func (q *UpdateQueue) Flush() {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()
	if len(batch) > 0 && q.apply != nil {
		q.apply(batch)
	}
}

// Len reports the number of updates currently pending.
func (q *UpdateQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// DeleteQueue batches document deletes, flushing to apply once full.
type DeleteQueue struct {
	mu        sync.Mutex
	batchSize int
	pending   []DocID
	apply     func([]DocID)
}

// NewDeleteQueue builds a queue that calls apply once pending reaches
// batchSize (DefaultQueueBatchSize if batchSize <= 0).
func NewDeleteQueue(batchSize int, apply func([]DocID)) *DeleteQueue {
	if batchSize <= 0 {
		batchSize = DefaultQueueBatchSize
	}
	return &DeleteQueue{batchSize: batchSize, apply: apply}
}

// Push enqueues one delete, flushing automatically if the batch fills.
func (q *DeleteQueue) Push(id DocID) {
	q.mu.Lock()
	q.pending = append(q.pending, id)
	full := len(q.pending) >= q.batchSize
	q.mu.Unlock()
	if full {
		q.Flush()
	}
}

// Flush applies every pending delete and clears the queue.
func (q *DeleteQueue) Flush() {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()
	if len(batch) > 0 && q.apply != nil {
		q.apply(batch)
	}
}

// Len reports the number of deletes currently pending.
func (q *DeleteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

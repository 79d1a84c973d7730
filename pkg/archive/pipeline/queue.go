// Package pipeline implements the Writer and Reader Pipelines: the
// secondary-thread producer/consumer loops that sit between a bounded
// block queue and the Volume Store, applying (or inverting) FEC on every
// block that crosses the boundary.
package pipeline

import "sync"

// Block is one logical block moving across a Queue: exactly K*PacketSize
// bytes of payload (already FEC-decoded on the reader side, not yet
// FEC-encoded on the writer side) plus the bytes_used the producer or the
// FEC layer declared for it.
type Block struct {
	Payload   []byte
	BytesUsed uint32
}

// Queue is a bounded channel of Blocks with cooperative cancellation and an
// explicit end-of-stream signal, matching §5's "two bounded queues plus a
// small number of shared counters" concurrency model. It has no internal
// goroutines; callers run the Writer/Reader Pipeline loops themselves.
type Queue struct {
	ch        chan Block
	stop      chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
}

// NewQueue creates a Queue with the given bounded capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch:   make(chan Block, capacity),
		stop: make(chan struct{}),
	}
}

// Push enqueues b, blocking if the queue is full. It returns false without
// enqueuing if StopFeeding has been called, so a producer blocked on a full
// queue can still react to cancellation.
func (q *Queue) Push(b Block) bool {
	select {
	case q.ch <- b:
		return true
	case <-q.stop:
		return false
	}
}

// Pop dequeues the next Block. ok is false once the queue has been closed
// via CloseStream and fully drained, signaling clean end-of-stream.
func (q *Queue) Pop() (Block, bool) {
	b, ok := <-q.ch
	return b, ok
}

// CloseStream marks the queue as having no more Blocks coming; Pop returns
// ok=false once any already-buffered Blocks have been drained. Safe to call
// more than once.
func (q *Queue) CloseStream() {
	q.closeOnce.Do(func() {
		close(q.ch)
	})
}

// StopFeeding sets the cooperative cancellation flag: any Push blocked on a
// full queue unblocks and returns false, and every subsequent Push does the
// same. Safe to call more than once.
func (q *Queue) StopFeeding() {
	q.stopOnce.Do(func() {
		close(q.stop)
	})
}

// Len reports how many Blocks are currently buffered, used by the
// missing-volume prompt to drain the queue to zero before blocking on
// interactive input.
func (q *Queue) Len() int {
	return len(q.ch)
}

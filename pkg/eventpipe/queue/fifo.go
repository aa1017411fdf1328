// Package queue provides the bounded containers the pipeline routes events
// through: a FIFO queue and a priority-ordered queue. Both share the same
// contract: Offer never blocks (a full queue reports false) and Poll blocks
// for at most the given timeout. The timed poll is the only suspension point
// consumers use; there is no spin-waiting.
package queue

import "time"

// FIFO is a bounded first-in-first-out queue backed by a channel.
type FIFO[T any] struct {
	ch chan T
}

// NewFIFO creates a FIFO queue with the given capacity.
// Capacity must be at least 1.
func NewFIFO[T any](capacity int) *FIFO[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &FIFO[T]{ch: make(chan T, capacity)}
}

// Offer enqueues v without blocking. It reports false if the queue is full.
func (q *FIFO[T]) Offer(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Poll dequeues the oldest item, waiting up to timeout for one to arrive.
// It reports false if the timeout elapsed with the queue empty.
func (q *FIFO[T]) Poll(timeout time.Duration) (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-q.ch:
		return v, true
	case <-timer.C:
		var zero T
		return zero, false
	}
}

// TryPoll dequeues the oldest item without waiting.
func (q *FIFO[T]) TryPoll() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Len returns the number of queued items.
func (q *FIFO[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *FIFO[T]) Cap() int {
	return cap(q.ch)
}

package queue

import (
	"container/heap"
	"sync"
	"time"
)

// Priority is a bounded queue that dequeues in an order defined by a less
// function rather than insertion order. Offer never blocks; Poll waits up to
// a timeout. A token channel sized to the capacity carries availability, so
// concurrent consumers never pop an empty heap and never miss a wakeup.
type Priority[T any] struct {
	mu     sync.Mutex
	items  *itemHeap[T]
	cap    int
	tokens chan struct{}
}

// NewPriority creates a priority queue with the given capacity.
// less reports whether a should be dequeued before b.
func NewPriority[T any](capacity int, less func(a, b T) bool) *Priority[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Priority[T]{
		items:  &itemHeap[T]{less: less},
		cap:    capacity,
		tokens: make(chan struct{}, capacity),
	}
}

// Offer enqueues v without blocking. It reports false if the queue is full.
func (q *Priority[T]) Offer(v T) bool {
	q.mu.Lock()
	if q.items.Len() >= q.cap {
		q.mu.Unlock()
		return false
	}
	heap.Push(q.items, v)
	q.mu.Unlock()

	// Capacity of tokens equals capacity of the heap, so this never blocks.
	q.tokens <- struct{}{}
	return true
}

// Poll dequeues the highest-ordered item, waiting up to timeout.
// It reports false if the timeout elapsed with the queue empty.
func (q *Priority[T]) Poll(timeout time.Duration) (T, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-q.tokens:
	case <-timer.C:
		var zero T
		return zero, false
	}

	q.mu.Lock()
	v := heap.Pop(q.items).(T)
	q.mu.Unlock()
	return v, true
}

// TryPoll dequeues the highest-ordered item without waiting.
func (q *Priority[T]) TryPoll() (T, bool) {
	select {
	case <-q.tokens:
	default:
		var zero T
		return zero, false
	}

	q.mu.Lock()
	v := heap.Pop(q.items).(T)
	q.mu.Unlock()
	return v, true
}

// Len returns the number of queued items.
func (q *Priority[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Cap returns the queue capacity.
func (q *Priority[T]) Cap() int {
	return q.cap
}

// itemHeap implements heap.Interface over a slice with an external ordering.
type itemHeap[T any] struct {
	values []T
	less   func(a, b T) bool
}

func (h *itemHeap[T]) Len() int           { return len(h.values) }
func (h *itemHeap[T]) Less(i, j int) bool { return h.less(h.values[i], h.values[j]) }
func (h *itemHeap[T]) Swap(i, j int)      { h.values[i], h.values[j] = h.values[j], h.values[i] }

func (h *itemHeap[T]) Push(v any) {
	h.values = append(h.values, v.(T))
}

func (h *itemHeap[T]) Pop() any {
	n := len(h.values)
	v := h.values[n-1]
	var zero T
	h.values[n-1] = zero
	h.values = h.values[:n-1]
	return v
}

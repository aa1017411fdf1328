// Package workerpool provides the named execution pools the engine runs on:
// a fixed-size compute pool, an elastic I/O pool, a single-worker background
// pool with FIFO ordering, a small scheduler pool for periodic callbacks, and
// a parallel pool sized to hardware parallelism for CPU-bound fan-out.
//
// Tasks return futures. A panic inside a task is recovered at the pool
// boundary, converted into a rejected future, counted, and logged; the worker
// loops and accepts the next task.
package workerpool

import (
	"errors"
	"sync"
	"time"
)

// ErrShutdown is returned when work is submitted after Shutdown,
// and is the rejection reason for tasks cancelled by Shutdown.
var ErrShutdown = errors.New("worker pool is shut down")

// ErrWaitTimeout is returned by GetWithin when the future did not
// resolve in time.
var ErrWaitTimeout = errors.New("timed out waiting for future")

// Future is the eventual result of a submitted task.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(v T) {
	f.once.Do(func() {
		f.value = v
		close(f.done)
	})
}

func (f *Future[T]) fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Get blocks until the task resolves and returns its result or error.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.value, f.err
}

// GetWithin waits up to timeout for the task to resolve.
func (f *Future[T]) GetWithin(timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.value, f.err
	case <-timer.C:
		var zero T
		return zero, ErrWaitTimeout
	}
}

// Done returns a channel closed when the task resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// failedFuture returns a future already rejected with err.
func failedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.fail(err)
	return f
}

package workerpool

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// task is a queued unit of work. abort resolves the task's future when the
// task is cancelled without running.
type task struct {
	run   func()
	abort func(error)
}

// submitter is the minimal surface the generic submit helpers need.
type submitter interface {
	submit(t task) error
}

// pool is a fixed-size worker pool with a bounded task queue.
type pool struct {
	name    string
	tasks   chan task
	quit    chan struct{}
	wg      sync.WaitGroup
	pending sync.WaitGroup
	logger  *slog.Logger

	closed    atomic.Bool
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	active    atomic.Int64
	workers   int
}

func newPool(name string, workers, queueSize int, logger *slog.Logger) *pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	p := &pool{
		name:    name,
		tasks:   make(chan task, queueSize),
		quit:    make(chan struct{}),
		logger:  logger,
		workers: workers,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case t := <-p.tasks:
			p.runTask(t)
		case <-p.quit:
			return
		}
	}
}

// runTask executes one task, recovering panics so the worker survives.
func (p *pool) runTask(t task) {
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		p.pending.Done()
		if r := recover(); r != nil {
			p.failed.Add(1)
			t.abort(fmt.Errorf("%s pool: task panic: %v", p.name, r))
			if p.logger != nil {
				p.logger.Error("task panicked",
					slog.String("pool", p.name),
					slog.Any("panic", r),
				)
			}
			return
		}
		p.completed.Add(1)
	}()
	t.run()
}

func (p *pool) submit(t task) error {
	if p.closed.Load() {
		return ErrShutdown
	}
	p.pending.Add(1)
	select {
	case p.tasks <- t:
		p.submitted.Add(1)
		return nil
	default:
		p.pending.Done()
		return fmt.Errorf("%s pool: task queue full", p.name)
	}
}

// close stops accepting new work. Queued tasks keep executing until stop.
func (p *pool) close() {
	p.closed.Store(true)
}

// drainWithin waits up to timeout for all accepted tasks to finish.
func (p *pool) drainWithin(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// stop halts the workers and aborts tasks still queued. Tasks already
// executing run to completion; goroutines are never killed mid-task.
func (p *pool) stop() {
	close(p.quit)
	for {
		select {
		case t := <-p.tasks:
			t.abort(ErrShutdown)
			p.failed.Add(1)
			p.pending.Done()
		default:
			return
		}
	}
}

func (p *pool) stats() PoolStats {
	return PoolStats{
		Workers:   p.workers,
		Active:    p.active.Load(),
		Queued:    int64(len(p.tasks)),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

// PoolStats is a point-in-time snapshot of one pool's usage counters.
// Reads never block submitters.
type PoolStats struct {
	Workers   int
	Active    int64
	Queued    int64
	Submitted int64
	Completed int64
	Failed    int64
}

package workerpool

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// elasticPool grows on demand and reclaims idle workers. It backs the I/O
// pool, where tasks may block indefinitely and must never starve the
// fixed-size compute pool.
type elasticPool struct {
	name        string
	tasks       chan task
	stop        chan struct{}
	idleTimeout time.Duration
	wg          sync.WaitGroup
	pending     sync.WaitGroup
	logger      *slog.Logger

	closed    atomic.Bool
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	active    atomic.Int64
	spawned   atomic.Int64
	alive     atomic.Int64
}

func newElasticPool(name string, idleTimeout time.Duration, logger *slog.Logger) *elasticPool {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Second
	}
	return &elasticPool{
		name:        name,
		tasks:       make(chan task),
		stop:        make(chan struct{}),
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

func (p *elasticPool) submit(t task) error {
	if p.closed.Load() {
		return ErrShutdown
	}
	p.pending.Add(1)
	p.submitted.Add(1)

	// Hand off to an idle worker if one is waiting.
	select {
	case p.tasks <- t:
		return nil
	default:
	}

	// None idle: grow the pool and hand off to the new worker.
	p.wg.Add(1)
	p.spawned.Add(1)
	go p.worker()

	select {
	case p.tasks <- t:
		return nil
	case <-p.stop:
		p.pending.Done()
		p.submitted.Add(-1)
		return ErrShutdown
	}
}

func (p *elasticPool) worker() {
	defer p.wg.Done()
	p.alive.Add(1)
	defer p.alive.Add(-1)

	idle := time.NewTimer(p.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case t := <-p.tasks:
			p.runTask(t)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(p.idleTimeout)
		case <-idle.C:
			return
		case <-p.stop:
			return
		}
	}
}

func (p *elasticPool) runTask(t task) {
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

func (p *elasticPool) close() {
	p.closed.Store(true)
}

func (p *elasticPool) drainWithin(timeout time.Duration) bool {
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

func (p *elasticPool) halt() {
	close(p.stop)
}

func (p *elasticPool) stats() PoolStats {
	return PoolStats{
		Workers:   int(p.alive.Load()),
		Active:    p.active.Load(),
		Queued:    0, // handoff channel is unbuffered; work is never queued
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

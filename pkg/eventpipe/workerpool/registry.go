package workerpool

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/contentforge/eventpipe/pkg/eventpipe/config"
)

// Config sizes the registry's pools. Zero values take defaults.
type Config struct {
	// ComputeWorkers is the compute pool size. Default: 2x logical CPUs.
	ComputeWorkers int

	// ComputeQueue is the compute pool's task queue capacity. Default: 1024.
	ComputeQueue int

	// BackgroundQueue is the background pool's task queue capacity.
	// The background pool always has exactly one worker, which is what
	// gives it strict FIFO execution. Default: 256.
	BackgroundQueue int

	// ParallelWorkers is the parallel pool size. Default: GOMAXPROCS.
	ParallelWorkers int

	// SchedulerWorkers is the scheduler pool size. Scheduled callbacks are
	// expected to be short dispatchers, not the work itself. Default: 3.
	SchedulerWorkers int

	// IOIdleTimeout is how long an idle I/O worker lingers before exiting.
	// Default: 30s.
	IOIdleTimeout time.Duration
}

// DefaultConfig returns the default pool sizing.
func DefaultConfig() Config {
	return Config{
		ComputeWorkers:   2 * runtime.NumCPU(),
		ComputeQueue:     1024,
		BackgroundQueue:  256,
		ParallelWorkers:  runtime.GOMAXPROCS(0),
		SchedulerWorkers: 3,
		IOIdleTimeout:    30 * time.Second,
	}
}

// FromConfig binds pool sizing from a loaded configuration.
// Missing keys keep their defaults.
func FromConfig(cfg config.Config) Config {
	def := DefaultConfig()
	return Config{
		ComputeWorkers:   cfg.Int("compute_workers", def.ComputeWorkers),
		ComputeQueue:     cfg.Int("compute_queue", def.ComputeQueue),
		BackgroundQueue:  cfg.Int("background_queue", def.BackgroundQueue),
		ParallelWorkers:  cfg.Int("parallel_workers", def.ParallelWorkers),
		SchedulerWorkers: cfg.Int("scheduler_workers", def.SchedulerWorkers),
		IOIdleTimeout:    cfg.Duration("io_idle_timeout", def.IOIdleTimeout),
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.ComputeWorkers < 1 {
		c.ComputeWorkers = def.ComputeWorkers
	}
	if c.ComputeQueue < 1 {
		c.ComputeQueue = def.ComputeQueue
	}
	if c.BackgroundQueue < 1 {
		c.BackgroundQueue = def.BackgroundQueue
	}
	if c.ParallelWorkers < 1 {
		c.ParallelWorkers = def.ParallelWorkers
	}
	if c.SchedulerWorkers < 1 {
		c.SchedulerWorkers = def.SchedulerWorkers
	}
	if c.IOIdleTimeout <= 0 {
		c.IOIdleTimeout = def.IOIdleTimeout
	}
	return c
}

// Registry owns the named execution pools. Construct one at the composition
// root and pass it to the components that need it; there is no ambient global
// instance.
type Registry struct {
	compute    *pool
	io         *elasticPool
	background *pool
	parallel   *pool
	sched      *scheduler
	logger     *slog.Logger

	shutdownOnce sync.Once
	done         chan struct{}
}

// NewRegistry creates a registry with pools sized per cfg.
// logger may be nil to disable pool logging.
func NewRegistry(cfg Config, logger *slog.Logger) *Registry {
	cfg = cfg.normalize()
	return &Registry{
		compute:    newPool("compute", cfg.ComputeWorkers, cfg.ComputeQueue, logger),
		io:         newElasticPool("io", cfg.IOIdleTimeout, logger),
		background: newPool("background", 1, cfg.BackgroundQueue, logger),
		parallel:   newPool("parallel", cfg.ParallelWorkers, cfg.ComputeQueue, logger),
		sched:      newScheduler(cfg.SchedulerWorkers, cfg.ComputeQueue, logger),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// submitTo wraps fn into a task resolving a future, with a panic backstop so
// a panicking fn rejects its own future instead of relying on pool recovery.
func submitTo[T any](s submitter, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	err := s.submit(task{
		run: func() {
			defer func() {
				if r := recover(); r != nil {
					f.fail(fmt.Errorf("pool execution: panic: %v", r))
					// Re-panic so the pool counts and logs the failure.
					panic(r)
				}
			}()
			v, err := fn()
			if err != nil {
				f.fail(fmt.Errorf("pool execution: %w", err))
				return
			}
			f.complete(v)
		},
		abort: func(err error) { f.fail(err) },
	})
	if err != nil {
		// The task was never queued; f can be abandoned.
		return failedFuture[T](err)
	}
	return f
}

// SubmitCompute runs fn on the compute pool.
func SubmitCompute[T any](r *Registry, fn func() (T, error)) *Future[T] {
	return submitTo(r.compute, fn)
}

// SubmitIO runs fn on the elastic I/O pool. The pool grows on demand, so
// blocking tasks cannot starve compute-bound work.
func SubmitIO[T any](r *Registry, fn func() (T, error)) *Future[T] {
	return submitTo(r.io, fn)
}

// SubmitParallel runs fn on the parallel pool, sized to hardware parallelism
// for CPU-bound fan-out. The Go runtime schedules its workers with work
// stealing across processors.
func SubmitParallel[T any](r *Registry, fn func() (T, error)) *Future[T] {
	return submitTo(r.parallel, fn)
}

// SubmitBackground runs fn on the single-worker background pool. Tasks
// execute strictly in submission order.
func (r *Registry) SubmitBackground(fn func() error) *Future[struct{}] {
	return submitTo(r.background, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

// ScheduleEvery repeats fn at fixed rate after an initial delay.
// A panic inside fn is recovered, counted as a failure, and does not cancel
// future executions.
func (r *Registry) ScheduleEvery(fn func(), initialDelay, period time.Duration) (*ScheduledTask, error) {
	return r.sched.schedule(fn, initialDelay, period)
}

// Stats returns per-pool usage counters keyed by pool name.
func (r *Registry) Stats() map[string]PoolStats {
	return map[string]PoolStats{
		"compute":    r.compute.stats(),
		"io":         r.io.stats(),
		"background": r.background.stats(),
		"parallel":   r.parallel.stats(),
		"scheduler":  r.sched.stats(),
	}
}

// Shutdown stops accepting new work, waits up to timeout for accepted tasks
// to finish, then cancels whatever is still queued. Idempotent; concurrent
// callers block until the first caller finishes.
func (r *Registry) Shutdown(timeout time.Duration) {
	r.shutdownOnce.Do(func() {
		defer close(r.done)

		r.sched.shutdown()
		r.compute.close()
		r.io.close()
		r.background.close()
		r.parallel.close()

		deadline := time.Now().Add(timeout)
		for _, p := range []*pool{r.compute, r.background, r.parallel, r.sched.exec} {
			p.drainWithin(time.Until(deadline))
		}
		r.io.drainWithin(time.Until(deadline))

		for _, p := range []*pool{r.compute, r.background, r.parallel, r.sched.exec} {
			p.stop()
		}
		r.io.halt()

		if r.logger != nil {
			r.logger.Info("worker pools shut down")
		}
	})
	<-r.done
}

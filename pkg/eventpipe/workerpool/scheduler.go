package workerpool

import (
	"log/slog"
	"sync"
	"time"
)

// scheduler repeats callbacks at fixed rate. Ticks only enqueue the callback
// onto a small fixed pool, so one slow callback cannot skew other timers.
// A panic inside a callback is recovered and counted by the pool and does not
// cancel future executions.
type scheduler struct {
	exec   *pool
	stop   chan struct{}
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func newScheduler(workers, queueSize int, logger *slog.Logger) *scheduler {
	return &scheduler{
		exec:   newPool("scheduler", workers, queueSize, logger),
		stop:   make(chan struct{}),
		logger: logger,
	}
}

// ScheduledTask cancels a periodic schedule. Cancelling does not interrupt
// an execution already in flight.
type ScheduledTask struct {
	cancel chan struct{}
	once   sync.Once
}

// Cancel stops future executions. Safe to call more than once.
func (t *ScheduledTask) Cancel() {
	t.once.Do(func() {
		close(t.cancel)
	})
}

func (s *scheduler) schedule(fn func(), initialDelay, period time.Duration) (*ScheduledTask, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrShutdown
	}
	s.wg.Add(1)
	s.mu.Unlock()

	handle := &ScheduledTask{cancel: make(chan struct{})}

	go func() {
		defer s.wg.Done()

		delay := time.NewTimer(initialDelay)
		defer delay.Stop()

		select {
		case <-delay.C:
		case <-handle.cancel:
			return
		case <-s.stop:
			return
		}

		s.dispatch(fn)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.dispatch(fn)
			case <-handle.cancel:
				return
			case <-s.stop:
				return
			}
		}
	}()

	return handle, nil
}

// dispatch enqueues one execution. A full scheduler queue drops the tick and
// logs; the schedule itself is unaffected.
func (s *scheduler) dispatch(fn func()) {
	err := s.exec.submit(task{
		run:   fn,
		abort: func(error) {},
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("scheduled execution dropped", slog.String("error", err.Error()))
	}
}

func (s *scheduler) shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
	s.exec.close()
}

func (s *scheduler) stats() PoolStats {
	return s.exec.stats()
}

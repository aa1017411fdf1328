package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/contentforge/eventpipe/pkg/eventpipe/event"
	"github.com/contentforge/eventpipe/pkg/eventpipe/journal"
	"github.com/contentforge/eventpipe/pkg/eventpipe/metrics"
	"github.com/contentforge/eventpipe/pkg/eventpipe/observability"
	"github.com/contentforge/eventpipe/pkg/eventpipe/queue"
	"github.com/contentforge/eventpipe/pkg/eventpipe/workerpool"
)

// Dead-letter reasons for queue overflow at submission time.
const (
	reasonHighFull     = "High priority queue full"
	reasonStandardFull = "Standard queue full"
	reasonBatchFull    = "Batch queue full"
)

// Pipeline routes submitted events through bounded queues to consumer workers
// that fan them out to registered observers. Construct with New, then Start;
// all methods are safe for concurrent use.
type Pipeline struct {
	cfg       Config
	pools     *workerpool.Registry
	logger    *slog.Logger
	recorder  observability.MetricsRecorder
	spans     observability.SpanManager
	jrnl      journal.Journal
	observers *event.ObserverRegistry
	sink      *metrics.Sink

	high     *queue.Priority[event.PriorityEnvelope]
	standard *queue.FIFO[*event.Event]
	batch    *queue.FIFO[*event.Event]
	dead     *queue.FIFO[*event.FailedEnvelope]

	// attempts carries retry counts across resubmissions, keyed by event ID,
	// so the retry cap is cumulative per event. Entries are cleared on
	// successful dispatch and on discard.
	attemptsMu sync.Mutex
	attempts   map[string]int

	mu      sync.Mutex
	running atomic.Bool
	stopCh  chan struct{}
	workers []*workerpool.Future[struct{}]
}

// Option configures pipeline construction.
type Option func(*Pipeline)

// WithConfig sets the pipeline tuning (default: DefaultConfig).
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) {
		p.cfg = cfg
	}
}

// WithLogger sets the logger. nil disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetricsRecorder sets the OTel metrics recorder (default: no-op).
func WithMetricsRecorder(r observability.MetricsRecorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// WithSpanManager sets the trace span manager (default: no-op).
func WithSpanManager(m observability.SpanManager) Option {
	return func(p *Pipeline) {
		p.spans = m
	}
}

// WithJournal sets the audit journal for permanently failed events
// (default: none). The pipeline does not close the journal.
func WithJournal(j journal.Journal) Option {
	return func(p *Pipeline) {
		p.jrnl = j
	}
}

// New creates a pipeline running its workers on the given pool registry.
func New(pools *workerpool.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       DefaultConfig(),
		pools:     pools,
		recorder:  observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
		observers: event.NewObserverRegistry(),
		sink:      metrics.NewSink(),
		attempts:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cfg = p.cfg.normalize()

	p.high = queue.NewPriority(p.cfg.QueueCapacity, event.PriorityEnvelope.Before)
	p.standard = queue.NewFIFO[*event.Event](p.cfg.QueueCapacity)
	p.batch = queue.NewFIFO[*event.Event](p.cfg.QueueCapacity)
	p.dead = queue.NewFIFO[*event.FailedEnvelope](p.cfg.DeadLetterCapacity)
	return p
}

// Start launches the consumer, batch, and dead-letter workers.
// Calling Start on a running pipeline is a no-op.
func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running.Load() {
		return
	}

	stop := make(chan struct{})
	p.stopCh = stop
	p.workers = p.workers[:0]

	for i := 0; i < p.cfg.Consumers; i++ {
		id := i
		p.workers = append(p.workers, workerpool.SubmitCompute(p.pools, func() (struct{}, error) {
			p.consumeLoop(id, stop)
			return struct{}{}, nil
		}))
	}
	p.workers = append(p.workers, workerpool.SubmitIO(p.pools, func() (struct{}, error) {
		p.batchLoop(stop)
		return struct{}{}, nil
	}))
	p.workers = append(p.workers, workerpool.SubmitIO(p.pools, func() (struct{}, error) {
		p.deadLetterLoop(stop)
		return struct{}{}, nil
	}))

	p.running.Store(true)
	observability.LogPipelineStart(p.logger, p.cfg.Consumers)
}

// Stop signals all workers to exit and waits up to the configured grace
// period for in-flight dispatches to finish. Events still queued stay
// queued; they are processed again only if the pipeline is restarted.
// Calling Stop on a stopped pipeline is a no-op.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running.Load() {
		return
	}

	elapsed := observability.TimedOperation()
	p.running.Store(false)
	close(p.stopCh)

	deadline := time.Now().Add(p.cfg.StopGrace)
	for _, w := range p.workers {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		w.GetWithin(remaining)
	}
	p.workers = nil

	observability.LogPipelineStop(p.logger, elapsed())
}

// Running reports whether the pipeline accepts submissions.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Submit routes evt by priority without blocking. High goes to the
// priority-ordered queue, Batch to the batch queue, Normal and Low to the
// standard queue. If the target queue is full the event is dead-lettered
// immediately and Submit still returns nil: overflow is a processing
// outcome, not a submission error.
func (p *Pipeline) Submit(evt *event.Event, pri event.Priority) error {
	if evt == nil {
		return ErrNilEvent
	}
	if !pri.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, int(pri))
	}
	if !p.running.Load() {
		return ErrNotRunning
	}

	p.sink.IncProduced()
	p.sink.IncType(evt.Type().String())
	p.recorder.RecordSubmit(context.Background(), evt.Type().String(), pri.String())

	switch pri {
	case event.PriorityHigh:
		env := event.PriorityEnvelope{Event: evt, Priority: pri, EnqueuedAt: time.Now()}
		if !p.high.Offer(env) {
			p.deadLetter(evt, reasonHighFull)
		}
	case event.PriorityBatch:
		if !p.batch.Offer(evt) {
			p.deadLetter(evt, reasonBatchFull)
		}
	default:
		if !p.standard.Offer(evt) {
			p.deadLetter(evt, reasonStandardFull)
		}
	}
	return nil
}

// SubmitBatch submits every event at the given priority, one routing per
// event. Submission is best-effort, not atomic: a rejected event does not
// stop the rest, already-routed events stay routed, and the returned error
// joins the individual rejections.
func (p *Pipeline) SubmitBatch(events []*event.Event, pri event.Priority) error {
	var errs []error
	for _, evt := range events {
		if err := p.Submit(evt, pri); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RegisterObserver adds an observer and returns a handle for Unregister.
// Registration takes effect on the next dispatch; a dispatch already in
// progress keeps its snapshot.
func (p *Pipeline) RegisterObserver(obs event.Observer) event.Handle {
	return p.observers.Register(obs)
}

// UnregisterObserver removes a previously registered observer.
func (p *Pipeline) UnregisterObserver(h event.Handle) {
	p.observers.Unregister(h)
}

// Observers returns the number of registered observers.
func (p *Pipeline) Observers() int {
	return p.observers.Len()
}

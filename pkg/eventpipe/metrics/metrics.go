// Package metrics provides the pipeline's counter sink. Counters increment
// atomically without a global lock and are read concurrently by monitoring
// code; they are monotonic and reset only on process restart. Updates are
// best-effort: a snapshot may be momentarily inconsistent with queue state
// under concurrent access.
package metrics

import (
	"sync"
	"sync/atomic"
)

// Sink accumulates pipeline counters.
type Sink struct {
	produced         atomic.Uint64
	processed        atomic.Uint64
	failed           atomic.Uint64
	retried          atomic.Uint64
	discarded        atomic.Uint64
	batches          atomic.Uint64
	observerFailures atomic.Uint64

	mu          sync.RWMutex
	perType     map[string]uint64
	perConsumer map[string]uint64
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{
		perType:     make(map[string]uint64),
		perConsumer: make(map[string]uint64),
	}
}

// IncProduced counts an offered event, regardless of routing outcome.
func (s *Sink) IncProduced() { s.produced.Add(1) }

// IncProcessed counts a completed dispatch pass.
func (s *Sink) IncProcessed() { s.processed.Add(1) }

// IncFailed counts an event routed to the dead-letter queue.
func (s *Sink) IncFailed() { s.failed.Add(1) }

// IncRetried counts a dead-letter resubmission.
func (s *Sink) IncRetried() { s.retried.Add(1) }

// IncDiscarded counts a permanently failed event.
func (s *Sink) IncDiscarded() { s.discarded.Add(1) }

// IncBatch counts one batch dispatch cycle.
func (s *Sink) IncBatch() { s.batches.Add(1) }

// IncObserverFailure counts an isolated observer error or panic.
func (s *Sink) IncObserverFailure() { s.observerFailures.Add(1) }

// IncType counts an offered event by type name.
func (s *Sink) IncType(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perType[name]++
}

// IncConsumer counts a dispatch by consumer name.
func (s *Sink) IncConsumer(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perConsumer[name]++
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Produced         uint64
	Processed        uint64
	Failed           uint64
	Retried          uint64
	Discarded        uint64
	Batches          uint64
	ObserverFailures uint64
	PerType          map[string]uint64
	PerConsumer      map[string]uint64
	SuccessRate      float64
	FailureRate      float64
}

// Snapshot copies the current counter values. Rates are relative to
// produced; both are zero when nothing has been produced yet.
func (s *Sink) Snapshot() Snapshot {
	snap := Snapshot{
		Produced:         s.produced.Load(),
		Processed:        s.processed.Load(),
		Failed:           s.failed.Load(),
		Retried:          s.retried.Load(),
		Discarded:        s.discarded.Load(),
		Batches:          s.batches.Load(),
		ObserverFailures: s.observerFailures.Load(),
	}

	s.mu.RLock()
	snap.PerType = make(map[string]uint64, len(s.perType))
	for k, v := range s.perType {
		snap.PerType[k] = v
	}
	snap.PerConsumer = make(map[string]uint64, len(s.perConsumer))
	for k, v := range s.perConsumer {
		snap.PerConsumer[k] = v
	}
	s.mu.RUnlock()

	if snap.Produced > 0 {
		snap.SuccessRate = float64(snap.Processed) / float64(snap.Produced)
		snap.FailureRate = float64(snap.Failed) / float64(snap.Produced)
	}
	return snap
}

package pipeline

import "github.com/contentforge/eventpipe/pkg/eventpipe/metrics"

// Stats is a point-in-time view of counters and queue depths. Counters and
// depths are sampled independently; under concurrent traffic they can be
// momentarily inconsistent with each other.
type Stats struct {
	metrics.Snapshot

	// QueueDepths maps queue name to current occupancy, keyed
	// "high", "standard", "batch", and "dead_letter".
	QueueDepths map[string]int

	// Observers is the number of registered observers.
	Observers int

	// Running reports whether the pipeline accepts submissions.
	Running bool
}

// Stats samples the current counters and queue depths.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Snapshot: p.sink.Snapshot(),
		QueueDepths: map[string]int{
			"high":        p.high.Len(),
			"standard":    p.standard.Len(),
			"batch":       p.batch.Len(),
			"dead_letter": p.dead.Len(),
		},
		Observers: p.observers.Len(),
		Running:   p.running.Load(),
	}
}

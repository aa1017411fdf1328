package event

import "time"

// PriorityEnvelope pairs an event with its routing priority and enqueue time.
// It exists only inside the high-priority queue: created at submission,
// consumed and discarded at dequeue.
type PriorityEnvelope struct {
	Event      *Event
	Priority   Priority
	EnqueuedAt time.Time
}

// Before reports whether e precedes other in dequeue order:
// higher priority first, earlier enqueue time breaking ties.
func (e PriorityEnvelope) Before(other PriorityEnvelope) bool {
	if e.Priority != other.Priority {
		return e.Priority > other.Priority
	}
	return e.EnqueuedAt.Before(other.EnqueuedAt)
}

// FailedEnvelope wraps an event that failed processing while it waits in the
// dead-letter queue. RetryCount is the number of retry attempts already spent
// on this event; the retry worker carries it forward across resubmissions so
// the retry cap is cumulative per event, not per dead-letter episode.
type FailedEnvelope struct {
	Event      *Event
	Reason     string
	FailedAt   time.Time
	RetryCount int
}

// NewFailedEnvelope creates a dead-letter entry for evt with a human-readable
// failure reason and the retry attempts already consumed.
func NewFailedEnvelope(evt *Event, reason string, retryCount int) *FailedEnvelope {
	return &FailedEnvelope{
		Event:      evt,
		Reason:     reason,
		FailedAt:   time.Now(),
		RetryCount: retryCount,
	}
}

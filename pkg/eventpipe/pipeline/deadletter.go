package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contentforge/eventpipe/pkg/eventpipe/event"
	"github.com/contentforge/eventpipe/pkg/eventpipe/journal"
	"github.com/contentforge/eventpipe/pkg/eventpipe/observability"
)

// deadLetter moves evt to the dead-letter queue, carrying forward any retry
// attempts already spent on it. If even the dead-letter queue is full the
// event is beyond saving and is discarded on the spot.
func (p *Pipeline) deadLetter(evt *event.Event, reason string) {
	retries := p.priorAttempts(evt.ID())
	fe := event.NewFailedEnvelope(evt, reason, retries)

	p.sink.IncFailed()
	p.recorder.RecordDeadLetter(context.Background(), reason)
	observability.LogDeadLetter(p.logger, evt.ID(), reason, retries)

	if !p.dead.Offer(fe) {
		p.discard(fe)
	}
}

// deadLetterLoop retries failed events until stop closes. Each envelope
// either gets one more retry, preceded by an exponential backoff of
// RetryBaseDelay << RetryCount, or is discarded once its cumulative attempts
// reach the cap. Retries resubmit through the standard queue; a retry that
// finds the queue still full goes back to the dead-letter queue with the
// attempt spent.
func (p *Pipeline) deadLetterLoop(stop <-chan struct{}) {
	logger := observability.EnrichLogger(p.logger, "dead-letter", 0)

	for {
		select {
		case <-stop:
			return
		default:
		}

		fe, ok := p.dead.Poll(p.cfg.DeadLetterPoll)
		if !ok {
			continue
		}

		if fe.RetryCount >= p.cfg.MaxRetryAttempts {
			p.discard(fe)
			continue
		}

		attempt := fe.RetryCount + 1
		delay := p.cfg.RetryBaseDelay << uint(fe.RetryCount)
		observability.LogRetryScheduled(logger, fe.Event.ID(), attempt, delay)
		if !p.sleep(delay, stop) {
			// Stopped mid-backoff; the envelope stays unretried.
			return
		}

		p.recordAttempt(fe.Event.ID(), attempt)
		p.sink.IncRetried()
		_, span := p.spans.StartRetrySpan(context.Background(), fe.Event.ID(), attempt)
		p.recorder.RecordRetry(context.Background(), attempt)

		if !p.standard.Offer(fe.Event) {
			p.deadLetter(fe.Event, reasonStandardFull)
		}
		p.spans.EndSpanWithError(span, nil)
	}
}

// discard drops a permanently failed event, leaving a log line, a counter,
// and an optional journal entry as its only traces.
func (p *Pipeline) discard(fe *event.FailedEnvelope) {
	p.sink.IncDiscarded()
	p.recorder.RecordDiscard(context.Background())
	p.clearAttempts(fe.Event.ID())
	observability.LogPermanentFailure(p.logger, fe.Event.ID(), fe.Reason, fe.RetryCount)

	if p.jrnl == nil {
		return
	}
	entry := journal.Entry{
		EventID:    fe.Event.ID(),
		EventType:  fe.Event.Type().String(),
		Reason:     fe.Reason,
		RetryCount: fe.RetryCount,
		FailedAt:   fe.FailedAt,
		Payload:    encodePayload(fe.Event.Payload()),
	}
	if err := p.jrnl.Record(context.Background(), entry); err != nil && p.logger != nil {
		p.logger.Warn("journal write failed",
			"event_id", fe.Event.ID(),
			"error", err.Error(),
		)
	}
}

// sleep waits for d unless stop closes first, reporting whether the full
// delay elapsed.
func (p *Pipeline) sleep(d time.Duration, stop <-chan struct{}) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	}
}

// priorAttempts returns the retry attempts already spent on the event.
func (p *Pipeline) priorAttempts(eventID string) int {
	p.attemptsMu.Lock()
	defer p.attemptsMu.Unlock()
	return p.attempts[eventID]
}

// recordAttempt stores the cumulative attempt count for the event.
func (p *Pipeline) recordAttempt(eventID string, attempt int) {
	p.attemptsMu.Lock()
	defer p.attemptsMu.Unlock()
	p.attempts[eventID] = attempt
}

// clearAttempts forgets the event's retry history.
func (p *Pipeline) clearAttempts(eventID string) {
	p.attemptsMu.Lock()
	defer p.attemptsMu.Unlock()
	delete(p.attempts, eventID)
}

// encodePayload renders an opaque payload for the journal. Byte slices and
// strings pass through; everything else is JSON when possible.
func encodePayload(v any) []byte {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return val
	case string:
		return []byte(val)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(fmt.Sprintf("%v", v))
	}
	return b
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/contentforge/eventpipe/pkg/eventpipe/event"
	"github.com/contentforge/eventpipe/pkg/eventpipe/observability"
)

// consumeLoop drains the high and standard queues until stop closes.
// Priority is strict: every iteration tries the high queue first, and only
// an empty high queue lets a standard event through. When both are empty the
// loop blocks on the high queue, so priority work wakes a consumer first and
// standard work waits at most one poll timeout.
func (p *Pipeline) consumeLoop(id int, stop <-chan struct{}) {
	name := fmt.Sprintf("consumer-%d", id)
	logger := observability.EnrichLogger(p.logger, "consumer", id)

	for {
		select {
		case <-stop:
			return
		default:
		}

		if env, ok := p.high.TryPoll(); ok {
			p.handle(env.Event, name, logger)
			continue
		}
		if evt, ok := p.standard.TryPoll(); ok {
			p.handle(evt, name, logger)
			continue
		}
		if env, ok := p.high.Poll(p.cfg.PollTimeout); ok {
			p.handle(env.Event, name, logger)
		}
	}
}

// handle runs one dispatch pass and settles the outcome: success clears the
// event's retry history and counts it processed; failure dead-letters it.
func (p *Pipeline) handle(evt *event.Event, consumer string, logger *slog.Logger) {
	if err := p.dispatch(evt, consumer, logger); err != nil {
		p.deadLetter(evt, err.Error())
		return
	}
	p.sink.IncProcessed()
	p.sink.IncConsumer(consumer)
	p.clearAttempts(evt.ID())
}

// dispatch fans evt out to a snapshot of the registered observers. Observer
// errors and panics are isolated: each failure is counted and logged, and
// the remaining observers still run. The pass itself fails only when every
// observer failed, which marks the event undeliverable rather than the
// observers flaky.
func (p *Pipeline) dispatch(evt *event.Event, consumer string, logger *slog.Logger) error {
	ctx, span := p.spans.StartDispatchSpan(context.Background(), evt.ID(), evt.Type().String())
	elapsed := observability.TimedOperation()

	snapshot := p.observers.Snapshot()
	failures := 0
	for _, obs := range snapshot {
		if err := safeNotify(obs, evt); err != nil {
			failures++
			p.sink.IncObserverFailure()
			observability.LogObserverError(logger, evt.ID(), err)
		}
	}

	var passErr error
	if len(snapshot) > 0 && failures == len(snapshot) {
		passErr = &event.EventError{EventID: evt.ID(), Message: "all observers failed"}
	}

	p.recorder.RecordDispatch(ctx, consumer, time.Duration(elapsed())*time.Millisecond)
	p.spans.EndSpanWithError(span, passErr)
	return passErr
}

// safeNotify delivers evt to one observer, converting a panic into an error.
func safeNotify(obs event.Observer, evt *event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	return event.Notify(obs, evt)
}

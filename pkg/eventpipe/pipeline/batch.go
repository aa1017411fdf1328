package pipeline

import (
	"context"

	"github.com/contentforge/eventpipe/pkg/eventpipe/event"
	"github.com/contentforge/eventpipe/pkg/eventpipe/observability"
)

// batchLoop drains the batch queue in greedy cycles until stop closes. Each
// cycle waits for a first event, then keeps draining with a short timeout
// until the batch is full or the queue runs dry, and dispatches the whole
// batch sequentially. One slow cycle delays the next; batch traffic trades
// latency for throughput.
func (p *Pipeline) batchLoop(stop <-chan struct{}) {
	logger := observability.EnrichLogger(p.logger, "batch", 0)

	for {
		select {
		case <-stop:
			return
		default:
		}

		first, ok := p.batch.Poll(p.cfg.BatchPollTimeout)
		if !ok {
			continue
		}

		events := make([]*event.Event, 1, p.cfg.BatchSize)
		events[0] = first
		for len(events) < p.cfg.BatchSize {
			next, ok := p.batch.Poll(p.cfg.BatchDrainTimeout)
			if !ok {
				break
			}
			events = append(events, next)
		}

		ctx, span := p.spans.StartBatchSpan(context.Background(), len(events))
		for _, evt := range events {
			p.handle(evt, "batch", logger)
		}
		p.sink.IncBatch()
		p.recorder.RecordBatch(ctx, len(events))
		p.spans.EndSpanWithError(span, nil)
	}
}

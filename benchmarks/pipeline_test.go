// Package benchmarks measures pipeline throughput under synthetic load.
package benchmarks

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/contentforge/eventpipe/pkg/eventpipe/event"
	"github.com/contentforge/eventpipe/pkg/eventpipe/pipeline"
	"github.com/contentforge/eventpipe/pkg/eventpipe/queue"
	"github.com/contentforge/eventpipe/pkg/eventpipe/workerpool"
)

func newBenchPipeline(b *testing.B) *pipeline.Pipeline {
	b.Helper()
	pools := workerpool.NewRegistry(workerpool.DefaultConfig(), nil)
	b.Cleanup(func() { pools.Shutdown(5 * time.Second) })

	cfg := pipeline.DefaultConfig()
	cfg.QueueCapacity = 1 << 20
	p := pipeline.New(pools, pipeline.WithConfig(cfg))
	p.Start()
	b.Cleanup(p.Stop)
	return p
}

func BenchmarkSubmit(b *testing.B) {
	p := newBenchPipeline(b)
	p.RegisterObserver(event.ObserverFuncs{
		Updated: func(*event.Event) error { return nil },
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Submit(event.New(event.TypeUpdated, i), event.PriorityNormal)
	}
}

func BenchmarkSubmitParallel(b *testing.B) {
	p := newBenchPipeline(b)
	p.RegisterObserver(event.ObserverFuncs{
		Updated: func(*event.Event) error { return nil },
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p.Submit(event.New(event.TypeUpdated, nil), event.PriorityNormal)
		}
	})
}

func BenchmarkEndToEndDispatch(b *testing.B) {
	p := newBenchPipeline(b)

	var delivered atomic.Int64
	p.RegisterObserver(event.ObserverFuncs{
		Updated: func(*event.Event) error {
			delivered.Add(1)
			return nil
		},
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Submit(event.New(event.TypeUpdated, nil), event.PriorityNormal)
	}
	for delivered.Load() < int64(b.N) {
		time.Sleep(time.Millisecond)
	}
}

func BenchmarkFIFOOfferPoll(b *testing.B) {
	q := queue.NewFIFO[int](1 << 20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Offer(i)
		q.TryPoll()
	}
}

func BenchmarkPriorityOfferPoll(b *testing.B) {
	q := queue.NewPriority(1<<20, func(a, b event.PriorityEnvelope) bool {
		return a.Before(b)
	})
	env := event.PriorityEnvelope{
		Event:      event.New(event.TypeUpdated, nil),
		Priority:   event.PriorityHigh,
		EnqueuedAt: time.Now(),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Offer(env)
		q.TryPoll()
	}
}

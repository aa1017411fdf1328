package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentforge/eventpipe/pkg/eventpipe/event"
	"github.com/contentforge/eventpipe/pkg/eventpipe/journal"
	"github.com/contentforge/eventpipe/pkg/eventpipe/workerpool"
)

// newIdlePipeline builds a pipeline whose workers are never started, so the
// dead-letter internals can be driven directly.
func newIdlePipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	pools := workerpool.NewRegistry(workerpool.Config{ComputeWorkers: 1}, nil)
	t.Cleanup(func() { pools.Shutdown(time.Second) })
	return New(pools, WithConfig(cfg))
}

func TestDeadLetterCarriesPriorAttempts(t *testing.T) {
	p := newIdlePipeline(t, Config{QueueCapacity: 10})

	evt := event.New(event.TypeUpdated, nil, event.WithID("e1"))
	p.recordAttempt("e1", 2)
	p.deadLetter(evt, reasonStandardFull)

	fe, ok := p.dead.TryPoll()
	require.True(t, ok)
	assert.Equal(t, 2, fe.RetryCount)
	assert.Equal(t, reasonStandardFull, fe.Reason)
}

func TestAttemptTracking(t *testing.T) {
	p := newIdlePipeline(t, Config{})

	assert.Zero(t, p.priorAttempts("e1"))
	p.recordAttempt("e1", 1)
	p.recordAttempt("e1", 2)
	assert.Equal(t, 2, p.priorAttempts("e1"))

	p.clearAttempts("e1")
	assert.Zero(t, p.priorAttempts("e1"))
}

// A full dead-letter queue discards on the spot rather than blocking.
func TestDeadLetterQueueFullDiscards(t *testing.T) {
	jrnl := journal.NewMemory()
	p := newIdlePipeline(t, Config{DeadLetterCapacity: 1})
	p.jrnl = jrnl

	p.deadLetter(event.New(event.TypeUpdated, nil), reasonHighFull)
	p.deadLetter(event.New(event.TypeUpdated, nil), reasonHighFull)

	snap := p.sink.Snapshot()
	assert.Equal(t, uint64(2), snap.Failed)
	assert.Equal(t, uint64(1), snap.Discarded)
	assert.Equal(t, 1, p.dead.Len())

	n, err := jrnl.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// A retry must not fire before its full backoff has elapsed: an envelope
// with one attempt spent waits at least base<<1 before re-entering the
// standard queue.
func TestRetryWaitsOutBackoff(t *testing.T) {
	p := newIdlePipeline(t, Config{
		QueueCapacity:    10,
		MaxRetryAttempts: 3,
		RetryBaseDelay:   50 * time.Millisecond,
		DeadLetterPoll:   5 * time.Millisecond,
	})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		p.deadLetterLoop(stop)
		close(done)
	}()
	t.Cleanup(func() {
		close(stop)
		<-done
	})

	evt := event.New(event.TypeUpdated, nil, event.WithID("e1"))
	start := time.Now()
	require.True(t, p.dead.Offer(event.NewFailedEnvelope(evt, reasonStandardFull, 1)))

	deadline := time.Now().Add(2 * time.Second)
	for p.standard.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	require.Equal(t, uint64(1), p.sink.Snapshot().Retried, "retry never happened")
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond,
		"second retry must wait at least twice the base delay")

	got, ok := p.standard.TryPoll()
	require.True(t, ok, "retried event should re-enter the standard queue")
	assert.Equal(t, "e1", got.ID())
	assert.Equal(t, 2, p.priorAttempts("e1"), "attempt count carries forward")
}

func TestBackoffDoubling(t *testing.T) {
	cfg := Config{RetryBaseDelay: 100 * time.Millisecond}.normalize()

	for retryCount, want := range map[int]time.Duration{
		0: 100 * time.Millisecond,
		1: 200 * time.Millisecond,
		2: 400 * time.Millisecond,
		3: 800 * time.Millisecond,
	} {
		assert.Equal(t, want, cfg.RetryBaseDelay<<uint(retryCount))
	}
}

func TestEncodePayload(t *testing.T) {
	assert.Nil(t, encodePayload(nil))
	assert.Equal(t, []byte("raw"), encodePayload([]byte("raw")))
	assert.Equal(t, []byte("text"), encodePayload("text"))
	assert.JSONEq(t, `{"doc":"d1"}`, string(encodePayload(map[string]string{"doc": "d1"})))
	assert.Equal(t, []byte("42"), encodePayload(42))
}

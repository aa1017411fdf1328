package queue_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/contentforge/eventpipe/pkg/eventpipe/queue"
)

func TestFIFOOrder(t *testing.T) {
	q := queue.NewFIFO[int](10)
	for i := 0; i < 5; i++ {
		if !q.Offer(i) {
			t.Fatalf("offer %d rejected", i)
		}
	}
	for i := 0; i < 5; i++ {
		v, ok := q.Poll(time.Second)
		if !ok {
			t.Fatalf("poll %d timed out", i)
		}
		if v != i {
			t.Errorf("poll %d = %d, want %d", i, v, i)
		}
	}
}

func TestFIFOOfferFullDoesNotBlock(t *testing.T) {
	q := queue.NewFIFO[int](2)
	q.Offer(1)
	q.Offer(2)

	start := time.Now()
	if q.Offer(3) {
		t.Error("offer to full queue should report false")
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("offer blocked for %v", elapsed)
	}
	if q.Len() != 2 {
		t.Errorf("len = %d, want 2", q.Len())
	}
}

func TestFIFOPollTimeout(t *testing.T) {
	q := queue.NewFIFO[int](1)

	start := time.Now()
	_, ok := q.Poll(20 * time.Millisecond)
	if ok {
		t.Error("poll on empty queue should report false")
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("poll returned after %v, expected to wait out the timeout", elapsed)
	}
}

func TestFIFOPollWakesOnOffer(t *testing.T) {
	q := queue.NewFIFO[int](1)

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Offer(7)
	}()

	v, ok := q.Poll(time.Second)
	if !ok || v != 7 {
		t.Fatalf("poll = (%d, %v), want (7, true)", v, ok)
	}
}

func TestFIFOTryPoll(t *testing.T) {
	q := queue.NewFIFO[int](1)
	if _, ok := q.TryPoll(); ok {
		t.Error("try-poll on empty queue should report false")
	}
	q.Offer(1)
	if v, ok := q.TryPoll(); !ok || v != 1 {
		t.Errorf("try-poll = (%d, %v), want (1, true)", v, ok)
	}
}

func TestFIFOConcurrentConservation(t *testing.T) {
	q := queue.NewFIFO[int](1000)
	const producers = 4
	const perProducer = 250

	var consumed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				for !q.Offer(j) {
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}

	done := make(chan struct{})
	for i := 0; i < 2; i++ {
		go func() {
			for {
				select {
				case <-done:
					return
				default:
				}
				if _, ok := q.Poll(10 * time.Millisecond); ok {
					consumed.Add(1)
				}
			}
		}()
	}

	wg.Wait()
	deadline := time.Now().Add(5 * time.Second)
	for consumed.Load() < producers*perProducer && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	close(done)

	if got := consumed.Load(); got != producers*perProducer {
		t.Errorf("consumed %d items, want %d", got, producers*perProducer)
	}
}

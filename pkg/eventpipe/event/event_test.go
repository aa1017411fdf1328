package event_test

import (
	"testing"
	"time"

	"github.com/contentforge/eventpipe/pkg/eventpipe/event"
)

func TestNewEvent(t *testing.T) {
	evt := event.New(event.TypeCreated, map[string]string{"id": "doc-1"})

	if evt.ID() == "" {
		t.Error("expected generated ID")
	}
	if evt.Type() != event.TypeCreated {
		t.Errorf("expected TypeCreated, got %v", evt.Type())
	}
	if evt.CreatedAt().IsZero() {
		t.Error("expected creation timestamp")
	}
	payload, ok := evt.Payload().(map[string]string)
	if !ok || payload["id"] != "doc-1" {
		t.Errorf("payload not preserved: %v", evt.Payload())
	}
}

func TestNewEventOptions(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	evt := event.New(event.TypeDeleted, nil,
		event.WithID("fixed-id"),
		event.WithCreatedAt(at),
	)

	if evt.ID() != "fixed-id" {
		t.Errorf("expected fixed-id, got %s", evt.ID())
	}
	if !evt.CreatedAt().Equal(at) {
		t.Errorf("expected %v, got %v", at, evt.CreatedAt())
	}
}

func TestTypeString(t *testing.T) {
	cases := map[event.Type]string{
		event.TypeCreated:         "created",
		event.TypeUpdated:         "updated",
		event.TypeStatusChanged:   "status_changed",
		event.TypeMetadataChanged: "metadata_changed",
		event.TypePublished:       "published",
		event.TypeDeleted:         "deleted",
		event.Type(99):            "unknown",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("Type(%d).String() = %q, want %q", typ, got, want)
		}
	}
}

func TestTypeCategory(t *testing.T) {
	cases := map[event.Type]event.Category{
		event.TypeCreated:         event.CategoryCreated,
		event.TypeUpdated:         event.CategoryUpdated,
		event.TypeStatusChanged:   event.CategoryUpdated,
		event.TypeMetadataChanged: event.CategoryUpdated,
		event.TypePublished:       event.CategoryPublished,
		event.TypeDeleted:         event.CategoryDeleted,
	}
	for typ, want := range cases {
		if got := typ.Category(); got != want {
			t.Errorf("Type(%d).Category() = %v, want %v", typ, got, want)
		}
	}
}

func TestUnknownTypeFallsBackToUpdated(t *testing.T) {
	if got := event.Type(42).Category(); got != event.CategoryUpdated {
		t.Errorf("unknown type category = %v, want CategoryUpdated", got)
	}
}

func TestPriorityOrdering(t *testing.T) {
	if !(event.PriorityHigh > event.PriorityNormal) {
		t.Error("High should outrank Normal")
	}
	if !(event.PriorityNormal > event.PriorityLow) {
		t.Error("Normal should outrank Low")
	}
	if !(event.PriorityLow > event.PriorityBatch) {
		t.Error("Low should outrank Batch")
	}
}

func TestPriorityValid(t *testing.T) {
	for _, p := range []event.Priority{event.PriorityBatch, event.PriorityLow, event.PriorityNormal, event.PriorityHigh} {
		if !p.Valid() {
			t.Errorf("%v should be valid", p)
		}
	}
	if event.Priority(-1).Valid() {
		t.Error("-1 should be invalid")
	}
	if event.Priority(4).Valid() {
		t.Error("4 should be invalid")
	}
}

func TestPriorityEnvelopeBefore(t *testing.T) {
	now := time.Now()
	high := event.PriorityEnvelope{Priority: event.PriorityHigh, EnqueuedAt: now}
	low := event.PriorityEnvelope{Priority: event.PriorityLow, EnqueuedAt: now.Add(-time.Second)}

	if !high.Before(low) {
		t.Error("higher priority should dequeue first regardless of age")
	}

	older := event.PriorityEnvelope{Priority: event.PriorityHigh, EnqueuedAt: now.Add(-time.Second)}
	if !older.Before(high) {
		t.Error("same priority should dequeue oldest first")
	}
}

func TestFailedEnvelope(t *testing.T) {
	evt := event.New(event.TypeUpdated, nil)
	fe := event.NewFailedEnvelope(evt, "Standard queue full", 2)

	if fe.Event != evt {
		t.Error("event not preserved")
	}
	if fe.Reason != "Standard queue full" {
		t.Errorf("reason = %q", fe.Reason)
	}
	if fe.RetryCount != 2 {
		t.Errorf("retry count = %d, want 2", fe.RetryCount)
	}
	if fe.FailedAt.IsZero() {
		t.Error("expected failure timestamp")
	}
}

// Package event defines the event model for the pipeline: immutable domain
// events with a discriminated type, the routing priorities, the envelopes the
// queues carry, and the observer registry dispatch fans out to.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Type discriminates domain events. The set is closed; values outside it are
// still dispatched (they fall into the Updated family, see Category).
type Type int

const (
	// TypeCreated marks a newly created content item.
	TypeCreated Type = iota

	// TypeUpdated marks a content change.
	TypeUpdated

	// TypeStatusChanged marks a workflow status transition.
	TypeStatusChanged

	// TypeMetadataChanged marks a metadata-only change.
	TypeMetadataChanged

	// TypePublished marks a publish.
	TypePublished

	// TypeDeleted marks a deletion.
	TypeDeleted
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeCreated:
		return "created"
	case TypeUpdated:
		return "updated"
	case TypeStatusChanged:
		return "status_changed"
	case TypeMetadataChanged:
		return "metadata_changed"
	case TypePublished:
		return "published"
	case TypeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Category is the coarse grouping observers are notified by.
type Category int

const (
	CategoryCreated Category = iota
	CategoryUpdated
	CategoryPublished
	CategoryDeleted
)

// Category maps an event type to its observer callback family.
// Unknown types map to the Updated family. This fallback is deliberate,
// not an omission: new types get delivered before observers learn them.
func (t Type) Category() Category {
	switch t {
	case TypeCreated:
		return CategoryCreated
	case TypePublished:
		return CategoryPublished
	case TypeDeleted:
		return CategoryDeleted
	case TypeUpdated, TypeStatusChanged, TypeMetadataChanged:
		return CategoryUpdated
	default:
		return CategoryUpdated
	}
}

// Priority selects which queue a submission is routed to.
// Numerically descending precedence: High > Normal > Low > Batch.
type Priority int

const (
	// PriorityBatch routes to the batch queue for aggregated dispatch.
	PriorityBatch Priority = iota

	// PriorityLow routes to the standard queue.
	PriorityLow

	// PriorityNormal routes to the standard queue.
	PriorityNormal

	// PriorityHigh routes to the priority-ordered queue.
	PriorityHigh
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityBatch:
		return "batch"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "invalid"
	}
}

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	return p >= PriorityBatch && p <= PriorityHigh
}

// Event is an immutable domain event. It is owned by its producer until
// enqueued; after that, by whichever queue holds it. It is never mutated
// after creation.
type Event struct {
	id        string
	typ       Type
	payload   any
	createdAt time.Time
}

// Option configures event creation.
type Option func(*eventConfig)

type eventConfig struct {
	id        string
	createdAt time.Time
}

// WithID sets a specific event ID (default: auto-generated UUID).
func WithID(id string) Option {
	return func(cfg *eventConfig) {
		cfg.id = id
	}
}

// WithCreatedAt sets a specific creation timestamp (default: time.Now()).
func WithCreatedAt(t time.Time) Option {
	return func(cfg *eventConfig) {
		cfg.createdAt = t
	}
}

// New creates an event with the given type and opaque payload.
func New(typ Type, payload any, opts ...Option) *Event {
	cfg := &eventConfig{
		id:        uuid.New().String(),
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Event{
		id:        cfg.id,
		typ:       typ,
		payload:   payload,
		createdAt: cfg.createdAt,
	}
}

// ID returns the unique event identifier.
func (e *Event) ID() string {
	return e.id
}

// Type returns the event type.
func (e *Event) Type() Type {
	return e.typ
}

// Payload returns the opaque domain payload.
func (e *Event) Payload() any {
	return e.payload
}

// CreatedAt returns when the event was created.
func (e *Event) CreatedAt() time.Time {
	return e.createdAt
}

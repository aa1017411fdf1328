package event

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Observer receives dispatched events, one callback per coarse category.
// Callbacks are fire-and-forget from the producer's point of view: returned
// errors (and panics) are caught by the pipeline and never propagate to the
// caller of Submit.
type Observer interface {
	OnCreated(evt *Event) error
	OnUpdated(evt *Event) error
	OnPublished(evt *Event) error
	OnDeleted(evt *Event) error
}

// ObserverFuncs adapts plain functions to the Observer interface.
// Nil fields ignore their category.
type ObserverFuncs struct {
	Created   func(evt *Event) error
	Updated   func(evt *Event) error
	Published func(evt *Event) error
	Deleted   func(evt *Event) error
}

// OnCreated implements Observer.
func (o ObserverFuncs) OnCreated(evt *Event) error {
	if o.Created == nil {
		return nil
	}
	return o.Created(evt)
}

// OnUpdated implements Observer.
func (o ObserverFuncs) OnUpdated(evt *Event) error {
	if o.Updated == nil {
		return nil
	}
	return o.Updated(evt)
}

// OnPublished implements Observer.
func (o ObserverFuncs) OnPublished(evt *Event) error {
	if o.Published == nil {
		return nil
	}
	return o.Published(evt)
}

// OnDeleted implements Observer.
func (o ObserverFuncs) OnDeleted(evt *Event) error {
	if o.Deleted == nil {
		return nil
	}
	return o.Deleted(evt)
}

// Notify dispatches evt to the type-appropriate callback of obs.
// The default arm routes unknown types to OnUpdated.
func Notify(obs Observer, evt *Event) error {
	switch evt.Type().Category() {
	case CategoryCreated:
		return obs.OnCreated(evt)
	case CategoryPublished:
		return obs.OnPublished(evt)
	case CategoryDeleted:
		return obs.OnDeleted(evt)
	case CategoryUpdated:
		return obs.OnUpdated(evt)
	default:
		return obs.OnUpdated(evt)
	}
}

// Handle identifies a registration in an ObserverRegistry.
type Handle int64

// ObserverRegistry is a concurrent set of observers. Register and Unregister
// are O(1) and safe under concurrent dispatch; Snapshot gives iterators an
// isolated view so a concurrent add or remove never disturbs a dispatch pass.
type ObserverRegistry struct {
	mu        sync.RWMutex
	observers map[Handle]Observer
	nextID    atomic.Int64
}

// NewObserverRegistry creates an empty registry.
func NewObserverRegistry() *ObserverRegistry {
	return &ObserverRegistry{
		observers: make(map[Handle]Observer),
	}
}

// Register adds an observer and returns its handle.
func (r *ObserverRegistry) Register(obs Observer) Handle {
	h := Handle(r.nextID.Add(1))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers[h] = obs
	return h
}

// Unregister removes the observer registered under h.
// Unknown handles are ignored.
func (r *ObserverRegistry) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.observers, h)
}

// Len returns the number of registered observers.
func (r *ObserverRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}

// Snapshot returns the current observers. The slice is a copy; iteration
// order is not guaranteed.
func (r *ObserverRegistry) Snapshot() []Observer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Observer, 0, len(r.observers))
	for _, obs := range r.observers {
		out = append(out, obs)
	}
	return out
}

// EventError reports a failure while processing a specific event.
type EventError struct {
	EventID string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *EventError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("event %s: %s: %v", e.EventID, e.Message, e.Err)
	}
	return fmt.Sprintf("event %s: %s", e.EventID, e.Message)
}

// Unwrap returns the underlying error.
func (e *EventError) Unwrap() error {
	return e.Err
}

// Package journal records permanently failed events for later inspection.
// The pipeline discards an event once its retry budget is exhausted; a
// journal is the only durable trace such an event leaves. Two
// implementations are provided: an in-memory journal for tests and
// single-run diagnostics, and a SQLite journal for audit trails that
// survive restarts.
package journal

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned when the journal is used after Close.
var ErrClosed = errors.New("journal is closed")

// Entry describes one permanently failed event.
type Entry struct {
	EventID    string
	EventType  string
	Reason     string
	RetryCount int
	FailedAt   time.Time
	Payload    []byte
}

// Journal is an append-only record of permanent failures.
type Journal interface {
	// Record appends an entry.
	Record(ctx context.Context, e Entry) error

	// List returns the most recent entries, newest first.
	// limit <= 0 returns all entries.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Count returns the number of recorded entries.
	Count(ctx context.Context) (int, error)

	// Close releases the journal's resources.
	Close() error
}

// Memory is an in-memory journal.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
	closed  bool
}

// NewMemory creates an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{}
}

// Record implements Journal.
func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.entries = append(m.entries, e)
	return nil
}

// List implements Journal.
func (m *Memory) List(_ context.Context, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	n := len(m.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Count implements Journal.
func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	return len(m.entries), nil
}

// Close implements Journal.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

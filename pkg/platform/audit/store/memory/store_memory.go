package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	audit "civicproof/pkg/platform/audit"
)

// InMemoryStore is an append-only security log for tests and local runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByWorker returns the worker's events, newest first.
func (s *InMemoryStore) ListByWorker(_ context.Context, email string, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if strings.EqualFold(e.SubmitterEmail, email) {
			out = append(out, e)
		}
	}
	return newestFirst(out, limit), nil
}

// ListRecent returns the most recent events across all workers.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(append([]audit.Event(nil), s.events...), limit), nil
}

func (s *InMemoryStore) CountSince(_ context.Context, email string, action audit.Action, since time.Time, minScore int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.events {
		if strings.EqualFold(e.SubmitterEmail, email) && e.Action == action &&
			!e.Timestamp.Before(since) && e.Score >= minScore {
			n++
		}
	}
	return n, nil
}

// All returns a copy of every stored event in insertion order.
func (s *InMemoryStore) All() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event(nil), s.events...)
}

func newestFirst(events []audit.Event, limit int) []audit.Event {
	slices.SortStableFunc(events, func(a, b audit.Event) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}

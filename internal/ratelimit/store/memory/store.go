package memory

import (
	"context"
	"sync"
	"time"

	"civicproof/internal/ratelimit/models"
)

// InMemoryStore implements a fixed-window counter in process memory. It is
// the fallback when Redis is unavailable and the default for single-node runs.
type InMemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

type Option func(*InMemoryStore)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

func New(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit counts one request against key and reports whether it fits the limit.
func (s *InMemoryStore) Hit(_ context.Context, key string, limit models.Limit) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w := s.windows[key]
	if w == nil || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(limit.Window)}
		s.windows[key] = w
	}
	w.count++
	return models.NewResult(w.count, limit, w.resetAt, now), nil
}

// Sweep drops expired windows.
func (s *InMemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked windows.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

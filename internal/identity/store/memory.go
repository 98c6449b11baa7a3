package store

import (
	"context"
	"sync"

	"civicproof/internal/identity"
	"civicproof/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]identity.Worker
}

func NewInMemoryStore(workers ...identity.Worker) *InMemoryStore {
	s := &InMemoryStore{byEmail: make(map[string]identity.Worker)}
	for _, w := range workers {
		s.Put(w)
	}
	return s
}

func (s *InMemoryStore) Put(w identity.Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Email = identity.NormalizeEmail(w.Email)
	s.byEmail[w.Email] = w
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*identity.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.byEmail[identity.NormalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &w, nil
}

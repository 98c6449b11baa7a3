// Package storage holds uploaded after-images. The FTP backend serves
// deployments; the in-memory backend serves tests and local runs, exposed over
// HTTP under /objects/.
package storage

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"civicproof/pkg/platform/sentinel"
)

type object struct {
	contentType string
	data        []byte
}

// MemoryStore keeps objects in process. URLs point at BaseURL + "/objects/" + key.
type MemoryStore struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]object
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]object),
	}
}

func (s *MemoryStore) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", sentinel.ErrInvalidState
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key] = object{contentType: contentType, data: buf}
	s.mu.Unlock()
	return s.baseURL + "/objects/" + key, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, strings.TrimLeft(key, "/"))
	return nil
}

// Get returns a stored object.
func (s *MemoryStore) Get(key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[strings.TrimLeft(key, "/")]
	if !ok {
		return nil, "", sentinel.ErrNotFound
	}
	return obj.data, obj.contentType, nil
}

// Len reports the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Handler serves GET /objects/{key...}. Mount it with http.StripPrefix("/objects", ...)
// or under a router wildcard.
func (s *MemoryStore) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		data, contentType, err := s.Get(strings.TrimPrefix(r.URL.Path, "/objects/"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "private, max-age=300")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	})
}

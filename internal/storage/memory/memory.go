package memory

import (
	"context"
	"sync"
)

// Store is an in-memory media store for development and tests.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewStore creates an in-memory store. baseURL prefixes returned URLs.
func NewStore(baseURL string) *Store {
	return &Store{
		objects: make(map[string][]byte),
		baseURL: baseURL,
	}
}

// Save stores the payload under the key and returns its URL.
func (s *Store) Save(_ context.Context, key, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = buf

	return s.baseURL + "/" + key, nil
}

// Delete removes the object. Missing keys are a no-op.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// Get returns the stored bytes, for tests.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[key]
	return data, ok
}

// Len returns the number of stored objects, for tests.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

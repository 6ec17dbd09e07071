package param

import (
	"context"
	"sync"
)

// InMemoryStore is an in-memory implementation of Store for testing.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]any
	err    error
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		values: make(map[string]any),
	}
}

// Get retrieves a value by name.
func (s *InMemoryStore) Get(ctx context.Context, name string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.values[name]
	if !ok {
		return nil, ErrParameterNotFound
	}
	return v, nil
}

// Set stores a value under the given name.
func (s *InMemoryStore) Set(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

// Delete removes a value.
func (s *InMemoryStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
}

// FailWith makes every subsequent Get return err, simulating an
// unreachable store. Pass nil to restore normal behaviour.
func (s *InMemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

var _ Store = (*InMemoryStore)(nil)

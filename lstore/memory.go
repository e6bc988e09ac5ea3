package lstore

import "sync"

// MemoryHolder implements Holder on a map. Used by tests and by import
// dry runs; nothing is persisted.
type MemoryHolder struct {
	mu sync.RWMutex
	m  map[string]string
}

var _ Holder = (*MemoryHolder)(nil)

// NewMemoryHolder creates an empty in-memory holder.
func NewMemoryHolder() *MemoryHolder {
	return &MemoryHolder{m: make(map[string]string)}
}

// Get retrieves a value by key.
func (s *MemoryHolder) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

// Set stores a value by key.
func (s *MemoryHolder) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

// Delete removes a key.
func (s *MemoryHolder) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

// Keys returns all stored keys in map order.
func (s *MemoryHolder) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	return keys, nil
}

// Len returns the number of stored keys.
func (s *MemoryHolder) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

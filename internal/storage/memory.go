package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory key-value store.
type MemoryStore struct {
	name string

	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore reported under name.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{
		name:   name,
		values: make(map[string]string),
	}
}

// Name returns the store name used in logs and metrics.
func (s *MemoryStore) Name() string {
	return s.name
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
}

// MemoryStores hands out one MemoryStore per user.
type MemoryStores struct {
	name string

	mu     sync.Mutex
	stores map[int64]*MemoryStore
}

func NewMemoryStores(name string) *MemoryStores {
	return &MemoryStores{name: name, stores: make(map[int64]*MemoryStore)}
}

// UserStore returns the user's store, creating it on first use.
func (m *MemoryStores) UserStore(userID int64) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.stores[userID]
	if !ok {
		s = NewMemoryStore(m.name)
		m.stores[userID] = s
	}
	return s
}

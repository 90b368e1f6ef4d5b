package store

import (
	"context"
	"sync"
)

// MemoryStore is an IntStore backed by a map. It is lost on exit.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]int64)}
}

func (s *MemoryStore) GetInt(_ context.Context, key string, def int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	if !ok {
		s.values[key] = def
		return def, nil
	}
	return value, nil
}

func (s *MemoryStore) PutInt(_ context.Context, key string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *MemoryStore) IncrementInt(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] += delta
	return s.values[key], nil
}

func (s *MemoryStore) DecrementInt(ctx context.Context, key string, delta int64) (int64, error) {
	return s.IncrementInt(ctx, key, -delta)
}

func (s *MemoryStore) Close() error {
	return nil
}

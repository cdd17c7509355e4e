package memory

import (
	"context"
	"sync"

	"quizwizz-play/internal/prefs"
)

// KVStore is a process-local prefs.Store.
type KVStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	fanout prefs.Fanout
}

func NewKVStore() *KVStore {
	return &KVStore{values: make(map[string][]byte)}
}

func (s *KVStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *KVStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.values[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	s.fanout.Publish(key, value)
	return nil
}

// Update runs fn and stores its result while holding the write lock.
func (s *KVStore) Update(_ context.Context, key string, fn func([]byte, bool) ([]byte, error)) ([]byte, error) {
	s.mu.Lock()
	current, ok := s.values[key]
	next, err := fn(append([]byte(nil), current...), ok)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.values[key] = append([]byte(nil), next...)
	s.mu.Unlock()
	s.fanout.Publish(key, next)
	return next, nil
}

func (s *KVStore) Subscribe(ctx context.Context, key string) (<-chan []byte, func(), error) {
	ch, cancel := s.fanout.Subscribe(ctx, key)
	return ch, cancel, nil
}

// Package memory holds in-process implementations of the repository
// interfaces, used when STORAGE_DRIVER=memory and by tests.
package memory

import (
	"context"
	"sync"

	"github.com/fastygo/taskpoints/repository"
)

// KV is a map-backed KeyValueStore.
type KV struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ repository.KeyValueStore = (*KV)(nil)

func NewKV() *KV {
	return &KV{data: make(map[string]string)}
}

func (s *KV) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *KV) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *KV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

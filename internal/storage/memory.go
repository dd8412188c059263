// internal/storage/memory.go
package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and standalone runs.
type MemoryStore struct {
	mu      sync.RWMutex
	maps    map[string]map[string][]byte
	indexes map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		maps:    make(map[string]map[string][]byte),
		indexes: make(map[string][]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, m, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.maps[m][key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemoryStore) Set(_ context.Context, m, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maps[m] == nil {
		s.maps[m] = make(map[string][]byte)
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.maps[m][key] = v
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, m, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.maps[m], key)
	return nil
}

func (s *MemoryStore) AppendIndex(_ context.Context, m, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.indexes[m] = append(s.indexes[m], id)
	return nil
}

func (s *MemoryStore) ReadIndex(_ context.Context, m string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.indexes[m]))
	copy(out, s.indexes[m])
	return out, nil
}

func (s *MemoryStore) Footprint(_ context.Context) (Footprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fp Footprint
	for _, entries := range s.maps {
		for k, v := range entries {
			fp.Keys++
			fp.Bytes += int64(len(k) + len(v))
		}
	}
	for _, ids := range s.indexes {
		fp.Keys++
		for _, id := range ids {
			fp.Bytes += int64(len(id))
		}
	}
	return fp, nil
}

package memory

import (
	"context"
	"sync"

	"cuantrack/internal/storage"
)

// Store keeps snapshots in process memory. Contents are lost on exit.
type Store struct {
	mu   sync.Mutex
	data map[string][]byte
}

var (
	_ storage.SnapshotStore = (*Store)(nil)
	_ storage.BatchSaver    = (*Store)(nil)
)

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[key]
	if !ok {
		return nil, storage.ErrSnapshotNotFound
	}
	return append([]byte(nil), b...), nil
}

func (s *Store) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	return nil
}

// SaveAll stores every snapshot under one lock.
func (s *Store) SaveAll(_ context.Context, snapshots []storage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snapshots {
		s.data[snap.Key] = append([]byte(nil), snap.Data...)
	}
	return nil
}

func (s *Store) Close() error { return nil }

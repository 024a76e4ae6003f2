package store

import (
	"context"
	"sync"

	"github.com/amishk599/jobfeed/internal/model"
)

// MemoryStore holds the snapshot in memory for tests.
type MemoryStore struct {
	mu    sync.Mutex
	snap  *model.Snapshot
	saves int

	// SaveErr, when set, is returned by every Save without storing anything.
	SaveErr error
}

var _ model.StateStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snap: model.NewSnapshot()}
}

func (s *MemoryStore) Load(_ context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.snap = snap.Clone()
	s.saves++
	return nil
}

// Saves returns the number of successful saves.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

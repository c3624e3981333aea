package store

import (
	"context"
	"sync"

	"impact/internal/checkin/models"
)

// InMemoryStore keeps audit rows in an append-only slice.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*models.CheckIn
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, record *models.CheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *record
	s.records = append(s.records, &clone)
	return nil
}

// All returns a snapshot of every audit row in append order. The statistics
// store reads through this.
func (s *InMemoryStore) All() []*models.CheckIn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.CheckIn, 0, len(s.records))
	for _, r := range s.records {
		clone := *r
		out = append(out, &clone)
	}
	return out
}

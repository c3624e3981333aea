package lockout

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count        int
	firstFailure time.Time
	lockedUntil  *time.Time
}

// InMemoryStore keeps lockout state in a map. Suitable for tests and
// single-instance deployments without Redis.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*entry)}
}

func (s *InMemoryStore) LockedUntil(_ context.Context, key string, now time.Time) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.lockedUntil == nil {
		return nil, nil
	}
	if !e.lockedUntil.After(now) {
		delete(s.entries, key)
		return nil, nil
	}
	until := *e.lockedUntil
	return &until, nil
}

func (s *InMemoryStore) AddFailure(_ context.Context, key string, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || now.Sub(e.firstFailure) > window {
		e = &entry{firstFailure: now}
		s.entries[key] = e
	}
	e.count++
	return e.count, nil
}

func (s *InMemoryStore) Lock(_ context.Context, key string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &entry{lockedUntil: &until}
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

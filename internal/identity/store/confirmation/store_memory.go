package confirmation

import (
	"context"
	"sync"
	"time"

	"impact/pkg/platform/sentinel"
)

type memoryEntry struct {
	cardID    string
	expiresAt time.Time
}

// InMemoryStore keeps confirmation tokens in a map. Favors clarity over
// performance; expired entries are dropped lazily on Consume.
type InMemoryStore struct {
	mu     sync.Mutex
	tokens map[string]memoryEntry
	clock  func() time.Time
}

type InMemoryOption func(*InMemoryStore)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) InMemoryOption {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemoryStore(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		tokens: make(map[string]memoryEntry),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Put(_ context.Context, token, cardID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memoryEntry{cardID: cardID, expiresAt: s.clock().Add(ttl)}
	return nil
}

func (s *InMemoryStore) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	delete(s.tokens, token)
	if s.clock().After(entry.expiresAt) {
		return "", sentinel.ErrExpired
	}
	return entry.cardID, nil
}

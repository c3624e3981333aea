package member

import (
	"context"
	"strings"
	"sync"
	"time"

	"impact/internal/identity/models"
	"impact/pkg/platform/sentinel"
)

// InMemoryStore keeps members in maps keyed by card id. It intentionally
// favors clarity over performance and is the backend for unit tests and
// single-node development.
type InMemoryStore struct {
	mu      sync.RWMutex
	byCard  map[string]*models.Member
	byEmail map[string]string // lowercased email -> card id
	byUser  map[string]string // username -> card id
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byCard:  make(map[string]*models.Member),
		byEmail: make(map[string]string),
		byUser:  make(map[string]string),
	}
}

func (s *InMemoryStore) Create(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	emailKey := strings.ToLower(m.Email)
	if _, ok := s.byCard[m.CardID]; ok {
		return ErrCardIDTaken
	}
	if _, ok := s.byEmail[emailKey]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byUser[m.Username]; ok {
		return sentinel.ErrConflict
	}
	clone := *m
	s.byCard[m.CardID] = &clone
	s.byEmail[emailKey] = m.CardID
	s.byUser[m.Username] = m.CardID
	return nil
}

func (s *InMemoryStore) FindByCardID(_ context.Context, cardID string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(cardID)
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cardID, ok := s.byUser[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.findLocked(cardID)
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cardID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.findLocked(cardID)
}

func (s *InMemoryStore) CardIDExists(_ context.Context, cardID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byCard[cardID]
	return ok, nil
}

func (s *InMemoryStore) Update(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byCard[m.CardID]
	if !ok {
		return sentinel.ErrNotFound
	}
	emailKey := strings.ToLower(m.Email)
	if owner, taken := s.byEmail[emailKey]; taken && owner != m.CardID {
		return sentinel.ErrConflict
	}
	if owner, taken := s.byUser[m.Username]; taken && owner != m.CardID {
		return sentinel.ErrConflict
	}
	delete(s.byEmail, strings.ToLower(current.Email))
	delete(s.byUser, current.Username)
	clone := *m
	s.byCard[m.CardID] = &clone
	s.byEmail[emailKey] = m.CardID
	s.byUser[m.Username] = m.CardID
	return nil
}

func (s *InMemoryStore) Activate(_ context.Context, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byCard[cardID]
	if !ok {
		return sentinel.ErrNotFound
	}
	m.Activated = true
	m.ConfirmExpiresAt = nil
	return nil
}

func (s *InMemoryStore) RecordLogin(_ context.Context, cardID, deviceLabel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byCard[cardID]
	if !ok {
		return sentinel.ErrNotFound
	}
	m.LastLoginDevice = &deviceLabel
	return nil
}

func (s *InMemoryStore) HasRole(_ context.Context, role models.Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.byCard {
		if m.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) DeleteUnconfirmedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for cardID, m := range s.byCard {
		if m.Activated || m.ConfirmExpiresAt == nil || !m.ConfirmExpiresAt.Before(cutoff) {
			continue
		}
		delete(s.byCard, cardID)
		delete(s.byEmail, strings.ToLower(m.Email))
		delete(s.byUser, m.Username)
		removed++
	}
	return removed, nil
}

// ApplyCheckin mutates the stored member row under the store lock. It is the
// hook used by the in-memory ledger executor in the passes store package.
func (s *InMemoryStore) ApplyCheckin(cardID string, success bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byCard[cardID]
	if !ok {
		return sentinel.ErrNotFound
	}
	m.RecordCheckin(success, at)
	return nil
}

func (s *InMemoryStore) findLocked(cardID string) (*models.Member, error) {
	m, ok := s.byCard[cardID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

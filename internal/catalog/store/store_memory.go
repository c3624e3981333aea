package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"impact/internal/catalog/models"
	"impact/pkg/platform/sentinel"
)

// InMemoryStore keeps the catalog in mutex-guarded maps.
type InMemoryStore struct {
	mu        sync.RWMutex
	providers map[uuid.UUID]*models.ExternalProvider
	passTypes map[uuid.UUID]*models.PassType
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		providers: make(map[uuid.UUID]*models.ExternalProvider),
		passTypes: make(map[uuid.UUID]*models.PassType),
	}
}

func (s *InMemoryStore) CreateProvider(_ context.Context, p *models.ExternalProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.providerNameTakenLocked(p.Name, p.ID) {
		return sentinel.ErrConflict
	}
	clone := *p
	s.providers[p.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindProviderByID(_ context.Context, id uuid.UUID) (*models.ExternalProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *InMemoryStore) ListProviders(_ context.Context, includeDeleted bool) ([]*models.ExternalProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ExternalProvider, 0, len(s.providers))
	for _, p := range s.providers {
		if p.IsDeleted && !includeDeleted {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) UpdateProvider(_ context.Context, p *models.ExternalProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if !p.IsDeleted && s.providerNameTakenLocked(p.Name, p.ID) {
		return sentinel.ErrConflict
	}
	clone := *p
	s.providers[p.ID] = &clone
	return nil
}

func (s *InMemoryStore) CreatePassType(_ context.Context, t *models.PassType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.passTypeNameTakenLocked(t.Name, t.ID) {
		return sentinel.ErrConflict
	}
	clone := *t
	s.passTypes[t.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindPassTypeByID(_ context.Context, id uuid.UUID) (*models.PassType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.passTypes[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *InMemoryStore) ListPassTypes(_ context.Context, includeDeleted bool) ([]*models.PassType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PassType, 0, len(s.passTypes))
	for _, t := range s.passTypes {
		if t.IsDeleted && !includeDeleted {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) UpdatePassType(_ context.Context, t *models.PassType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.passTypes[t.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if !t.IsDeleted && s.passTypeNameTakenLocked(t.Name, t.ID) {
		return sentinel.ErrConflict
	}
	clone := *t
	s.passTypes[t.ID] = &clone
	return nil
}

// Name uniqueness only applies among live rows, matching the partial unique
// index the SQL schema uses.
func (s *InMemoryStore) providerNameTakenLocked(name string, self uuid.UUID) bool {
	for _, p := range s.providers {
		if p.ID != self && !p.IsDeleted && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) passTypeNameTakenLocked(name string, self uuid.UUID) bool {
	for _, t := range s.passTypes {
		if t.ID != self && !t.IsDeleted && strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

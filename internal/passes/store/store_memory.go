package store

import (
	"context"
	"sync"
	"time"

	identitymodels "impact/internal/identity/models"
	memberstore "impact/internal/identity/store/member"
	passmodels "impact/internal/passes/models"
	"impact/pkg/platform/sentinel"
)

// InMemoryStore keeps passes in a slice guarded by one mutex. The mutex
// doubles as the per-member serialization for Purchase and ExecuteCheckin,
// which is coarse but correct for tests and single-node development.
type InMemoryStore struct {
	mu      sync.Mutex
	passes  []*passmodels.MemberPass
	members *memberstore.InMemoryStore
}

func NewInMemoryStore(members *memberstore.InMemoryStore) *InMemoryStore {
	return &InMemoryStore{members: members}
}

func (s *InMemoryStore) Purchase(ctx context.Context, pass *passmodels.MemberPass) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.members.CardIDExists(ctx, pass.MemberCardID)
	if err != nil {
		return err
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	if s.findActiveLocked(pass.MemberCardID, pass.PurchaseDate) != nil {
		return sentinel.ErrConflict
	}
	s.passes = append(s.passes, pass.Clone())
	return nil
}

func (s *InMemoryStore) FindActiveByMember(_ context.Context, memberCardID string, now time.Time) (*passmodels.MemberPass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findActiveLocked(memberCardID, now)
	if p == nil {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemoryStore) ExecuteCheckin(
	ctx context.Context,
	memberCardID string,
	now time.Time,
	decide func(member *identitymodels.Member, active *passmodels.MemberPass) (Mutation, error),
	beforeCommit func(ctx context.Context) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, err := s.members.FindByCardID(ctx, memberCardID)
	if err != nil {
		return err
	}

	var active *passmodels.MemberPass
	if p := s.findActiveLocked(memberCardID, now); p != nil {
		active = p.Clone()
	}

	mutation, err := decide(member, active)
	if err != nil {
		return err
	}
	if beforeCommit != nil {
		if err := beforeCommit(ctx); err != nil {
			return err
		}
	}

	if mutation.ConsumePass != nil {
		for _, p := range s.passes {
			if p.ID == *mutation.ConsumePass {
				p.ConsumeEntry()
				break
			}
		}
	}
	return s.members.ApplyCheckin(memberCardID, mutation.Success, now)
}

// findActiveLocked returns the stored (not cloned) active pass, or nil.
func (s *InMemoryStore) findActiveLocked(memberCardID string, now time.Time) *passmodels.MemberPass {
	for _, p := range s.passes {
		if p.MemberCardID == memberCardID && p.ActiveAt(now) {
			return p
		}
	}
	return nil
}

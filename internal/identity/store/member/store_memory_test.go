package member

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"impact/internal/identity/models"
	"impact/pkg/platform/sentinel"
)

type MemberStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestMemberStoreSuite(t *testing.T) {
	suite.Run(t, new(MemberStoreSuite))
}

func (s *MemberStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)
}

func (s *MemberStoreSuite) newMember(cardID, email, username string) *models.Member {
	m, err := models.NewMember(cardID, "Anna", "Keller", email, username, "hash", models.RoleMember, s.now)
	s.Require().NoError(err)
	return m
}

func (s *MemberStoreSuite) TestCreateAndLookups() {
	m := s.newMember("card-1", "anna@example.com", "anna")
	s.Require().NoError(s.store.Create(s.ctx, m))

	s.Run("finds by card id", func() {
		found, err := s.store.FindByCardID(s.ctx, "card-1")
		s.Require().NoError(err)
		s.Equal("anna@example.com", found.Email)
	})

	s.Run("finds by username", func() {
		found, err := s.store.FindByUsername(s.ctx, "anna")
		s.Require().NoError(err)
		s.Equal("card-1", found.CardID)
	})

	s.Run("email lookup ignores case", func() {
		found, err := s.store.FindByEmail(s.ctx, "ANNA@Example.COM")
		s.Require().NoError(err)
		s.Equal("card-1", found.CardID)
	})

	s.Run("unknown card id returns ErrNotFound", func() {
		_, err := s.store.FindByCardID(s.ctx, "ghost")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("CardIDExists", func() {
		exists, err := s.store.CardIDExists(s.ctx, "card-1")
		s.Require().NoError(err)
		s.True(exists)
	})
}

func (s *MemberStoreSuite) TestUniqueness() {
	s.Require().NoError(s.store.Create(s.ctx, s.newMember("card-1", "anna@example.com", "anna")))

	s.Run("duplicate card id is retryable", func() {
		err := s.store.Create(s.ctx, s.newMember("card-1", "other@example.com", "other"))
		s.Require().ErrorIs(err, ErrCardIDTaken)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("duplicate email ignoring case", func() {
		err := s.store.Create(s.ctx, s.newMember("card-2", "Anna@Example.com", "other"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
		s.Require().NotErrorIs(err, ErrCardIDTaken)
	})

	s.Run("duplicate username", func() {
		err := s.store.Create(s.ctx, s.newMember("card-2", "other@example.com", "anna"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("update cannot steal another member's email", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newMember("card-2", "boris@example.com", "boris")))
		m, err := s.store.FindByCardID(s.ctx, "card-2")
		s.Require().NoError(err)
		m.Email = "anna@example.com"
		s.Require().ErrorIs(s.store.Update(s.ctx, m), sentinel.ErrConflict)
	})

	s.Run("update keeping own email succeeds and reindexes", func() {
		m, err := s.store.FindByCardID(s.ctx, "card-2")
		s.Require().NoError(err)
		m.Email = "boris.new@example.com"
		s.Require().NoError(s.store.Update(s.ctx, m))

		_, err = s.store.FindByEmail(s.ctx, "boris@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		found, err := s.store.FindByEmail(s.ctx, "boris.new@example.com")
		s.Require().NoError(err)
		s.Equal("card-2", found.CardID)
	})
}

func (s *MemberStoreSuite) TestActivation() {
	m := s.newMember("card-3", "clara@example.com", "clara")
	expires := s.now.Add(6 * time.Hour)
	m.ConfirmExpiresAt = &expires
	s.Require().NoError(s.store.Create(s.ctx, m))

	s.Require().NoError(s.store.Activate(s.ctx, "card-3"))

	found, err := s.store.FindByCardID(s.ctx, "card-3")
	s.Require().NoError(err)
	s.True(found.Activated)
	s.Nil(found.ConfirmExpiresAt)

	s.Require().ErrorIs(s.store.Activate(s.ctx, "ghost"), sentinel.ErrNotFound)
}

func (s *MemberStoreSuite) TestDeleteUnconfirmedBefore() {
	cutoff := s.now

	stale := s.newMember("card-4", "stale@example.com", "stale")
	staleExp := cutoff.Add(-time.Minute)
	stale.ConfirmExpiresAt = &staleExp

	fresh := s.newMember("card-5", "fresh@example.com", "fresh")
	freshExp := cutoff.Add(time.Hour)
	fresh.ConfirmExpiresAt = &freshExp

	confirmed := s.newMember("card-6", "done@example.com", "done")
	confirmed.Activated = true

	for _, m := range []*models.Member{stale, fresh, confirmed} {
		s.Require().NoError(s.store.Create(s.ctx, m))
	}

	removed, err := s.store.DeleteUnconfirmedBefore(s.ctx, cutoff)
	s.Require().NoError(err)
	s.Equal(int64(1), removed)

	_, err = s.store.FindByCardID(s.ctx, "card-4")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByEmail(s.ctx, "stale@example.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound, "indexes are cleaned up with the row")

	_, err = s.store.FindByCardID(s.ctx, "card-5")
	s.Require().NoError(err)
	_, err = s.store.FindByCardID(s.ctx, "card-6")
	s.Require().NoError(err)
}

func (s *MemberStoreSuite) TestCheckinBookkeeping() {
	s.Require().NoError(s.store.Create(s.ctx, s.newMember("card-7", "dora@example.com", "dora")))

	s.Require().NoError(s.store.ApplyCheckin("card-7", true, s.now))

	found, err := s.store.FindByCardID(s.ctx, "card-7")
	s.Require().NoError(err)
	s.Require().NotNil(found.LastCheckinSuccess)
	s.True(*found.LastCheckinSuccess)
	s.True(found.LastCheckinAt.Equal(s.now))

	s.Require().ErrorIs(s.store.ApplyCheckin("ghost", true, s.now), sentinel.ErrNotFound)
}

func (s *MemberStoreSuite) TestHasRole() {
	root := s.newMember("card-8", "root@example.com", "root")
	root.Role = models.RoleRoot
	s.Require().NoError(s.store.Create(s.ctx, root))

	exists, err := s.store.HasRole(s.ctx, models.RoleRoot)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.HasRole(s.ctx, models.RoleAdmin)
	s.Require().NoError(err)
	s.False(exists)
}

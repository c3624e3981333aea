package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"impact/internal/catalog/models"
	"impact/pkg/platform/sentinel"
)

type CatalogStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestCatalogStoreSuite(t *testing.T) {
	suite.Run(t, new(CatalogStoreSuite))
}

func (s *CatalogStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func (s *CatalogStoreSuite) newProvider(name string) *models.ExternalProvider {
	p, err := models.NewExternalProvider(name, nil, false, nil)
	s.Require().NoError(err)
	return p
}

func (s *CatalogStoreSuite) TestProviderNameUniqueness() {
	s.Run("rejects duplicate live name", func() {
		s.Require().NoError(s.store.CreateProvider(s.ctx, s.newProvider("CorpFit")))
		err := s.store.CreateProvider(s.ctx, s.newProvider("CorpFit"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("uniqueness is case-insensitive", func() {
		err := s.store.CreateProvider(s.ctx, s.newProvider("corpfit"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("soft-deleted rows free the name", func() {
		victim := s.newProvider("Seasonal")
		s.Require().NoError(s.store.CreateProvider(s.ctx, victim))
		s.Require().NoError(victim.SoftDelete(s.now))
		s.Require().NoError(s.store.UpdateProvider(s.ctx, victim))

		s.Require().NoError(s.store.CreateProvider(s.ctx, s.newProvider("Seasonal")))
	})

	s.Run("update rejects taking another live name", func() {
		other := s.newProvider("Other")
		s.Require().NoError(s.store.CreateProvider(s.ctx, other))
		other.Name = "CorpFit"
		s.Require().ErrorIs(s.store.UpdateProvider(s.ctx, other), sentinel.ErrConflict)
	})

	s.Run("update keeping the own name succeeds", func() {
		found, err := s.store.FindProviderByID(s.ctx, s.mustProviderID("CorpFit"))
		s.Require().NoError(err)
		desc := "corporate benefits"
		found.Description = &desc
		s.Require().NoError(s.store.UpdateProvider(s.ctx, found))
	})
}

func (s *CatalogStoreSuite) mustProviderID(name string) uuid.UUID {
	providers, err := s.store.ListProviders(s.ctx, true)
	s.Require().NoError(err)
	for _, p := range providers {
		if p.Name == name && !p.IsDeleted {
			return p.ID
		}
	}
	s.FailNow("provider not found: " + name)
	return uuid.Nil
}

func (s *CatalogStoreSuite) TestProviderLookups() {
	s.Run("unknown id returns ErrNotFound", func() {
		_, err := s.store.FindProviderByID(s.ctx, uuid.New())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("listing hides deleted rows by default", func() {
		live := s.newProvider("Live")
		dead := s.newProvider("Dead")
		s.Require().NoError(s.store.CreateProvider(s.ctx, live))
		s.Require().NoError(s.store.CreateProvider(s.ctx, dead))
		s.Require().NoError(dead.SoftDelete(s.now))
		s.Require().NoError(s.store.UpdateProvider(s.ctx, dead))

		visible, err := s.store.ListProviders(s.ctx, false)
		s.Require().NoError(err)
		s.Len(visible, 1)
		s.Equal("Live", visible[0].Name)

		all, err := s.store.ListProviders(s.ctx, true)
		s.Require().NoError(err)
		s.Len(all, 2)
	})
}

func (s *CatalogStoreSuite) TestPassTypes() {
	newType := func(name string) *models.PassType {
		t, err := models.NewPassType(name, nil, 4500, nil, nil)
		s.Require().NoError(err)
		return t
	}

	s.Run("rejects duplicate live name", func() {
		s.Require().NoError(s.store.CreatePassType(s.ctx, newType("Monthly")))
		s.Require().ErrorIs(s.store.CreatePassType(s.ctx, newType("monthly")), sentinel.ErrConflict)
	})

	s.Run("deleted type stays readable by id", func() {
		t := newType("Archive")
		s.Require().NoError(s.store.CreatePassType(s.ctx, t))
		s.Require().NoError(t.SoftDelete(s.now))
		s.Require().NoError(s.store.UpdatePassType(s.ctx, t))

		found, err := s.store.FindPassTypeByID(s.ctx, t.ID)
		s.Require().NoError(err)
		s.True(found.IsDeleted)
	})

	s.Run("update of unknown id returns ErrNotFound", func() {
		s.Require().ErrorIs(s.store.UpdatePassType(s.ctx, newType("Nope")), sentinel.ErrNotFound)
	})
}

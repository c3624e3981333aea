//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	checkinmodels "impact/internal/checkin/models"
	checkinstore "impact/internal/checkin/store"
	identitymodels "impact/internal/identity/models"
	"impact/internal/stats/store"
	"impact/pkg/testutil/containers"
)

type StatsPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	audit    *checkinstore.PostgresStore
	ctx      context.Context
	now      time.Time
}

func TestStatsPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(StatsPostgresSuite))
}

func (s *StatsPostgresSuite) SetupSuite() {
	s.postgres = containers.NewAuditDB(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.audit = checkinstore.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)
}

func (s *StatsPostgresSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx, "checkins"))
}

func (s *StatsPostgresSuite) member(cardID, name string) *identitymodels.Member {
	s.T().Helper()
	m, err := identitymodels.NewMember(cardID, name, "Surname", name+"@example.com", name, "hash", identitymodels.RoleMember, s.now)
	s.Require().NoError(err)
	return m
}

// appendCheckin writes one audit row at the given offset from the suite base
// time. A nil validator produces a self-service row.
func (s *StatsPostgresSuite) appendCheckin(scanned *identitymodels.Member, validator *identitymodels.Member, offset time.Duration, success bool) {
	s.T().Helper()
	record := checkinmodels.NewCheckIn(scanned, s.now.Add(offset))
	record.SetValidator(validator)
	record.IsSuccessful = success
	if !success {
		record.Reject(checkinmodels.ReasonNoAuthorization)
	}
	s.Require().NoError(s.audit.Append(s.ctx, record))
}

func (s *StatsPostgresSuite) TestCountByValidator() {
	anna := s.member("card-1", "anna")
	boris := s.member("card-2", "boris")
	instructor := s.member("instr-1", "clara")

	s.appendCheckin(anna, instructor, 0, true)
	s.appendCheckin(boris, instructor, time.Minute, true)
	s.appendCheckin(anna, nil, 2*time.Minute, true)
	// Failures never count.
	s.appendCheckin(boris, instructor, 3*time.Minute, false)
	// Out of window.
	s.appendCheckin(anna, instructor, 48*time.Hour, true)

	counts, err := s.store.CountByValidator(s.ctx, s.now.Add(-time.Hour), s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().Len(counts, 2)

	s.Run("self-service rows group under nil first", func() {
		s.Nil(counts[0].ValidatorCardID)
		s.Equal(1, counts[0].Count)
	})

	s.Run("validator rows carry the snapshot", func() {
		s.Require().NotNil(counts[1].ValidatorCardID)
		s.Equal("instr-1", *counts[1].ValidatorCardID)
		s.Require().NotNil(counts[1].ValidatorName)
		s.Equal("clara", *counts[1].ValidatorName)
		s.Equal(2, counts[1].Count)
	})
}

func (s *StatsPostgresSuite) TestDetailedByValidator() {
	anna := s.member("card-1", "anna")
	instructor := s.member("instr-1", "clara")

	for i := 0; i < 5; i++ {
		s.appendCheckin(anna, instructor, time.Duration(i)*time.Minute, i%2 == 0)
	}
	// Another validator's rows never bleed in.
	other := s.member("instr-2", "dana")
	s.appendCheckin(anna, other, time.Minute, true)

	from, to := s.now.Add(-time.Hour), s.now.Add(time.Hour)

	s.Run("ordered page with total", func() {
		items, total, err := s.store.DetailedByValidator(s.ctx, "instr-1", from, to, 0, 2)
		s.Require().NoError(err)
		s.Equal(5, total)
		s.Require().Len(items, 2)
		s.True(items[0].DateTime.Before(items[1].DateTime))
		s.Equal("anna", items[0].MemberName)
	})

	s.Run("offset past the end yields an empty page", func() {
		items, total, err := s.store.DetailedByValidator(s.ctx, "instr-1", from, to, 10, 2)
		s.Require().NoError(err)
		s.Equal(5, total)
		s.Empty(items)
	})

	s.Run("failed rows keep their reason", func() {
		items, _, err := s.store.DetailedByValidator(s.ctx, "instr-1", from, to, 1, 1)
		s.Require().NoError(err)
		s.Require().Len(items, 1)
		s.False(items[0].IsSuccessful)
		s.Require().NotNil(items[0].RejectedReason)
	})
}

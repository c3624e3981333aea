package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	checkinmodels "impact/internal/checkin/models"
	checkinstore "impact/internal/checkin/store"
	statsstore "impact/internal/stats/store"
	dErrors "impact/pkg/domain-errors"
)

type StatsServiceSuite struct {
	suite.Suite
	audit   *checkinstore.InMemoryStore
	service *Service
	ctx     context.Context
	base    time.Time
}

func TestStatsServiceSuite(t *testing.T) {
	suite.Run(t, new(StatsServiceSuite))
}

func (s *StatsServiceSuite) SetupTest() {
	s.audit = checkinstore.NewInMemoryStore()
	s.service = New(statsstore.NewInMemoryStore(s.audit))
	s.ctx = context.Background()
	s.base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func (s *StatsServiceSuite) appendRecord(validator *string, at time.Time, success bool) {
	record := &checkinmodels.CheckIn{
		ID:            uuid.New(),
		MemberCardID:  "dancer",
		MemberName:    "Anna",
		MemberSurname: "Keller",
		DateTime:      at,
		IsSuccessful:  success,
	}
	if validator != nil {
		name := "Ingrid"
		surname := "Weber"
		record.ValidatedByCardID = validator
		record.ValidatedByName = &name
		record.ValidatedBySurname = &surname
	}
	s.Require().NoError(s.audit.Append(s.ctx, record))
}

func (s *StatsServiceSuite) TestInstructorCheckins() {
	instructor := "instr-1"
	s.appendRecord(&instructor, s.base, true)
	s.appendRecord(&instructor, s.base.Add(time.Hour), true)
	s.appendRecord(&instructor, s.base.Add(2*time.Hour), false) // denied, excluded
	s.appendRecord(nil, s.base.Add(3*time.Hour), true)       // self-service
	s.appendRecord(&instructor, s.base.AddDate(0, 1, 0), true)  // outside window

	s.Run("counts successful check-ins per validator in the window", func() {
		counts, err := s.service.InstructorCheckins(s.ctx, s.base, s.base.Add(6*time.Hour))
		s.Require().NoError(err)
		s.Require().Len(counts, 2)

		// Self-service rows sort first under the nil card id.
		s.Nil(counts[0].ValidatorCardID)
		s.Equal(1, counts[0].Count)

		s.Require().NotNil(counts[1].ValidatorCardID)
		s.Equal("instr-1", *counts[1].ValidatorCardID)
		s.Equal(2, counts[1].Count)
	})

	s.Run("empty window yields an empty slice, not nil", func() {
		counts, err := s.service.InstructorCheckins(s.ctx, s.base.AddDate(1, 0, 0), s.base.AddDate(1, 0, 1))
		s.Require().NoError(err)
		s.NotNil(counts)
		s.Empty(counts)
	})

	s.Run("inverted window is rejected", func() {
		_, err := s.service.InstructorCheckins(s.ctx, s.base, s.base.Add(-time.Hour))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *StatsServiceSuite) TestInstructorCheckinsDetailed() {
	instructor := "instr-2"
	for i := 0; i < 25; i++ {
		s.appendRecord(&instructor, s.base.Add(time.Duration(i)*time.Minute), i%2 == 0)
	}
	from, to := s.base, s.base.Add(time.Hour)

	s.Run("first page", func() {
		page, err := s.service.InstructorCheckinsDetailed(s.ctx, instructor, from, to, 1, 10)
		s.Require().NoError(err)
		s.Equal(25, page.Total)
		s.Equal(1, page.Page)
		s.Equal(10, page.PageSize)
		s.Equal(15, page.Remaining)
		s.Require().Len(page.Items, 10)
		s.True(page.Items[0].DateTime.Equal(s.base))
	})

	s.Run("last partial page", func() {
		page, err := s.service.InstructorCheckinsDetailed(s.ctx, instructor, from, to, 3, 10)
		s.Require().NoError(err)
		s.Len(page.Items, 5)
		s.Equal(0, page.Remaining)
	})

	s.Run("page past the end is empty with zero remaining", func() {
		page, err := s.service.InstructorCheckinsDetailed(s.ctx, instructor, from, to, 9, 10)
		s.Require().NoError(err)
		s.Empty(page.Items)
		s.Equal(25, page.Total)
		s.Equal(0, page.Remaining)
	})

	s.Run("page and page size are clamped", func() {
		page, err := s.service.InstructorCheckinsDetailed(s.ctx, instructor, from, to, 0, 0)
		s.Require().NoError(err)
		s.Equal(1, page.Page)
		s.Equal(1, page.PageSize)
		s.Len(page.Items, 1)

		page, err = s.service.InstructorCheckinsDetailed(s.ctx, instructor, from, to, 1, 10000)
		s.Require().NoError(err)
		s.Equal(200, page.PageSize)
		s.Len(page.Items, 25)
	})

	s.Run("denied attempts are listed with their reason field", func() {
		page, err := s.service.InstructorCheckinsDetailed(s.ctx, instructor, from, to, 1, 200)
		s.Require().NoError(err)
		s.Len(page.Items, 25, "detailed listing includes denied attempts")
	})

	s.Run("unknown validator yields an empty page", func() {
		page, err := s.service.InstructorCheckinsDetailed(s.ctx, "nobody", from, to, 1, 10)
		s.Require().NoError(err)
		s.Equal(0, page.Total)
		s.Empty(page.Items)
	})
}

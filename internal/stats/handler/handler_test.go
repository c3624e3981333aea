package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	checkinmodels "impact/internal/checkin/models"
	checkinstore "impact/internal/checkin/store"
	"impact/internal/stats/service"
	statsstore "impact/internal/stats/store"
	"impact/pkg/testutil"
)

type StatsHandlerSuite struct {
	suite.Suite
	router chi.Router
	audit  *checkinstore.InMemoryStore
	base   time.Time
}

func TestStatsHandlerSuite(t *testing.T) {
	suite.Run(t, new(StatsHandlerSuite))
}

func (s *StatsHandlerSuite) SetupTest() {
	s.base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.audit = checkinstore.NewInMemoryStore()

	svc := service.New(statsstore.NewInMemoryStore(s.audit))
	s.router = chi.NewRouter()
	New(svc, slog.Default()).Register(s.router)
}

func (s *StatsHandlerSuite) appendRecord(validator *string, at time.Time, success bool) {
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
	s.Require().NoError(s.audit.Append(context.Background(), record))
}

func (s *StatsHandlerSuite) TestInstructorCheckins() {
	instructor := "instr-1"
	s.appendRecord(&instructor, s.base, true)
	s.appendRecord(&instructor, s.base.Add(time.Hour), true)
	s.appendRecord(&instructor, s.base.Add(2*time.Hour), false)

	s.Run("aggregates per validator", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
			http.MethodPost, "/statistics/instructors_checkins", map[string]any{
				"date_from": s.base.Format(time.RFC3339),
				"date_to":   s.base.Add(6 * time.Hour).Format(time.RFC3339),
			}))
		testutil.AssertStatusOK(s.T(), rr)

		counts := *testutil.UnmarshalResponse[[]map[string]any](s.T(), rr)
		s.Require().Len(counts, 1)
		s.Equal("instr-1", counts[0]["validated_by_card_id"])
		s.Equal(float64(2), counts[0]["count"])
	})

	s.Run("missing dates are rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
			http.MethodPost, "/statistics/instructors_checkins", map[string]any{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *StatsHandlerSuite) TestDetailed() {
	instructor := "instr-2"
	for i := 0; i < 3; i++ {
		s.appendRecord(&instructor, s.base.Add(time.Duration(i)*time.Minute), true)
	}

	s.Run("lists the validator's rows with pagination bookkeeping", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
			http.MethodPost, "/statistics/instructor_checkins/detailed", map[string]any{
				"validated_by_card_id": "instr-2",
				"date_from":            s.base.Format(time.RFC3339),
				"date_to":              s.base.Add(time.Hour).Format(time.RFC3339),
				"page":                 1,
				"page_size":            2,
			}))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "total", float64(3))
		testutil.AssertJSONContains(s.T(), rr, "remaining", float64(1))

		page := *testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Len(page["items"], 2)
	})

	s.Run("blank validator is rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(),
			http.MethodPost, "/statistics/instructor_checkins/detailed", map[string]any{
				"validated_by_card_id": "   ",
				"date_from":            s.base.Format(time.RFC3339),
				"date_to":              s.base.Add(time.Hour).Format(time.RFC3339),
			}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

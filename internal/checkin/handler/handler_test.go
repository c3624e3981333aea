package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	catalogmodels "impact/internal/catalog/models"
	catalogstore "impact/internal/catalog/store"
	"impact/internal/checkin/service"
	checkinstore "impact/internal/checkin/store"
	identitymodels "impact/internal/identity/models"
	memberstore "impact/internal/identity/store/member"
	passmodels "impact/internal/passes/models"
	passstore "impact/internal/passes/store"
	"impact/pkg/testutil"
)

type CheckinHandlerSuite struct {
	suite.Suite
	members *memberstore.InMemoryStore
	passes  *passstore.InMemoryStore
	router  chi.Router
	now     time.Time
}

func TestCheckinHandlerSuite(t *testing.T) {
	suite.Run(t, new(CheckinHandlerSuite))
}

func (s *CheckinHandlerSuite) SetupTest() {
	s.members = memberstore.NewInMemoryStore()
	s.passes = passstore.NewInMemoryStore(s.members)
	catalog := catalogstore.NewInMemoryStore()
	audit := checkinstore.NewInMemoryStore()
	svc := service.New(s.passes, audit, s.members, catalog)

	s.router = chi.NewRouter()
	New(svc, slog.Default()).Register(s.router)
	s.now = time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)
}

func (s *CheckinHandlerSuite) addMemberWithPass(cardID string) {
	m, err := identitymodels.NewMember(cardID, "Anna", "Keller",
		cardID+"@example.com", cardID, "hash", identitymodels.RoleMember, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.members.Create(context.Background(), m))

	maxEntries := 8
	validity := 30
	passType, err := catalogmodels.NewPassType("Monthly", nil, 4500, &validity, &maxEntries)
	s.Require().NoError(err)
	pass := passmodels.NewFromType(cardID, passType, s.now.AddDate(0, 0, -1))
	s.Require().NoError(s.passes.Purchase(context.Background(), pass))
}

func (s *CheckinHandlerSuite) post(body any, at time.Time) *http.Request {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/logging/checkin", body)
	return testutil.WithFrozenTime(req, at)
}

func (s *CheckinHandlerSuite) TestCheckIn() {
	s.addMemberWithPass("dancer-1")

	s.Run("granted scan returns the audit record", func() {
		rr := testutil.DoRequest(s.router, s.post(map[string]string{
			"scanned_card_id": "dancer-1",
		}, s.now))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "is_successful", true)
		testutil.AssertJSONContains(s.T(), rr, "member_card_id", "dancer-1")
	})

	s.Run("repeat scan is throttled with a Retry-After header", func() {
		rr := testutil.DoRequest(s.router, s.post(map[string]string{
			"scanned_card_id": "dancer-1",
		}, s.now.Add(40*time.Second)))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusTooManyRequests, "throttled")
		s.Equal("260", rr.Header().Get("Retry-After"))
		testutil.AssertJSONContains(s.T(), rr, "retry_after", float64(260))
	})

	s.Run("unknown card is a 400", func() {
		rr := testutil.DoRequest(s.router, s.post(map[string]string{
			"scanned_card_id": "ghost",
		}, s.now))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "not_found")
	})

	s.Run("missing scanned_card_id is rejected before the engine runs", func() {
		rr := testutil.DoRequest(s.router, s.post(map[string]string{
			"scanned_card_id": "   ",
		}, s.now))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("malformed provider id is rejected", func() {
		rr := testutil.DoRequest(s.router, s.post(map[string]string{
			"scanned_card_id":      "dancer-1",
			"external_provider_id": "not-a-uuid",
		}, s.now))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("denied scan is still a 200 with the rejection reason", func() {
		m, err := identitymodels.NewMember("dancer-2", "Boris", "Mahler",
			"boris@example.com", "boris", "hash", identitymodels.RoleMember, s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.members.Create(context.Background(), m))

		rr := testutil.DoRequest(s.router, s.post(map[string]string{
			"scanned_card_id": "dancer-2",
		}, s.now))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "is_successful", false)
		testutil.AssertJSONContains(s.T(), rr, "rejected_reason", "No valid MemberPass and ExternalProvider")
	})
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	catalogmodels "impact/internal/catalog/models"
	catalogstore "impact/internal/catalog/store"
	"impact/internal/checkin/models"
	checkinstore "impact/internal/checkin/store"
	identitymodels "impact/internal/identity/models"
	memberstore "impact/internal/identity/store/member"
	passmodels "impact/internal/passes/models"
	passstore "impact/internal/passes/store"
	dErrors "impact/pkg/domain-errors"
	"impact/pkg/platform/events"
	"impact/pkg/requestcontext"
)

type capturedEvents struct {
	mu     sync.Mutex
	events []events.DoorEvent
}

func (c *capturedEvents) Emit(event events.DoorEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *capturedEvents) all() []events.DoorEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.DoorEvent(nil), c.events...)
}

type CheckinEngineSuite struct {
	suite.Suite
	members  *memberstore.InMemoryStore
	passes   *passstore.InMemoryStore
	catalog  *catalogstore.InMemoryStore
	audit    *checkinstore.InMemoryStore
	emitted  *capturedEvents
	service  *Service
	now      time.Time
}

func TestCheckinEngineSuite(t *testing.T) {
	suite.Run(t, new(CheckinEngineSuite))
}

func (s *CheckinEngineSuite) SetupTest() {
	s.members = memberstore.NewInMemoryStore()
	s.passes = passstore.NewInMemoryStore(s.members)
	s.catalog = catalogstore.NewInMemoryStore()
	s.audit = checkinstore.NewInMemoryStore()
	s.emitted = &capturedEvents{}
	s.service = New(s.passes, s.audit, s.members, s.catalog,
		WithEventPublisher(s.emitted),
	)
	s.now = time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)
}

func (s *CheckinEngineSuite) ctxAt(at time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), at)
}

func (s *CheckinEngineSuite) addMember(cardID, name string) *identitymodels.Member {
	m, err := identitymodels.NewMember(cardID, name, "Keller",
		cardID+"@example.com", cardID, "hash", identitymodels.RoleMember, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.members.Create(context.Background(), m))
	return m
}

func (s *CheckinEngineSuite) addPass(cardID string, entries int) *passmodels.MemberPass {
	maxEntries := entries
	validity := 30
	passType, err := catalogmodels.NewPassType("Monthly", nil, 4500, &validity, &maxEntries)
	s.Require().NoError(err)
	pass := passmodels.NewFromType(cardID, passType, s.now.AddDate(0, 0, -1))
	s.Require().NoError(s.passes.Purchase(context.Background(), pass))
	return pass
}

func (s *CheckinEngineSuite) addProvider(name string) *catalogmodels.ExternalProvider {
	p, err := catalogmodels.NewExternalProvider(name, nil, false, nil)
	s.Require().NoError(err)
	s.Require().NoError(s.catalog.CreateProvider(context.Background(), p))
	return p
}

func (s *CheckinEngineSuite) TestGrantWithActivePass() {
	s.addMember("dancer-1", "Anna")
	pass := s.addPass("dancer-1", 8)

	record, err := s.service.Perform(s.ctxAt(s.now), Request{ScannedCardID: "dancer-1"})
	s.Require().NoError(err)

	s.Run("audit row snapshots member and pass", func() {
		s.True(record.IsSuccessful)
		s.Equal("dancer-1", record.MemberCardID)
		s.Equal("Anna", record.MemberName)
		s.Require().NotNil(record.MemberPassID)
		s.Equal(pass.ID, *record.MemberPassID)
		s.Require().NotNil(record.PassName)
		s.Equal("Monthly", *record.PassName)
		s.Nil(record.RejectedReason)
		s.Nil(record.ValidatedByCardID)
	})

	s.Run("one entry is consumed", func() {
		active, err := s.passes.FindActiveByMember(context.Background(), "dancer-1", s.now)
		s.Require().NoError(err)
		s.Equal(7, *active.EntriesLeft)
	})

	s.Run("member remembers the successful attempt", func() {
		m, err := s.members.FindByCardID(context.Background(), "dancer-1")
		s.Require().NoError(err)
		s.Require().NotNil(m.LastCheckinSuccess)
		s.True(*m.LastCheckinSuccess)
		s.True(m.LastCheckinAt.Equal(s.now))
	})

	s.Run("exactly one audit row exists", func() {
		s.Len(s.audit.All(), 1)
	})

	s.Run("a door event is emitted", func() {
		emitted := s.emitted.all()
		s.Require().Len(emitted, 1)
		s.Equal(record.ID, emitted[0].CheckInID)
		s.True(emitted[0].Granted)
	})
}

func (s *CheckinEngineSuite) TestActivePassWinsOverProvider() {
	s.addMember("dancer-2", "Boris")
	pass := s.addPass("dancer-2", 8)
	provider := s.addProvider("CorpFit")

	record, err := s.service.Perform(s.ctxAt(s.now), Request{
		ScannedCardID:      "dancer-2",
		ExternalProviderID: &provider.ID,
	})
	s.Require().NoError(err)

	s.True(record.IsSuccessful)
	s.Require().NotNil(record.MemberPassID)
	s.Equal(pass.ID, *record.MemberPassID)
	s.Nil(record.ExternalProviderID, "the pass decides, not the supplied provider")

	active, err := s.passes.FindActiveByMember(context.Background(), "dancer-2", s.now)
	s.Require().NoError(err)
	s.Equal(7, *active.EntriesLeft)
}

func (s *CheckinEngineSuite) TestGrantViaProvider() {
	s.addMember("dancer-3", "Clara")
	provider := s.addProvider("BenefitPass")

	record, err := s.service.Perform(s.ctxAt(s.now), Request{
		ScannedCardID:      "dancer-3",
		ExternalProviderID: &provider.ID,
	})
	s.Require().NoError(err)

	s.True(record.IsSuccessful)
	s.Nil(record.MemberPassID)
	s.Require().NotNil(record.ExternalProviderID)
	s.Equal(provider.ID, *record.ExternalProviderID)
	s.Equal("BenefitPass", *record.ExternalProviderName)
}

func (s *CheckinEngineSuite) TestDenyWithoutAuthorization() {
	s.addMember("dancer-4", "Dora")

	record, err := s.service.Perform(s.ctxAt(s.now), Request{ScannedCardID: "dancer-4"})
	s.Require().NoError(err)

	s.Run("audit row records the exact rejection reason", func() {
		s.False(record.IsSuccessful)
		s.Require().NotNil(record.RejectedReason)
		s.Equal("No valid MemberPass and ExternalProvider", *record.RejectedReason)
		s.Len(s.audit.All(), 1)
	})

	s.Run("failed attempt still updates the member", func() {
		m, err := s.members.FindByCardID(context.Background(), "dancer-4")
		s.Require().NoError(err)
		s.Require().NotNil(m.LastCheckinSuccess)
		s.False(*m.LastCheckinSuccess)
	})

	s.Run("denied event carries the reason", func() {
		emitted := s.emitted.all()
		s.Require().Len(emitted, 1)
		s.False(emitted[0].Granted)
		s.Require().NotNil(emitted[0].Reason)
		s.Equal(models.ReasonNoAuthorization, *emitted[0].Reason)
	})
}

func (s *CheckinEngineSuite) TestUnknownScannedCard() {
	_, err := s.service.Perform(s.ctxAt(s.now), Request{ScannedCardID: "ghost"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Empty(s.audit.All(), "an unknown card leaves no audit trail")
	s.Empty(s.emitted.all())
}

func (s *CheckinEngineSuite) TestCooldown() {
	s.addMember("dancer-5", "Elsa")
	s.addPass("dancer-5", 8)

	_, err := s.service.Perform(s.ctxAt(s.now), Request{ScannedCardID: "dancer-5"})
	s.Require().NoError(err)

	s.Run("second attempt inside the success window is throttled", func() {
		_, err := s.service.Perform(s.ctxAt(s.now.Add(40*time.Second)), Request{ScannedCardID: "dancer-5"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeThrottled))
		s.Equal(260, dErrors.GetRetryAfter(err))
	})

	s.Run("throttled attempt writes no audit row and consumes nothing", func() {
		s.Len(s.audit.All(), 1)
		active, err := s.passes.FindActiveByMember(context.Background(), "dancer-5", s.now)
		s.Require().NoError(err)
		s.Equal(7, *active.EntriesLeft)
	})

	s.Run("remaining is never reported below one second", func() {
		_, err := s.service.Perform(s.ctxAt(s.now.Add(300*time.Second-time.Millisecond)), Request{ScannedCardID: "dancer-5"})
		s.Require().Error(err)
		s.Equal(1, dErrors.GetRetryAfter(err))
	})

	s.Run("attempt after the success window is allowed", func() {
		record, err := s.service.Perform(s.ctxAt(s.now.Add(301*time.Second)), Request{ScannedCardID: "dancer-5"})
		s.Require().NoError(err)
		s.True(record.IsSuccessful)
	})
}

func (s *CheckinEngineSuite) TestCooldownAfterFailure() {
	s.addMember("dancer-6", "Frida")

	_, err := s.service.Perform(s.ctxAt(s.now), Request{ScannedCardID: "dancer-6"})
	s.Require().NoError(err) // denied, but recorded

	s.Run("failure earns only the short window", func() {
		_, err := s.service.Perform(s.ctxAt(s.now.Add(10*time.Second)), Request{ScannedCardID: "dancer-6"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeThrottled))
		s.Equal(20, dErrors.GetRetryAfter(err))
	})

	s.Run("retry after the short window is processed", func() {
		record, err := s.service.Perform(s.ctxAt(s.now.Add(31*time.Second)), Request{ScannedCardID: "dancer-6"})
		s.Require().NoError(err)
		s.False(record.IsSuccessful)
		s.Len(s.audit.All(), 2)
	})
}

func (s *CheckinEngineSuite) TestValidator() {
	s.addMember("dancer-7", "Greta")
	s.addMember("teach-1", "Ingrid")
	s.addPass("dancer-7", 8)

	s.Run("known validator is snapshotted onto the row", func() {
		validator := "teach-1"
		hall := "Hall A"
		record, err := s.service.Perform(s.ctxAt(s.now), Request{
			ScannedCardID:   "dancer-7",
			ValidatorCardID: &validator,
			Hall:            &hall,
		})
		s.Require().NoError(err)
		s.Require().NotNil(record.ValidatedByCardID)
		s.Equal("teach-1", *record.ValidatedByCardID)
		s.Equal("Ingrid", *record.ValidatedByName)
		s.Equal("Hall A", *record.Hall)
	})

	s.Run("unknown validator degrades to self-check-in", func() {
		s.addMember("dancer-8", "Hanna")
		s.addPass("dancer-8", 8)
		validator := "nobody"
		record, err := s.service.Perform(s.ctxAt(s.now), Request{
			ScannedCardID:   "dancer-8",
			ValidatorCardID: &validator,
		})
		s.Require().NoError(err)
		s.Nil(record.ValidatedByCardID)
	})
}

func (s *CheckinEngineSuite) TestProviderResolution() {
	s.addMember("dancer-9", "Ida")

	s.Run("unknown provider id is a hard failure", func() {
		unknown := uuid.New()
		_, err := s.service.Perform(s.ctxAt(s.now), Request{
			ScannedCardID:      "dancer-9",
			ExternalProviderID: &unknown,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Empty(s.audit.All())
	})

	s.Run("soft-deleted provider is treated as unknown", func() {
		provider := s.addProvider("Gone")
		s.Require().NoError(provider.SoftDelete(s.now))
		s.Require().NoError(s.catalog.UpdateProvider(context.Background(), provider))

		_, err := s.service.Perform(s.ctxAt(s.now), Request{
			ScannedCardID:      "dancer-9",
			ExternalProviderID: &provider.ID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CheckinEngineSuite) TestEventPassNeverOpensTheDoor() {
	s.addMember("dancer-10", "Jana")

	passType, err := catalogmodels.NewPassType("Festival", nil, 2000, nil, nil)
	s.Require().NoError(err)
	s.Require().NoError(passType.MarkEventPass("FEST26"))
	pass := passmodels.NewFromType("dancer-10", passType, s.now)
	s.Require().NoError(s.passes.Purchase(context.Background(), pass))

	record, err := s.service.Perform(s.ctxAt(s.now), Request{ScannedCardID: "dancer-10"})
	s.Require().NoError(err)
	s.False(record.IsSuccessful)
	s.Equal(models.ReasonNoAuthorization, *record.RejectedReason)
}

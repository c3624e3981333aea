// Package service implements the door decision engine: cooldown enforcement,
// authorization resolution, pass consumption, and the audit append. The
// mutable-state part runs inside the pass ledger's per-member executor so
// concurrent scans of one card serialize.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	catalogmodels "impact/internal/catalog/models"
	"impact/internal/checkin/metrics"
	"impact/internal/checkin/models"
	identitymodels "impact/internal/identity/models"
	passmodels "impact/internal/passes/models"
	passstore "impact/internal/passes/store"
	dErrors "impact/pkg/domain-errors"
	"impact/pkg/platform/events"
	"impact/pkg/platform/sentinel"
	"impact/pkg/requestcontext"
)

type Ledger interface {
	ExecuteCheckin(
		ctx context.Context,
		memberCardID string,
		now time.Time,
		decide func(member *identitymodels.Member, active *passmodels.MemberPass) (passstore.Mutation, error),
		beforeCommit func(ctx context.Context) error,
	) error
}

type AuditStore interface {
	Append(ctx context.Context, record *models.CheckIn) error
}

type MemberFinder interface {
	FindByCardID(ctx context.Context, cardID string) (*identitymodels.Member, error)
}

type ProviderFinder interface {
	FindProviderByID(ctx context.Context, id uuid.UUID) (*catalogmodels.ExternalProvider, error)
}

type EventPublisher interface {
	Emit(event events.DoorEvent)
}

// Request is one scan attempt as seen by the engine.
type Request struct {
	ScannedCardID      string
	ValidatorCardID    *string
	ExternalProviderID *uuid.UUID
	Hall               *string
}

// Service is the check-in engine.
type Service struct {
	ledger    Ledger
	audit     AuditStore
	members   MemberFinder
	providers ProviderFinder
	logger    *slog.Logger
	metrics   *metrics.Metrics
	events    EventPublisher
	tracer    trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// New constructs the engine.
func New(ledger Ledger, audit AuditStore, members MemberFinder, providers ProviderFinder, opts ...Option) *Service {
	s := &Service{
		ledger:    ledger,
		audit:     audit,
		members:   members,
		providers: providers,
		logger:    slog.Default(),
		tracer:    otel.Tracer("impact/checkin"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Perform runs one scan attempt end to end and returns the written audit
// record. Throttled attempts and unknown scanned cards return an error and
// leave no trace; every other outcome, granted or denied, is recorded.
func (s *Service) Perform(ctx context.Context, req Request) (*models.CheckIn, error) {
	start := time.Now()
	defer s.metrics.ObserveDecision(start)

	ctx, span := s.tracer.Start(ctx, "checkin.perform",
		trace.WithAttributes(attribute.String("member.card_id", req.ScannedCardID)))
	defer span.End()

	validator, provider, err := s.resolveParticipants(ctx, req)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var record *models.CheckIn

	decide := func(member *identitymodels.Member, active *passmodels.MemberPass) (passstore.Mutation, error) {
		if remaining, throttled := cooldownRemaining(member, now); throttled {
			return passstore.Mutation{}, dErrors.Throttled(remaining, "check-in attempted too soon")
		}

		record = models.NewCheckIn(member, now)
		record.SetValidator(validator)
		record.Hall = req.Hall

		switch {
		case active != nil:
			// An active pass always wins over a supplied provider.
			record.SetPass(active)
			record.IsSuccessful = true
			return passstore.Mutation{Success: true, ConsumePass: &active.ID}, nil
		case provider != nil:
			record.SetProvider(provider.ID, provider.Name)
			record.IsSuccessful = true
			return passstore.Mutation{Success: true}, nil
		default:
			record.Reject(models.ReasonNoAuthorization)
			return passstore.Mutation{Success: false}, nil
		}
	}

	appendAudit := func(ctx context.Context) error {
		if err := s.audit.Append(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit record")
		}
		return nil
	}

	if err := s.ledger.ExecuteCheckin(ctx, req.ScannedCardID, now, decide, appendAudit); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "scanned card id is not registered")
		}
		if dErrors.HasCode(err, dErrors.CodeThrottled) {
			s.metrics.IncrementThrottled()
			return nil, err
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check-in transaction failed")
	}

	s.observeOutcome(ctx, record)
	return record, nil
}

// resolveParticipants loads the optional validator and provider in parallel.
// An unknown validator card degrades to self-check-in; an unknown or deleted
// provider is a hard failure because the caller referenced a concrete entity.
func (s *Service) resolveParticipants(ctx context.Context, req Request) (*identitymodels.Member, *catalogmodels.ExternalProvider, error) {
	var (
		validator *identitymodels.Member
		provider  *catalogmodels.ExternalProvider
	)
	g, gctx := errgroup.WithContext(ctx)

	if req.ValidatorCardID != nil && *req.ValidatorCardID != "" {
		cardID := *req.ValidatorCardID
		g.Go(func() error {
			v, err := s.members.FindByCardID(gctx, cardID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return nil
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load validator")
			}
			validator = v
			return nil
		})
	}
	if req.ExternalProviderID != nil {
		providerID := *req.ExternalProviderID
		g.Go(func() error {
			p, err := s.providers.FindProviderByID(gctx, providerID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.New(dErrors.CodeNotFound, "external provider not found")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load external provider")
			}
			if p.IsDeleted {
				return dErrors.New(dErrors.CodeNotFound, "external provider not found")
			}
			provider = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return validator, provider, nil
}

// cooldownRemaining reports whether the member is still inside the cooldown
// window at the given instant and, if so, how many whole seconds remain.
// The window depends on the previous attempt's outcome. Remaining time is
// floored to whole seconds and never reported below 1.
func cooldownRemaining(member *identitymodels.Member, now time.Time) (int, bool) {
	if member.LastCheckinAt == nil {
		return 0, false
	}
	window := models.CooldownAfterFailure
	if member.LastCheckinSuccess != nil && *member.LastCheckinSuccess {
		window = models.CooldownAfterSuccess
	}
	elapsed := now.Sub(*member.LastCheckinAt)
	if elapsed > window {
		return 0, false
	}
	remaining := int((window - elapsed) / time.Second)
	if remaining < 1 {
		remaining = 1
	}
	return remaining, true
}

func (s *Service) observeOutcome(ctx context.Context, record *models.CheckIn) {
	if record.IsSuccessful {
		s.metrics.IncrementGranted()
	} else {
		s.metrics.IncrementDenied()
	}

	s.logger.InfoContext(ctx, "check-in decided",
		"request_id", requestcontext.RequestID(ctx),
		"member_card_id", record.MemberCardID,
		"is_successful", record.IsSuccessful,
		"checkin_id", record.ID,
	)

	if s.events != nil {
		s.events.Emit(events.DoorEvent{
			CheckInID:    record.ID,
			MemberCardID: record.MemberCardID,
			Granted:      record.IsSuccessful,
			Reason:       record.RejectedReason,
			At:           record.DateTime,
		})
	}
}

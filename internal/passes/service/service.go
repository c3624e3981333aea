// Package service implements pass purchase and lookup on top of the pass
// ledger. The one-active-pass rule is enforced inside the store, under the
// same per-member serialization the check-in engine uses.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	catalogmodels "impact/internal/catalog/models"
	"impact/internal/platform/metrics"
	passmodels "impact/internal/passes/models"
	dErrors "impact/pkg/domain-errors"
	"impact/pkg/platform/sentinel"
	"impact/pkg/requestcontext"
)

type PassStore interface {
	Purchase(ctx context.Context, pass *passmodels.MemberPass) error
	FindActiveByMember(ctx context.Context, memberCardID string, now time.Time) (*passmodels.MemberPass, error)
}

type PassTypeFinder interface {
	FindPassTypeByID(ctx context.Context, id uuid.UUID) (*catalogmodels.PassType, error)
}

// Service orchestrates pass purchases.
type Service struct {
	passes    PassStore
	passTypes PassTypeFinder
	logger    *slog.Logger
	metrics   *metrics.Metrics
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

// New constructs a Service.
func New(passes PassStore, passTypes PassTypeFinder, opts ...Option) *Service {
	s := &Service{passes: passes, passTypes: passTypes, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Purchase creates a pass for the member by snapshotting the catalog entry.
// Deleted pass types cannot be purchased; a member holding an active pass
// cannot buy another one.
func (s *Service) Purchase(ctx context.Context, memberCardID string, passTypeID uuid.UUID) (*passmodels.MemberPass, error) {
	passType, err := s.passTypes.FindPassTypeByID(ctx, passTypeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "pass type not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pass type")
	}
	if passType.IsDeleted {
		return nil, dErrors.New(dErrors.CodeNotFound, "pass type not found")
	}

	pass := passmodels.NewFromType(memberCardID, passType, requestcontext.Now(ctx))
	if err := s.passes.Purchase(ctx, pass); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "member already has an active pass")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to purchase pass")
		}
	}

	s.logger.InfoContext(ctx, "member pass purchased",
		"request_id", requestcontext.RequestID(ctx),
		"member_card_id", memberCardID,
		"pass_type_id", passTypeID,
		"pass_id", pass.ID,
	)
	s.metrics.IncrementPassesPurchased()
	return pass, nil
}

// ActiveFor returns the member's active pass at the request instant.
func (s *Service) ActiveFor(ctx context.Context, memberCardID string) (*passmodels.MemberPass, error) {
	pass, err := s.passes.FindActiveByMember(ctx, memberCardID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active pass for member")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active pass")
	}
	return pass, nil
}

// Package service implements the statistics reporter: read-only aggregation
// over the audit log with clamped pagination arithmetic.
package service

import (
	"context"
	"log/slog"
	"time"

	"impact/internal/stats/models"
	"impact/internal/stats/store"
	dErrors "impact/pkg/domain-errors"
)

// Service answers reporting queries.
type Service struct {
	stats  store.Store
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs a Service.
func New(stats store.Store, opts ...Option) *Service {
	s := &Service{stats: stats, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InstructorCheckins returns per-validator counts of successful check-ins
// inside the window.
func (s *Service) InstructorCheckins(ctx context.Context, from, to time.Time) ([]models.ValidatorCount, error) {
	if to.Before(from) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "date_to must not precede date_from")
	}
	counts, err := s.stats.CountByValidator(ctx, from, to)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate check-ins")
	}
	if counts == nil {
		counts = []models.ValidatorCount{}
	}
	return counts, nil
}

// InstructorCheckinsDetailed returns one page of a validator's check-ins.
// Pages are 1-based; out-of-range input is clamped rather than rejected so
// dashboards can page blindly.
func (s *Service) InstructorCheckinsDetailed(ctx context.Context, validatorCardID string, from, to time.Time, page, pageSize int) (*models.DetailedPage, error) {
	if to.Before(from) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "date_to must not precede date_from")
	}
	page = models.ClampPage(page)
	pageSize = models.ClampPageSize(pageSize)

	offset := (page - 1) * pageSize
	items, total, err := s.stats.DetailedByValidator(ctx, validatorCardID, from, to, offset, pageSize)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list check-ins")
	}

	remaining := total - page*pageSize
	if remaining < 0 {
		remaining = 0
	}
	return &models.DetailedPage{
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		Remaining: remaining,
		Items:     items,
	}, nil
}

// Package service implements catalog management: external providers and
// pass types, with soft deletes and live-name uniqueness.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"impact/internal/catalog/models"
	"impact/internal/catalog/store"
	dErrors "impact/pkg/domain-errors"
	"impact/pkg/platform/sentinel"
	"impact/pkg/requestcontext"
)

// Service orchestrates catalog CRUD.
type Service struct {
	catalog store.Store
	logger  *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs a Service.
func New(catalog store.Store, opts ...Option) *Service {
	s := &Service{catalog: catalog, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProviderInput carries the fields for a new external provider.
type CreateProviderInput struct {
	Name             string
	Description      *string
	IsPartialPayment bool
	PartialCents     *int64
}

func (s *Service) CreateProvider(ctx context.Context, in CreateProviderInput) (*models.ExternalProvider, error) {
	p, err := models.NewExternalProvider(in.Name, in.Description, in.IsPartialPayment, in.PartialCents)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.CreateProvider(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "provider name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create provider")
	}
	s.logger.InfoContext(ctx, "external provider created",
		"request_id", requestcontext.RequestID(ctx),
		"provider_id", p.ID,
	)
	return p, nil
}

func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (*models.ExternalProvider, error) {
	p, err := s.catalog.FindProviderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "external provider not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load provider")
	}
	return p, nil
}

func (s *Service) ListProviders(ctx context.Context, includeDeleted bool) ([]*models.ExternalProvider, error) {
	providers, err := s.catalog.ListProviders(ctx, includeDeleted)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list providers")
	}
	return providers, nil
}

func (s *Service) UpdateProvider(ctx context.Context, id uuid.UUID, update models.ProviderUpdate) (*models.ExternalProvider, error) {
	p, err := s.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(update); err != nil {
		return nil, err
	}
	if err := s.catalog.UpdateProvider(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "provider name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update provider")
	}
	return p, nil
}

// DeleteProvider soft-deletes the provider. Historical passes and audit
// rows keep their snapshotted copies.
func (s *Service) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	p, err := s.GetProvider(ctx, id)
	if err != nil {
		return err
	}
	if err := p.SoftDelete(requestcontext.Now(ctx)); err != nil {
		return err
	}
	if err := s.catalog.UpdateProvider(ctx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete provider")
	}
	s.logger.InfoContext(ctx, "external provider deleted",
		"request_id", requestcontext.RequestID(ctx),
		"provider_id", id,
	)
	return nil
}

// CreatePassTypeInput carries the fields for a new catalog entry.
type CreatePassTypeInput struct {
	Name               string
	Description        *string
	PriceCents         int64
	ValidityDays       *int
	MaximumEntries     *int
	ExternalProviderID *uuid.UUID
	IsExtEventPass     bool
	ExtEventCode       *string
}

func (s *Service) CreatePassType(ctx context.Context, in CreatePassTypeInput) (*models.PassType, error) {
	t, err := models.NewPassType(in.Name, in.Description, in.PriceCents, in.ValidityDays, in.MaximumEntries)
	if err != nil {
		return nil, err
	}
	if in.ExternalProviderID != nil {
		provider, err := s.GetProvider(ctx, *in.ExternalProviderID)
		if err != nil {
			return nil, err
		}
		if provider.IsDeleted {
			return nil, dErrors.New(dErrors.CodeNotFound, "external provider not found")
		}
		t.BindProvider(provider)
	}
	if in.IsExtEventPass {
		code := ""
		if in.ExtEventCode != nil {
			code = *in.ExtEventCode
		}
		if err := t.MarkEventPass(code); err != nil {
			return nil, err
		}
	}
	if err := s.catalog.CreatePassType(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "pass type name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create pass type")
	}
	s.logger.InfoContext(ctx, "pass type created",
		"request_id", requestcontext.RequestID(ctx),
		"pass_type_id", t.ID,
	)
	return t, nil
}

func (s *Service) GetPassType(ctx context.Context, id uuid.UUID) (*models.PassType, error) {
	t, err := s.catalog.FindPassTypeByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "pass type not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pass type")
	}
	return t, nil
}

func (s *Service) ListPassTypes(ctx context.Context, includeDeleted bool) ([]*models.PassType, error) {
	types, err := s.catalog.ListPassTypes(ctx, includeDeleted)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pass types")
	}
	return types, nil
}

func (s *Service) UpdatePassType(ctx context.Context, id uuid.UUID, update models.PassTypeUpdate) (*models.PassType, error) {
	t, err := s.GetPassType(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Apply(update); err != nil {
		return nil, err
	}
	if err := s.catalog.UpdatePassType(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "pass type name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update pass type")
	}
	return t, nil
}

// DeletePassType soft-deletes the catalog entry. Already-sold passes stay
// valid; new purchases of this type are refused.
func (s *Service) DeletePassType(ctx context.Context, id uuid.UUID) error {
	t, err := s.GetPassType(ctx, id)
	if err != nil {
		return err
	}
	if err := t.SoftDelete(requestcontext.Now(ctx)); err != nil {
		return err
	}
	if err := s.catalog.UpdatePassType(ctx, t); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete pass type")
	}
	s.logger.InfoContext(ctx, "pass type deleted",
		"request_id", requestcontext.RequestID(ctx),
		"pass_type_id", id,
	)
	return nil
}

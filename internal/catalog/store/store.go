// Package store persists the catalog: external providers and pass types.
package store

import (
	"context"

	"github.com/google/uuid"

	"impact/internal/catalog/models"
)

// Store owns catalog persistence. Names are unique among non-deleted rows
// only; implementations return sentinel.ErrConflict when a write would
// violate that, and sentinel.ErrNotFound for absent ids.
type Store interface {
	CreateProvider(ctx context.Context, p *models.ExternalProvider) error
	FindProviderByID(ctx context.Context, id uuid.UUID) (*models.ExternalProvider, error)
	ListProviders(ctx context.Context, includeDeleted bool) ([]*models.ExternalProvider, error)
	UpdateProvider(ctx context.Context, p *models.ExternalProvider) error

	CreatePassType(ctx context.Context, t *models.PassType) error
	FindPassTypeByID(ctx context.Context, id uuid.UUID) (*models.PassType, error)
	ListPassTypes(ctx context.Context, includeDeleted bool) ([]*models.PassType, error)
	UpdatePassType(ctx context.Context, t *models.PassType) error
}

// Package models holds the purchasable catalog: pass types and the external
// providers that may back them. Prices are stored in minor units (cents) to
// keep arithmetic exact.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "impact/pkg/domain-errors"
)

// ExternalProvider is a named external authorization/payment channel
// (e.g. a corporate benefits card). Soft-deletable; the partial payment
// amount is informational only.
type ExternalProvider struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Description      *string    `json:"description,omitempty"`
	IsPartialPayment bool       `json:"is_partial_payment"`
	PartialCents     *int64     `json:"partial_payment_cents,omitempty"`
	IsDeleted        bool       `json:"is_deleted"`
	DeleteDate       *time.Time `json:"delete_date,omitempty"`
}

// NewExternalProvider validates and builds a provider record.
func NewExternalProvider(name string, description *string, isPartial bool, partialCents *int64) (*ExternalProvider, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provider name is required")
	}
	if isPartial && (partialCents == nil || *partialCents <= 0) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "partial payment amount must be positive")
	}
	return &ExternalProvider{
		ID:               uuid.New(),
		Name:             name,
		Description:      description,
		IsPartialPayment: isPartial,
		PartialCents:     partialCents,
	}, nil
}

// PassType is a catalog entry describing a purchasable product.
//
// Invariants:
//   - Name is unique among non-deleted pass types
//   - ValidityDays nil means the pass never expires
//   - MaximumEntries nil means unlimited entries
//   - A soft-deleted type cannot back new purchases but stays readable for
//     historical passes
type PassType struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`

	ValidityDays   *int `json:"validity_days,omitempty"`
	MaximumEntries *int `json:"maximum_entries,omitempty"`

	RequiresExternalAuth bool       `json:"requires_external_auth"`
	ExternalProviderID   *uuid.UUID `json:"external_provider_id,omitempty"`
	ExternalProviderName *string    `json:"external_provider_name,omitempty"`

	IsExtEventPass bool    `json:"is_ext_event_pass"`
	ExtEventCode   *string `json:"ext_event_code,omitempty"`

	IsDeleted  bool       `json:"is_deleted"`
	DeleteDate *time.Time `json:"delete_date,omitempty"`
}

// NewPassType validates and builds a pass type.
func NewPassType(name string, description *string, priceCents int64, validityDays, maximumEntries *int) (*PassType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "pass type name is required")
	}
	if priceCents < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "price cannot be negative")
	}
	if validityDays != nil && *validityDays <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "validity days must be positive when set")
	}
	if maximumEntries != nil && *maximumEntries <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "maximum entries must be positive when set")
	}
	return &PassType{
		ID:             uuid.New(),
		Name:           name,
		Description:    description,
		PriceCents:     priceCents,
		ValidityDays:   validityDays,
		MaximumEntries: maximumEntries,
	}, nil
}

// BindProvider attaches an external provider requirement to the pass type,
// snapshotting the provider name.
func (t *PassType) BindProvider(p *ExternalProvider) {
	t.RequiresExternalAuth = true
	t.ExternalProviderID = &p.ID
	name := p.Name
	t.ExternalProviderName = &name
}

// MarkEventPass flags the type as an external-event product. Event passes
// are sellable but never resolve as active at the door.
func (t *PassType) MarkEventPass(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return dErrors.New(dErrors.CodeBadRequest, "event code is required for event passes")
	}
	t.IsExtEventPass = true
	t.ExtEventCode = &code
	return nil
}

// SoftDelete marks the type deleted without removing historical references.
func (t *PassType) SoftDelete(at time.Time) error {
	if t.IsDeleted {
		return dErrors.New(dErrors.CodeConflict, "pass type is already deleted")
	}
	t.IsDeleted = true
	t.DeleteDate = &at
	return nil
}

// SoftDelete marks the provider deleted.
func (p *ExternalProvider) SoftDelete(at time.Time) error {
	if p.IsDeleted {
		return dErrors.New(dErrors.CodeConflict, "external provider is already deleted")
	}
	p.IsDeleted = true
	p.DeleteDate = &at
	return nil
}

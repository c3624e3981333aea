package models

import (
	"strings"

	dErrors "impact/pkg/domain-errors"
)

// Sparse update payloads are merged field by field through the Apply
// functions below. Only the fields listed here can be changed after
// creation; nil means "leave unchanged".

// ProviderUpdate is the allow-listed set of mutable provider fields.
type ProviderUpdate struct {
	Name             *string
	Description      *string
	IsPartialPayment *bool
	PartialCents     *int64
}

// Apply merges the update into the provider, validating each field.
func (p *ExternalProvider) Apply(u ProviderUpdate) error {
	if p.IsDeleted {
		return dErrors.New(dErrors.CodeConflict, "external provider is deleted")
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return dErrors.New(dErrors.CodeBadRequest, "provider name cannot be empty")
		}
		p.Name = name
	}
	if u.Description != nil {
		p.Description = u.Description
	}
	if u.IsPartialPayment != nil {
		p.IsPartialPayment = *u.IsPartialPayment
	}
	if u.PartialCents != nil {
		if *u.PartialCents <= 0 {
			return dErrors.New(dErrors.CodeBadRequest, "partial payment amount must be positive")
		}
		p.PartialCents = u.PartialCents
	}
	if p.IsPartialPayment && p.PartialCents == nil {
		return dErrors.New(dErrors.CodeBadRequest, "partial payment amount is required")
	}
	return nil
}

// PassTypeUpdate is the allow-listed set of mutable pass type fields.
// Validity, entry limits and the event flag are fixed at creation so
// already-sold passes keep the terms they were bought under.
type PassTypeUpdate struct {
	Name        *string
	Description *string
	PriceCents  *int64
}

// Apply merges the update into the pass type, validating each field.
func (t *PassType) Apply(u PassTypeUpdate) error {
	if t.IsDeleted {
		return dErrors.New(dErrors.CodeConflict, "pass type is deleted")
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return dErrors.New(dErrors.CodeBadRequest, "pass type name cannot be empty")
		}
		t.Name = name
	}
	if u.Description != nil {
		t.Description = u.Description
	}
	if u.PriceCents != nil {
		if *u.PriceCents < 0 {
			return dErrors.New(dErrors.CodeBadRequest, "price cannot be negative")
		}
		t.PriceCents = *u.PriceCents
	}
	return nil
}

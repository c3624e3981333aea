package handler

import (
	"strings"

	"github.com/google/uuid"

	"impact/internal/catalog/models"
	"impact/internal/catalog/service"
	dErrors "impact/pkg/domain-errors"
)

// CreateProviderRequest is the HTTP request body for POST /external_providers.
type CreateProviderRequest struct {
	Name             string  `json:"name"`
	Description      *string `json:"description,omitempty"`
	IsPartialPayment bool    `json:"is_partial_payment"`
	PartialCents     *int64  `json:"partial_payment_cents,omitempty"`
}

func (r *CreateProviderRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	return nil
}

func (r *CreateProviderRequest) ToInput() service.CreateProviderInput {
	return service.CreateProviderInput{
		Name:             r.Name,
		Description:      r.Description,
		IsPartialPayment: r.IsPartialPayment,
		PartialCents:     r.PartialCents,
	}
}

// UpdateProviderRequest is the sparse HTTP request body for
// PATCH /external_providers/{id}. Absent fields are left unchanged.
type UpdateProviderRequest struct {
	Name             *string `json:"name,omitempty"`
	Description      *string `json:"description,omitempty"`
	IsPartialPayment *bool   `json:"is_partial_payment,omitempty"`
	PartialCents     *int64  `json:"partial_payment_cents,omitempty"`
}

func (r *UpdateProviderRequest) Validate() error {
	if r.Name == nil && r.Description == nil && r.IsPartialPayment == nil && r.PartialCents == nil {
		return dErrors.New(dErrors.CodeBadRequest, "at least one field must be provided")
	}
	return nil
}

func (r *UpdateProviderRequest) ToUpdate() models.ProviderUpdate {
	return models.ProviderUpdate{
		Name:             r.Name,
		Description:      r.Description,
		IsPartialPayment: r.IsPartialPayment,
		PartialCents:     r.PartialCents,
	}
}

// CreatePassTypeRequest is the HTTP request body for POST /pass_types.
type CreatePassTypeRequest struct {
	Name               string  `json:"name"`
	Description        *string `json:"description,omitempty"`
	PriceCents         int64   `json:"price_cents"`
	ValidityDays       *int    `json:"validity_days,omitempty"`
	MaximumEntries     *int    `json:"maximum_entries,omitempty"`
	ExternalProviderID *string `json:"external_provider_id,omitempty"`
	IsExtEventPass     bool    `json:"is_ext_event_pass"`
	ExtEventCode       *string `json:"ext_event_code,omitempty"`

	parsedProviderID *uuid.UUID
}

func (r *CreatePassTypeRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if r.ExternalProviderID != nil && strings.TrimSpace(*r.ExternalProviderID) != "" {
		id, err := uuid.Parse(strings.TrimSpace(*r.ExternalProviderID))
		if err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "external_provider_id must be a UUID")
		}
		r.parsedProviderID = &id
	}
	return nil
}

func (r *CreatePassTypeRequest) ToInput() service.CreatePassTypeInput {
	return service.CreatePassTypeInput{
		Name:               r.Name,
		Description:        r.Description,
		PriceCents:         r.PriceCents,
		ValidityDays:       r.ValidityDays,
		MaximumEntries:     r.MaximumEntries,
		ExternalProviderID: r.parsedProviderID,
		IsExtEventPass:     r.IsExtEventPass,
		ExtEventCode:       r.ExtEventCode,
	}
}

// UpdatePassTypeRequest is the sparse HTTP request body for
// PATCH /pass_types/{id}.
type UpdatePassTypeRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty"`
}

func (r *UpdatePassTypeRequest) Validate() error {
	if r.Name == nil && r.Description == nil && r.PriceCents == nil {
		return dErrors.New(dErrors.CodeBadRequest, "at least one field must be provided")
	}
	return nil
}

func (r *UpdatePassTypeRequest) ToUpdate() models.PassTypeUpdate {
	return models.PassTypeUpdate{
		Name:        r.Name,
		Description: r.Description,
		PriceCents:  r.PriceCents,
	}
}

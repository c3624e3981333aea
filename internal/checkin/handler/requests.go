package handler

import (
	"strings"

	"github.com/google/uuid"

	dErrors "impact/pkg/domain-errors"
)

// CheckInRequest is the HTTP request body for POST /logging/checkin.
type CheckInRequest struct {
	ScannedCardID      string  `json:"scanned_card_id"`
	ValidatorCardID    *string `json:"validator_card_id,omitempty"`
	ExternalProviderID *string `json:"external_provider_id,omitempty"`
	Hall               *string `json:"hall,omitempty"`

	parsedProviderID *uuid.UUID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CheckInRequest) Validate() error {
	r.ScannedCardID = strings.TrimSpace(r.ScannedCardID)
	if r.ScannedCardID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "scanned_card_id is required")
	}
	if r.ValidatorCardID != nil {
		trimmed := strings.TrimSpace(*r.ValidatorCardID)
		if trimmed == "" {
			r.ValidatorCardID = nil
		} else {
			r.ValidatorCardID = &trimmed
		}
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

// ParsedProviderID returns the validated provider id, or nil.
func (r *CheckInRequest) ParsedProviderID() *uuid.UUID {
	return r.parsedProviderID
}

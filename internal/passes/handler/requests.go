package handler

import (
	"strings"

	"github.com/google/uuid"

	dErrors "impact/pkg/domain-errors"
)

// PurchaseRequest is the HTTP request body for POST /member_pass.
type PurchaseRequest struct {
	MemberCardID string `json:"member_card_id"`
	PassTypeID   string `json:"pass_type_id"`

	parsedPassTypeID uuid.UUID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *PurchaseRequest) Validate() error {
	r.MemberCardID = strings.TrimSpace(r.MemberCardID)
	if r.MemberCardID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "member_card_id is required")
	}
	r.PassTypeID = strings.TrimSpace(r.PassTypeID)
	if r.PassTypeID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "pass_type_id is required")
	}
	id, err := uuid.Parse(r.PassTypeID)
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "pass_type_id must be a UUID")
	}
	r.parsedPassTypeID = id
	return nil
}

// ParsedPassTypeID returns the validated pass type id.
func (r *PurchaseRequest) ParsedPassTypeID() uuid.UUID {
	return r.parsedPassTypeID
}

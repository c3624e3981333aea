package handler

import (
	"strings"
	"time"

	dErrors "impact/pkg/domain-errors"
)

// InstructorCheckinsRequest is the HTTP request body for
// POST /statistics/instructors_checkins.
type InstructorCheckinsRequest struct {
	DateFrom time.Time `json:"date_from"`
	DateTo   time.Time `json:"date_to"`
}

func (r *InstructorCheckinsRequest) Validate() error {
	if r.DateFrom.IsZero() || r.DateTo.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "date_from and date_to are required")
	}
	return nil
}

// DetailedRequest is the HTTP request body for
// POST /statistics/instructor_checkins/detailed.
type DetailedRequest struct {
	ValidatorCardID string    `json:"validated_by_card_id"`
	DateFrom        time.Time `json:"date_from"`
	DateTo          time.Time `json:"date_to"`
	Page            int       `json:"page"`
	PageSize        int       `json:"page_size"`
}

func (r *DetailedRequest) Validate() error {
	r.ValidatorCardID = strings.TrimSpace(r.ValidatorCardID)
	if r.ValidatorCardID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "validated_by_card_id is required")
	}
	if r.DateFrom.IsZero() || r.DateTo.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "date_from and date_to are required")
	}
	return nil
}

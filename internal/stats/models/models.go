// Package models holds the read-only reporting shapes computed over the
// check-in audit log.
package models

import "time"

// MaxPageSize caps detailed listings so a single report cannot drag the
// whole audit table over the wire.
const MaxPageSize = 200

// ValidatorCount is one grouped row: how many successful check-ins a
// validator performed in the window. Nil validator fields group the
// self-service check-ins.
type ValidatorCount struct {
	ValidatorCardID  *string `json:"validated_by_card_id"`
	ValidatorName    *string `json:"validated_by_name"`
	ValidatorSurname *string `json:"validated_by_surname"`
	Count            int     `json:"count"`
}

// CheckInDetail is one row of the detailed listing.
type CheckInDetail struct {
	MemberName     string    `json:"name"`
	MemberSurname  string    `json:"surname"`
	DateTime       time.Time `json:"date_time"`
	IsSuccessful   bool      `json:"is_successful"`
	RejectedReason *string   `json:"rejected_reason,omitempty"`
}

// DetailedPage is one page of detail rows with pagination bookkeeping.
// Remaining counts the rows after this page.
type DetailedPage struct {
	Total     int             `json:"total"`
	Page      int             `json:"page"`
	PageSize  int             `json:"page_size"`
	Remaining int             `json:"remaining"`
	Items     []CheckInDetail `json:"items"`
}

// ClampPage normalizes a requested page to the 1-based minimum.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ClampPageSize normalizes a requested page size into [1, MaxPageSize].
func ClampPageSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

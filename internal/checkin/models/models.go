// Package models holds the check-in audit record and the decision constants
// of the door engine.
package models

import (
	"time"

	"github.com/google/uuid"

	identitymodels "impact/internal/identity/models"
	passmodels "impact/internal/passes/models"
)

// Cooldown windows between two check-in attempts by the same scanned member.
// The window depends on the outcome of the previous attempt: a successful
// entry earns the long window, a failed one only a short anti-hammering gap.
const (
	CooldownAfterSuccess = 300 * time.Second
	CooldownAfterFailure = 30 * time.Second
)

// ReasonNoAuthorization is the rejection reason recorded when neither an
// active pass nor an external provider authorizes the entry. The literal is
// part of the audit data format consumed by reporting.
const ReasonNoAuthorization = "No valid MemberPass and ExternalProvider"

// CheckIn is one append-only audit row, written once per non-throttled scan
// attempt and never updated afterwards. All names and labels are value
// snapshots taken at write time so the row survives later catalog or member
// changes.
type CheckIn struct {
	ID uuid.UUID `json:"id"`

	// Who performed the scan. Nil for self-service check-in.
	ValidatedByCardID  *string `json:"validated_by_card_id,omitempty"`
	ValidatedByName    *string `json:"validated_by_name,omitempty"`
	ValidatedBySurname *string `json:"validated_by_surname,omitempty"`
	Hall               *string `json:"hall,omitempty"`

	// Which authorization applied, if any.
	MemberPassID         *uuid.UUID `json:"member_pass_id,omitempty"`
	PassName             *string    `json:"pass_name,omitempty"`
	IsExtEventPass       *bool      `json:"is_ext_event_pass,omitempty"`
	ExtEventCode         *string    `json:"ext_event_code,omitempty"`
	ExternalProviderID   *uuid.UUID `json:"external_provider_id,omitempty"`
	ExternalProviderName *string    `json:"external_provider_name,omitempty"`

	// Who was scanned.
	MemberCardID  string `json:"member_card_id"`
	MemberName    string `json:"member_name"`
	MemberSurname string `json:"member_surname"`

	DateTime       time.Time `json:"date_time"`
	IsSuccessful   bool      `json:"is_successful"`
	RejectedReason *string   `json:"rejected_reason,omitempty"`
}

// NewCheckIn snapshots the scanned member into a fresh audit row. Validator
// and authorization fields are filled in by the engine depending on the
// decision branch.
func NewCheckIn(member *identitymodels.Member, at time.Time) *CheckIn {
	return &CheckIn{
		ID:            uuid.New(),
		MemberCardID:  member.CardID,
		MemberName:    member.Name,
		MemberSurname: member.Surname,
		DateTime:      at,
	}
}

// SetValidator snapshots the validating member.
func (c *CheckIn) SetValidator(v *identitymodels.Member) {
	if v == nil {
		return
	}
	cardID, name, surname := v.CardID, v.Name, v.Surname
	c.ValidatedByCardID = &cardID
	c.ValidatedByName = &name
	c.ValidatedBySurname = &surname
}

// SetPass snapshots the consumed pass, including the provider binding carried
// on the pass itself.
func (c *CheckIn) SetPass(p *passmodels.MemberPass) {
	passID := p.ID
	passName := p.PassTypeName
	isEvent := p.IsExtEventPass
	c.MemberPassID = &passID
	c.PassName = &passName
	c.IsExtEventPass = &isEvent
	if p.ExtEventCode != nil {
		code := *p.ExtEventCode
		c.ExtEventCode = &code
	}
	if p.ExternalProviderID != nil {
		id := *p.ExternalProviderID
		c.ExternalProviderID = &id
	}
	if p.ExternalProviderName != nil {
		name := *p.ExternalProviderName
		c.ExternalProviderName = &name
	}
}

// SetProvider snapshots a directly supplied external provider. Only called
// when no active pass exists.
func (c *CheckIn) SetProvider(id uuid.UUID, name string) {
	c.ExternalProviderID = &id
	c.ExternalProviderName = &name
}

// Reject marks the row as an unsuccessful attempt with a reason.
func (c *CheckIn) Reject(reason string) {
	c.IsSuccessful = false
	c.RejectedReason = &reason
}

// Package models holds the pass ledger entities. The single active-pass
// predicate lives here; the purchase guard and the check-in engine must both
// go through it so the two can never drift apart.
package models

import (
	"time"

	"github.com/google/uuid"

	catalogmodels "impact/internal/catalog/models"
)

// MemberPass is one purchased instance of a PassType, owned by exactly one
// member. Catalog fields are snapshotted at purchase time so historical
// check-in records stay meaningful if the catalog changes later.
type MemberPass struct {
	ID           uuid.UUID `json:"id"`
	MemberCardID string    `json:"member_card_id"`

	PassTypeID   uuid.UUID `json:"pass_type_id"`
	PassTypeName string    `json:"pass_type_name"`

	PurchaseDate   time.Time  `json:"purchase_date"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	EntriesLeft    *int       `json:"entries_left,omitempty"`

	RequiresExternalAuth bool       `json:"requires_external_auth"`
	ExternalProviderID   *uuid.UUID `json:"external_provider_id,omitempty"`
	ExternalProviderName *string    `json:"external_provider_name,omitempty"`

	IsExtEventPass bool    `json:"is_ext_event_pass"`
	ExtEventCode   *string `json:"ext_event_code,omitempty"`

	IsClosed bool `json:"is_closed"`
}

// NewFromType builds a pass by snapshotting the catalog entry at purchase
// time. Expiration is purchase date + validity days; nil validity means the
// pass never expires.
func NewFromType(memberCardID string, t *catalogmodels.PassType, purchasedAt time.Time) *MemberPass {
	p := &MemberPass{
		ID:                   uuid.New(),
		MemberCardID:         memberCardID,
		PassTypeID:           t.ID,
		PassTypeName:         t.Name,
		PurchaseDate:         purchasedAt,
		RequiresExternalAuth: t.RequiresExternalAuth,
		IsExtEventPass:       t.IsExtEventPass,
	}
	if t.ValidityDays != nil {
		exp := purchasedAt.AddDate(0, 0, *t.ValidityDays)
		p.ExpirationDate = &exp
	}
	if t.MaximumEntries != nil {
		entries := *t.MaximumEntries
		p.EntriesLeft = &entries
	}
	if t.ExternalProviderID != nil {
		id := *t.ExternalProviderID
		p.ExternalProviderID = &id
	}
	if t.ExternalProviderName != nil {
		name := *t.ExternalProviderName
		p.ExternalProviderName = &name
	}
	if t.ExtEventCode != nil {
		code := *t.ExtEventCode
		p.ExtEventCode = &code
	}
	return p
}

// ActiveAt is the single active-pass predicate: not closed, not an
// external-event pass, not expired at the given instant, and with entries
// remaining (nil entries means unlimited). Every call site must use this
// method rather than re-deriving the filter.
func (p *MemberPass) ActiveAt(now time.Time) bool {
	if p.IsClosed || p.IsExtEventPass {
		return false
	}
	if p.ExpirationDate != nil && !p.ExpirationDate.After(now) {
		return false
	}
	if p.EntriesLeft != nil && *p.EntriesLeft <= 0 {
		return false
	}
	return true
}

// Clone returns a deep copy. Pointer fields get fresh allocations so callers
// can never reach stored state through a returned pass.
func (p *MemberPass) Clone() *MemberPass {
	clone := *p
	if p.ExpirationDate != nil {
		exp := *p.ExpirationDate
		clone.ExpirationDate = &exp
	}
	if p.EntriesLeft != nil {
		entries := *p.EntriesLeft
		clone.EntriesLeft = &entries
	}
	if p.ExternalProviderID != nil {
		id := *p.ExternalProviderID
		clone.ExternalProviderID = &id
	}
	if p.ExternalProviderName != nil {
		name := *p.ExternalProviderName
		clone.ExternalProviderName = &name
	}
	if p.ExtEventCode != nil {
		code := *p.ExtEventCode
		clone.ExtEventCode = &code
	}
	return &clone
}

// ConsumeEntry decrements the remaining entries by one. Unlimited passes
// (nil entries) are untouched. Callers must hold the per-member lock.
func (p *MemberPass) ConsumeEntry() {
	if p.EntriesLeft == nil {
		return
	}
	remaining := *p.EntriesLeft - 1
	p.EntriesLeft = &remaining
}

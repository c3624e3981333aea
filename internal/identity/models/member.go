package models

import (
	"strings"
	"time"

	dErrors "impact/pkg/domain-errors"
)

// Member is the access-control subject: one person with one card.
//
// Invariants:
//   - CardID, Email and Username are unique across all members
//   - CardID is immutable once issued
//   - PasswordHash never holds a plaintext password
//   - LastCheckinSuccess / LastCheckinAt are mutated only by the check-in
//     engine; everything else only by administrative updates
type Member struct {
	CardID           string     `json:"card_id"`
	Name             string     `json:"name"`
	Surname          string     `json:"surname"`
	Email            string     `json:"email"`
	PhoneNumber      *string    `json:"phone_number,omitempty"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	RegistrationDate time.Time  `json:"registration_date"`
	Role             Role       `json:"role"`
	Username         string     `json:"username"`
	PasswordHash     string     `json:"-"`
	Activated        bool       `json:"activated"`

	// Outcome of the most recent check-in attempt. Drives the cooldown
	// window on the next attempt.
	LastCheckinSuccess *bool      `json:"last_checkin_success,omitempty"`
	LastCheckinAt      *time.Time `json:"last_checkin_datetime,omitempty"`

	// Device label parsed from the User-Agent of the last successful login.
	LastLoginDevice *string `json:"last_login_device,omitempty"`

	// Unconfirmed signups expire and get swept after this instant.
	// Nil once the account is confirmed or when created by an admin.
	ConfirmExpiresAt *time.Time `json:"-"`
}

// NewMember validates identity fields and builds a member record. The caller
// supplies the issued card id and password hash; role defaults are the
// caller's concern.
func NewMember(cardID, name, surname, email, username, passwordHash string, role Role, now time.Time) (*Member, error) {
	name = strings.TrimSpace(name)
	surname = strings.TrimSpace(surname)
	email = strings.TrimSpace(email)
	if cardID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "card id is required")
	}
	if name == "" || surname == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name and surname are required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeBadRequest, "a valid email is required")
	}
	if username == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "username is required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid role")
	}
	return &Member{
		CardID:           cardID,
		Name:             name,
		Surname:          surname,
		Email:            email,
		Username:         username,
		PasswordHash:     passwordHash,
		Role:             role,
		RegistrationDate: now,
	}, nil
}

// RecordCheckin applies the outcome of a check-in attempt. Called for both
// granted and denied attempts; throttled attempts never reach this.
func (m *Member) RecordCheckin(success bool, at time.Time) {
	m.LastCheckinSuccess = &success
	m.LastCheckinAt = &at
}

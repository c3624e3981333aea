// Package member persists Member records and owns their uniqueness
// invariants (card id, email, username).
package member

import (
	"context"
	"fmt"
	"time"

	"impact/internal/identity/models"
	"impact/pkg/platform/sentinel"
)

// ErrCardIDTaken is returned by Create when the generated card id collides
// with an existing member. It wraps sentinel.ErrConflict so generic conflict
// handling still applies, but callers that generate card ids can match it
// and retry with a fresh one.
var ErrCardIDTaken = fmt.Errorf("card id taken: %w", sentinel.ErrConflict)

// Store is the member persistence interface. Implementations return
// sentinel.ErrNotFound for absent members and sentinel.ErrConflict when a
// write would violate a uniqueness invariant.
type Store interface {
	Create(ctx context.Context, m *models.Member) error
	FindByCardID(ctx context.Context, cardID string) (*models.Member, error)
	FindByUsername(ctx context.Context, username string) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	CardIDExists(ctx context.Context, cardID string) (bool, error)
	Update(ctx context.Context, m *models.Member) error

	// Activate flips the activation flag and clears the confirmation expiry.
	Activate(ctx context.Context, cardID string) error
	// RecordLogin stores the device label of the latest successful login.
	RecordLogin(ctx context.Context, cardID, deviceLabel string) error
	// HasRole reports whether any member with the given role exists.
	// Used by the root bootstrap at startup.
	HasRole(ctx context.Context, role models.Role) (bool, error)
	// DeleteUnconfirmedBefore purges unactivated members whose confirmation
	// window closed before the cutoff. Returns the number of rows removed.
	DeleteUnconfirmedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

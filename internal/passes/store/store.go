// Package store persists member passes and provides the per-member
// serialized executor the check-in engine runs inside.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	identitymodels "impact/internal/identity/models"
	passmodels "impact/internal/passes/models"
)

// Mutation describes the state change a check-in decision wants applied.
// Success drives the member cooldown fields; ConsumePass, when set, names
// the pass whose entry counter is decremented in the same transaction.
type Mutation struct {
	Success     bool
	ConsumePass *uuid.UUID
}

// Store is the pass ledger. Purchase and ExecuteCheckin are serialized per
// member so concurrent scans cannot overdraw an entry counter or buy two
// active passes.
//
// Purchase returns sentinel.ErrNotFound when the member does not exist and
// sentinel.ErrConflict when the member already holds an active pass at the
// purchase instant.
type Store interface {
	Purchase(ctx context.Context, pass *passmodels.MemberPass) error

	// FindActiveByMember returns the member's active pass at the given
	// instant, or sentinel.ErrNotFound when none qualifies.
	FindActiveByMember(ctx context.Context, memberCardID string, now time.Time) (*passmodels.MemberPass, error)

	// ExecuteCheckin runs one check-in under the member's lock. It loads
	// the member and their active pass (nil when none), calls decide, and
	// on a nil error applies the returned mutation. beforeCommit runs
	// after the state changes are staged but before they become visible;
	// a non-nil error from either callback aborts every write.
	//
	// A decide error means no state change at all, which is how throttled
	// scans leave no trace.
	ExecuteCheckin(
		ctx context.Context,
		memberCardID string,
		now time.Time,
		decide func(member *identitymodels.Member, active *passmodels.MemberPass) (Mutation, error),
		beforeCommit func(ctx context.Context) error,
	) error
}

// Package confirmation stores signup confirmation tokens with a TTL.
// A token maps to the card id of the pending member; consuming it activates
// the account exactly once.
package confirmation

import (
	"context"
	"time"
)

// Store is the confirmation token backend. The Redis implementation is
// recommended for deployments with more than one instance; the in-memory one
// keeps single-node setups and tests dependency-free.
type Store interface {
	// Put associates a token with a member card id for the given TTL.
	Put(ctx context.Context, token, cardID string, ttl time.Duration) error
	// Consume resolves and deletes a token atomically. Returns
	// sentinel.ErrNotFound for unknown or already-consumed tokens and
	// sentinel.ErrExpired for expired ones (where distinguishable).
	Consume(ctx context.Context, token string) (cardID string, err error)
}

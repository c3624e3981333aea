// Package store appends check-in audit rows. The audit log lives in its own
// database so reporting load never competes with the door critical path.
package store

import (
	"context"

	"impact/internal/checkin/models"
)

// Store is the append-only audit log. Rows are written once and never
// updated.
type Store interface {
	Append(ctx context.Context, record *models.CheckIn) error
}

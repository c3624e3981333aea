// Package store runs the reporting queries against the audit log.
package store

import (
	"context"
	"time"

	"impact/internal/stats/models"
)

// Store reads the audit log. All queries are read-only.
type Store interface {
	// CountByValidator groups successful check-ins in [from, to] per
	// validator, self-service rows grouped under nil.
	CountByValidator(ctx context.Context, from, to time.Time) ([]models.ValidatorCount, error)

	// DetailedByValidator lists one validator's check-ins in [from, to]
	// ordered by time, returning the requested window and the total row
	// count. Offset and limit are pre-clamped by the service.
	DetailedByValidator(ctx context.Context, validatorCardID string, from, to time.Time, offset, limit int) ([]models.CheckInDetail, int, error)
}

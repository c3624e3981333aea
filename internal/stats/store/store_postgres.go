package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"impact/internal/stats/models"
)

// PostgresStore runs the reporting queries against the check-in database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CountByValidator(ctx context.Context, from, to time.Time) ([]models.ValidatorCount, error) {
	query := `
		SELECT validated_by_card_id, validated_by_name, validated_by_surname, COUNT(*)
		FROM checkins
		WHERE is_successful = TRUE AND date_time BETWEEN $1 AND $2
		GROUP BY validated_by_card_id, validated_by_name, validated_by_surname
		ORDER BY validated_by_card_id NULLS FIRST
	`
	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("count by validator: %w", err)
	}
	defer rows.Close()

	var out []models.ValidatorCount
	for rows.Next() {
		var row models.ValidatorCount
		if err := rows.Scan(&row.ValidatorCardID, &row.ValidatorName, &row.ValidatorSurname, &row.Count); err != nil {
			return nil, fmt.Errorf("scan validator count: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validator counts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DetailedByValidator(ctx context.Context, validatorCardID string, from, to time.Time, offset, limit int) ([]models.CheckInDetail, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM checkins
		WHERE validated_by_card_id = $1 AND date_time BETWEEN $2 AND $3
	`, validatorCardID, from, to).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count detailed checkins: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT member_name, member_surname, date_time, is_successful, rejected_reason
		FROM checkins
		WHERE validated_by_card_id = $1 AND date_time BETWEEN $2 AND $3
		ORDER BY date_time
		OFFSET $4 LIMIT $5
	`, validatorCardID, from, to, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list detailed checkins: %w", err)
	}
	defer rows.Close()

	items := []models.CheckInDetail{}
	for rows.Next() {
		var item models.CheckInDetail
		if err := rows.Scan(&item.MemberName, &item.MemberSurname, &item.DateTime, &item.IsSuccessful, &item.RejectedReason); err != nil {
			return nil, 0, fmt.Errorf("scan detailed checkin: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate detailed checkins: %w", err)
	}
	return items, total, nil
}

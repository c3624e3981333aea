package store

import (
	"context"
	"database/sql"
	"fmt"

	"impact/internal/checkin/models"
)

// PostgresStore appends audit rows to the check-in database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, record *models.CheckIn) error {
	query := `
		INSERT INTO checkins (
			id, validated_by_card_id, validated_by_name, validated_by_surname, hall,
			member_pass_id, pass_name, is_ext_event_pass, ext_event_code,
			external_provider_id, external_provider_name,
			member_card_id, member_name, member_surname,
			date_time, is_successful, rejected_reason
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.ValidatedByCardID,
		record.ValidatedByName,
		record.ValidatedBySurname,
		record.Hall,
		record.MemberPassID,
		record.PassName,
		record.IsExtEventPass,
		record.ExtEventCode,
		record.ExternalProviderID,
		record.ExternalProviderName,
		record.MemberCardID,
		record.MemberName,
		record.MemberSurname,
		record.DateTime,
		record.IsSuccessful,
		record.RejectedReason,
	)
	if err != nil {
		return fmt.Errorf("append checkin: %w", err)
	}
	return nil
}

package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"impact/internal/identity/models"
	"impact/internal/platform/postgres"
	"impact/pkg/platform/sentinel"
)

// PostgresStore persists members in PostgreSQL. The store is pure I/O;
// cooldown arithmetic and role rules belong to the services.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const memberColumns = `
	card_id, name, surname, email, phone_number, date_of_birth,
	registration_date, role, username, password_hash, activated,
	last_checkin_success, last_checkin_at, last_login_device, confirm_expires_at
`

func (s *PostgresStore) Create(ctx context.Context, m *models.Member) error {
	query := `
		INSERT INTO members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(ctx, query,
		m.CardID,
		m.Name,
		m.Surname,
		m.Email,
		m.PhoneNumber,
		m.DateOfBirth,
		m.RegistrationDate,
		m.Role.Int(),
		m.Username,
		m.PasswordHash,
		m.Activated,
		m.LastCheckinSuccess,
		m.LastCheckinAt,
		m.LastLoginDevice,
		m.ConfirmExpiresAt,
	)
	if err != nil {
		if postgres.IsUniqueViolationOn(err, "members_pkey") {
			return ErrCardIDTaken
		}
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCardID(ctx context.Context, cardID string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE card_id = $1`
	return s.queryOne(ctx, query, cardID)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE username = $1`
	return s.queryOne(ctx, query, username)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE lower(email) = lower($1)`
	return s.queryOne(ctx, query, email)
}

func (s *PostgresStore) CardIDExists(ctx context.Context, cardID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM members WHERE card_id = $1)`, cardID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("card id exists: %w", err)
	}
	return exists, nil
}

// Update rewrites every mutable column of the member row. The card id is
// the immutable key and is never rewritten.
func (s *PostgresStore) Update(ctx context.Context, m *models.Member) error {
	query := `
		UPDATE members SET
			name = $2, surname = $3, email = $4, phone_number = $5,
			date_of_birth = $6, role = $7, username = $8, password_hash = $9,
			activated = $10, last_checkin_success = $11, last_checkin_at = $12,
			last_login_device = $13, confirm_expires_at = $14
		WHERE card_id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		m.CardID,
		m.Name,
		m.Surname,
		m.Email,
		m.PhoneNumber,
		m.DateOfBirth,
		m.Role.Int(),
		m.Username,
		m.PasswordHash,
		m.Activated,
		m.LastCheckinSuccess,
		m.LastCheckinAt,
		m.LastLoginDevice,
		m.ConfirmExpiresAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update member: %w", err)
	}
	return requireRow(result, "update member")
}

func (s *PostgresStore) Activate(ctx context.Context, cardID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE members SET activated = TRUE, confirm_expires_at = NULL WHERE card_id = $1`, cardID)
	if err != nil {
		return fmt.Errorf("activate member: %w", err)
	}
	return requireRow(result, "activate member")
}

func (s *PostgresStore) RecordLogin(ctx context.Context, cardID, deviceLabel string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE members SET last_login_device = $2 WHERE card_id = $1`, cardID, deviceLabel)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return requireRow(result, "record login")
}

func (s *PostgresStore) HasRole(ctx context.Context, role models.Role) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM members WHERE role = $1)`, role.Int()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has role: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) DeleteUnconfirmedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM members WHERE activated = FALSE AND confirm_expires_at IS NOT NULL AND confirm_expires_at < $1`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete unconfirmed members: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete unconfirmed members rows affected: %w", err)
	}
	return removed, nil
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, arg any) (*models.Member, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	return m, nil
}

func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type memberRow interface {
	Scan(dest ...any) error
}

func scanMember(row memberRow) (*models.Member, error) {
	var m models.Member
	var roleInt int
	if err := row.Scan(
		&m.CardID,
		&m.Name,
		&m.Surname,
		&m.Email,
		&m.PhoneNumber,
		&m.DateOfBirth,
		&m.RegistrationDate,
		&roleInt,
		&m.Username,
		&m.PasswordHash,
		&m.Activated,
		&m.LastCheckinSuccess,
		&m.LastCheckinAt,
		&m.LastLoginDevice,
		&m.ConfirmExpiresAt,
	); err != nil {
		return nil, err
	}
	role, err := models.ParseRoleInt(roleInt)
	if err != nil {
		return nil, fmt.Errorf("scan member role: %w", err)
	}
	m.Role = role
	return &m, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	identitymodels "impact/internal/identity/models"
	passmodels "impact/internal/passes/models"
	"impact/pkg/platform/sentinel"
)

// PostgresStore persists passes in PostgreSQL. Per-member serialization is
// a row lock on the members row: Purchase and ExecuteCheckin both take it
// first, so two concurrent scans (or a scan racing a purchase) for the same
// member queue behind each other.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const passColumns = `
	id, member_card_id, pass_type_id, pass_type_name, purchase_date,
	expiration_date, entries_left, requires_external_auth,
	external_provider_id, external_provider_name,
	is_ext_event_pass, ext_event_code, is_closed
`

func (s *PostgresStore) Purchase(ctx context.Context, pass *passmodels.MemberPass) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin purchase: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockMemberRow(ctx, tx, pass.MemberCardID); err != nil {
		return err
	}
	active, err := activePassTx(ctx, tx, pass.MemberCardID, pass.PurchaseDate)
	if err != nil {
		return err
	}
	if active != nil {
		return sentinel.ErrConflict
	}

	query := `
		INSERT INTO member_passes (` + passColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = tx.ExecContext(ctx, query,
		pass.ID,
		pass.MemberCardID,
		pass.PassTypeID,
		pass.PassTypeName,
		pass.PurchaseDate,
		pass.ExpirationDate,
		pass.EntriesLeft,
		pass.RequiresExternalAuth,
		pass.ExternalProviderID,
		pass.ExternalProviderName,
		pass.IsExtEventPass,
		pass.ExtEventCode,
		pass.IsClosed,
	)
	if err != nil {
		return fmt.Errorf("insert member pass: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit purchase: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindActiveByMember(ctx context.Context, memberCardID string, now time.Time) (*passmodels.MemberPass, error) {
	query := `
		SELECT ` + passColumns + `
		FROM member_passes
		WHERE member_card_id = $1 AND is_closed = FALSE AND is_ext_event_pass = FALSE
	`
	rows, err := s.db.QueryContext(ctx, query, memberCardID)
	if err != nil {
		return nil, fmt.Errorf("find active pass: %w", err)
	}
	defer rows.Close()

	active, err := pickActive(rows, now)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, sentinel.ErrNotFound
	}
	return active, nil
}

func (s *PostgresStore) ExecuteCheckin(
	ctx context.Context,
	memberCardID string,
	now time.Time,
	decide func(member *identitymodels.Member, active *passmodels.MemberPass) (Mutation, error),
	beforeCommit func(ctx context.Context) error,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	member, err := lockAndScanMember(ctx, tx, memberCardID)
	if err != nil {
		return err
	}

	// The candidate rows are locked too so a racing purchase cannot slip
	// a second active pass in while the decision runs.
	active, err := activePassTx(ctx, tx, memberCardID, now)
	if err != nil {
		return err
	}

	mutation, err := decide(member, active)
	if err != nil {
		return err
	}
	if beforeCommit != nil {
		if err := beforeCommit(ctx); err != nil {
			return err
		}
	}

	if mutation.ConsumePass != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE member_passes
			SET entries_left = entries_left - 1
			WHERE id = $1 AND entries_left IS NOT NULL
		`, *mutation.ConsumePass)
		if err != nil {
			return fmt.Errorf("consume pass entry: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE members
		SET last_checkin_success = $2, last_checkin_at = $3
		WHERE card_id = $1
	`, memberCardID, mutation.Success, now)
	if err != nil {
		return fmt.Errorf("record member checkin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkin: %w", err)
	}
	return nil
}

func lockMemberRow(ctx context.Context, tx *sql.Tx, cardID string) error {
	var locked string
	err := tx.QueryRowContext(ctx, `SELECT card_id FROM members WHERE card_id = $1 FOR UPDATE`, cardID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock member row: %w", err)
	}
	return nil
}

func lockAndScanMember(ctx context.Context, tx *sql.Tx, cardID string) (*identitymodels.Member, error) {
	query := `
		SELECT card_id, name, surname, email, phone_number, date_of_birth,
		       registration_date, role, username, password_hash, activated,
		       last_checkin_success, last_checkin_at, last_login_device, confirm_expires_at
		FROM members
		WHERE card_id = $1
		FOR UPDATE
	`
	var m identitymodels.Member
	var roleInt int
	err := tx.QueryRowContext(ctx, query, cardID).Scan(
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
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock member: %w", err)
	}
	role, err := identitymodels.ParseRoleInt(roleInt)
	if err != nil {
		return nil, fmt.Errorf("scan member role: %w", err)
	}
	m.Role = role
	return &m, nil
}

// activePassTx loads the member's open non-event passes under the
// transaction's locks and picks the active one, or nil.
func activePassTx(ctx context.Context, tx *sql.Tx, memberCardID string, now time.Time) (*passmodels.MemberPass, error) {
	query := `
		SELECT ` + passColumns + `
		FROM member_passes
		WHERE member_card_id = $1 AND is_closed = FALSE AND is_ext_event_pass = FALSE
		FOR UPDATE
	`
	rows, err := tx.QueryContext(ctx, query, memberCardID)
	if err != nil {
		return nil, fmt.Errorf("load open passes: %w", err)
	}
	defer rows.Close()
	return pickActive(rows, now)
}

// pickActive scans candidate rows and applies the domain predicate, so the
// SQL never re-derives the activity rules.
func pickActive(rows *sql.Rows, now time.Time) (*passmodels.MemberPass, error) {
	var active *passmodels.MemberPass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		if active == nil && p.ActiveAt(now) {
			active = p
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return active, nil
}

type passRow interface {
	Scan(dest ...any) error
}

func scanPass(row passRow) (*passmodels.MemberPass, error) {
	var p passmodels.MemberPass
	if err := row.Scan(
		&p.ID,
		&p.MemberCardID,
		&p.PassTypeID,
		&p.PassTypeName,
		&p.PurchaseDate,
		&p.ExpirationDate,
		&p.EntriesLeft,
		&p.RequiresExternalAuth,
		&p.ExternalProviderID,
		&p.ExternalProviderName,
		&p.IsExtEventPass,
		&p.ExtEventCode,
		&p.IsClosed,
	); err != nil {
		return nil, fmt.Errorf("scan member pass: %w", err)
	}
	return &p, nil
}

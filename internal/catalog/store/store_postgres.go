package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"impact/internal/catalog/models"
	"impact/internal/platform/postgres"
	"impact/pkg/platform/sentinel"
)

// PostgresStore persists the catalog. Live-name uniqueness is a partial
// unique index (WHERE NOT is_deleted), so conflicts surface as unique
// violations on insert and update alike.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const providerColumns = `
	id, name, description, is_partial_payment, partial_payment_cents, is_deleted, delete_date
`

func (s *PostgresStore) CreateProvider(ctx context.Context, p *models.ExternalProvider) error {
	query := `
		INSERT INTO external_providers (` + providerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.IsPartialPayment, p.PartialCents, p.IsDeleted, p.DeleteDate)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create provider: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindProviderByID(ctx context.Context, id uuid.UUID) (*models.ExternalProvider, error) {
	query := `SELECT ` + providerColumns + ` FROM external_providers WHERE id = $1`
	p, err := scanProvider(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find provider: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListProviders(ctx context.Context, includeDeleted bool) ([]*models.ExternalProvider, error) {
	query := `SELECT ` + providerColumns + ` FROM external_providers`
	if !includeDeleted {
		query += ` WHERE is_deleted = FALSE`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var out []*models.ExternalProvider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate providers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateProvider(ctx context.Context, p *models.ExternalProvider) error {
	query := `
		UPDATE external_providers SET
			name = $2, description = $3, is_partial_payment = $4,
			partial_payment_cents = $5, is_deleted = $6, delete_date = $7
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.IsPartialPayment, p.PartialCents, p.IsDeleted, p.DeleteDate)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update provider: %w", err)
	}
	return requireRow(result, "update provider")
}

const passTypeColumns = `
	id, name, description, price_cents, validity_days, maximum_entries,
	requires_external_auth, external_provider_id, external_provider_name,
	is_ext_event_pass, ext_event_code, is_deleted, delete_date
`

func (s *PostgresStore) CreatePassType(ctx context.Context, t *models.PassType) error {
	query := `
		INSERT INTO pass_types (` + passTypeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Description, t.PriceCents, t.ValidityDays, t.MaximumEntries,
		t.RequiresExternalAuth, t.ExternalProviderID, t.ExternalProviderName,
		t.IsExtEventPass, t.ExtEventCode, t.IsDeleted, t.DeleteDate)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create pass type: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindPassTypeByID(ctx context.Context, id uuid.UUID) (*models.PassType, error) {
	query := `SELECT ` + passTypeColumns + ` FROM pass_types WHERE id = $1`
	t, err := scanPassType(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find pass type: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) ListPassTypes(ctx context.Context, includeDeleted bool) ([]*models.PassType, error) {
	query := `SELECT ` + passTypeColumns + ` FROM pass_types`
	if !includeDeleted {
		query += ` WHERE is_deleted = FALSE`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pass types: %w", err)
	}
	defer rows.Close()

	var out []*models.PassType
	for rows.Next() {
		t, err := scanPassType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pass type: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pass types: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdatePassType(ctx context.Context, t *models.PassType) error {
	query := `
		UPDATE pass_types SET
			name = $2, description = $3, price_cents = $4, validity_days = $5,
			maximum_entries = $6, requires_external_auth = $7,
			external_provider_id = $8, external_provider_name = $9,
			is_ext_event_pass = $10, ext_event_code = $11,
			is_deleted = $12, delete_date = $13
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Description, t.PriceCents, t.ValidityDays, t.MaximumEntries,
		t.RequiresExternalAuth, t.ExternalProviderID, t.ExternalProviderName,
		t.IsExtEventPass, t.ExtEventCode, t.IsDeleted, t.DeleteDate)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update pass type: %w", err)
	}
	return requireRow(result, "update pass type")
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

type catalogRow interface {
	Scan(dest ...any) error
}

func scanProvider(row catalogRow) (*models.ExternalProvider, error) {
	var p models.ExternalProvider
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.IsPartialPayment,
		&p.PartialCents, &p.IsDeleted, &p.DeleteDate,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPassType(row catalogRow) (*models.PassType, error) {
	var t models.PassType
	if err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.PriceCents, &t.ValidityDays, &t.MaximumEntries,
		&t.RequiresExternalAuth, &t.ExternalProviderID, &t.ExternalProviderName,
		&t.IsExtEventPass, &t.ExtEventCode, &t.IsDeleted, &t.DeleteDate,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

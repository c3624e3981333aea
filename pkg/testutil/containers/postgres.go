//go:build integration

// Package containers starts throwaway backing services for integration tests.
package containers

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer wraps a testcontainers Postgres instance with the schema
// from one db/migrations subdirectory already applied.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

// NewIdentityDB starts a Postgres container carrying the members, catalog and
// member_passes schema.
func NewIdentityDB(t *testing.T) *PostgresContainer {
	t.Helper()
	return newPostgres(t, "identity")
}

// NewAuditDB starts a Postgres container carrying the checkins schema. It is
// deliberately separate from the identity database; the two never share a
// transaction in production either.
func NewAuditDB(t *testing.T) *PostgresContainer {
	t.Helper()
	return newPostgres(t, "checkins")
}

func newPostgres(t *testing.T, migrationsDir string) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("impact_test"),
		tcpostgres.WithUsername("impact"),
		tcpostgres.WithPassword("impact"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	applyMigrations(t, ctx, db, migrationsDir)

	pc := &PostgresContainer{
		Container: container,
		URL:       url,
		DB:        db,
	}
	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})
	return pc
}

// applyMigrations runs every .sql file in db/migrations/<dir> in name order.
func applyMigrations(t *testing.T, ctx context.Context, db *sql.DB, dir string) {
	t.Helper()

	root := repoRoot(t)
	pattern := filepath.Join(root, "db", "migrations", dir, "*.sql")
	files, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("failed to list migrations %s: %v", pattern, err)
	}
	if len(files) == 0 {
		t.Fatalf("no migrations found at %s", pattern)
	}
	sort.Strings(files)

	for _, f := range files {
		script, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("failed to read migration %s: %v", f, err)
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			t.Fatalf("failed to apply migration %s: %v", f, err)
		}
	}
}

// repoRoot walks up from this source file to the directory holding go.mod.
func repoRoot(t *testing.T) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to locate caller for repo root discovery")
	}
	dir := filepath.Dir(file)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found above testutil/containers")
		}
		dir = parent
	}
}

// TruncateAll clears every table so tests start from a blank slate without
// paying container startup again.
func (p *PostgresContainer) TruncateAll(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return err
		}
	}
	return nil
}

package postgres

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"

	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/samber/lo"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration is one embedded schema file
type Migration struct {
	Version string
	SQL     string
}

// Migrations returns the embedded migrations in version order
func Migrations() ([]Migration, error) {
	entries, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)

	migrations := make([]Migration, 0, len(entries))
	for _, name := range entries {
		content, err := migrationFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		version := strings.TrimSuffix(strings.TrimPrefix(name, "migrations/"), ".sql")
		migrations = append(migrations, Migration{Version: version, SQL: string(content)})
	}
	return migrations, nil
}

// PendingMigrations returns the embedded migrations not recorded in
// schema_migrations yet, creating that table when missing.
func (db *DB) PendingMigrations(ctx context.Context) ([]Migration, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return nil, classify(err, "create schema_migrations")
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		return nil, classify(err, "list applied migrations")
	}

	migrations, err := Migrations()
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not read embedded migrations").
			Mark(ierr.ErrSystem)
	}

	return lo.Filter(migrations, func(m Migration, _ int) bool {
		return !lo.Contains(applied, m.Version)
	}), nil
}

// Migrate applies the pending migrations and returns the versions it
// applied. Each migration runs in its own transaction.
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	pending, err := db.PendingMigrations(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, m := range pending {
		db.logger.Infow("applying migration", "version", m.Version)
		err := db.WithTx(ctx, func(ctx context.Context) error {
			q := db.GetQuerier(ctx)
			if _, err := q.ExecContext(ctx, m.SQL); err != nil {
				return classify(err, "apply migration "+m.Version)
			}
			if _, err := q.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
				return classify(err, "record migration "+m.Version)
			}
			return nil
		})
		if err != nil {
			return done, err
		}
		done = append(done, m.Version)
	}

	return done, nil
}

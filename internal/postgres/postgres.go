package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chantier/avancement/internal/config"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// IClient defines the transaction boundary used by the services
type IClient interface {
	// WithTx wraps the given function in a transaction. Nested calls reuse
	// the transaction found in the context.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

var _ IClient = (*DB)(nil)

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Querier interface defines all database operations
// Both *sqlx.DB and *sqlx.Tx implement these methods
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// NewDB connects to postgres, retrying with an exponential backoff until
// Postgres.ConnectTimeout elapses, and applies the migrations when
// Postgres.AutoMigrate is set.
func NewDB(cfg *config.Configuration, logger *logger.Logger) (*DB, error) {
	ctx := context.Background()
	dsn := cfg.Postgres.GetDSN()

	var conn *sqlx.DB
	operation := func() error {
		var err error
		conn, err = sqlx.ConnectContext(ctx, "postgres", dsn)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cfg.Postgres.ConnectTimeout
	err := backoff.RetryNotify(operation, b, func(err error, next time.Duration) {
		logger.Warnw("postgres not reachable yet, retrying",
			"host", cfg.Postgres.Host,
			"retry_in", next.String(),
			"error", err,
		)
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not connect to the database").
			Mark(ierr.ErrDatabase)
	}

	if cfg.Postgres.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	}
	if cfg.Postgres.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	}
	if cfg.Postgres.ConnMaxLifetimeMinutes > 0 {
		conn.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)
	}

	db := &DB{DB: conn, logger: logger}

	if cfg.Postgres.AutoMigrate {
		if _, err := db.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
	}
}

func (db *DB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

// GetQuerier returns either the transaction from context or the base DB
func (db *DB) GetQuerier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return NewTracedQuerier(tx.Tx, db.logger, tx.ID)
	}
	return NewTracedQuerier(db.DB, db.logger, "")
}

// InTx reports whether ctx carries a transaction
func InTx(ctx context.Context) bool {
	_, ok := GetTx(ctx)
	return ok
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLExecutor represents both sql.DB and sql.Tx
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB represents a database that can begin transactions
type DB interface {
	SQLExecutor
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Ensure sql.DB implements DB interface
var _ DB = (*sql.DB)(nil)

// Dialect names the SQL flavour; it matches the database/sql driver name.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default
	sqlx.BindDriver(string(SQLite), sqlx.QUESTION)
}

// Rebind rewrites ? placeholders into the driver's bind style ($N for Postgres).
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(string(d)), query)
}

// ForUpdate returns the row-locking suffix; SQLite serializes writers instead.
func (d Dialect) ForUpdate() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// boundExecutor rebinds every query for its dialect before handing it on.
type boundExecutor struct {
	exec    SQLExecutor
	dialect Dialect
}

func (b *boundExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return b.exec.ExecContext(ctx, b.dialect.Rebind(query), args...)
}

func (b *boundExecutor) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return b.exec.QueryContext(ctx, b.dialect.Rebind(query), args...)
}

func (b *boundExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return b.exec.QueryRowContext(ctx, b.dialect.Rebind(query), args...)
}

// Open connects to the database, tunes the pool for the dialect and creates the schema.
func Open(ctx context.Context, dialect Dialect, dsn string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	switch dialect {
	case SQLite:
		// one connection keeps ":memory:" databases alive and serializes writers
		db.SetMaxOpenConns(1)
	case Postgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	if err := Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("Successfully connected to database", "driver", dialect)
	}
	return db, nil
}

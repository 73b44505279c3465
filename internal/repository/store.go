package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"card-manager/internal/domain"
	"card-manager/internal/errors"
)

// Store provides a unified interface for all repository operations with transaction support
type Store struct {
	db       *sql.DB
	executor SQLExecutor
	dialect  Dialect
	logger   *slog.Logger
	inTx     bool
}

// NewStore creates a new Store instance
func NewStore(db *sql.DB, dialect Dialect, logger *slog.Logger) *Store {
	return &Store{
		db:       db,
		executor: &boundExecutor{exec: db, dialect: dialect},
		dialect:  dialect,
		logger:   logger,
	}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Account returns an AccountRepository using the current executor
func (s *Store) Account() domain.AccountRepository {
	return NewAccountRepository(s.executor, s.dialect, s.logger)
}

// Card returns a CardRepository using the current executor
func (s *Store) Card() domain.CardRepository {
	return NewCardRepository(s.executor, s.logger)
}

// Transaction returns a TransactionRepository using the current executor
func (s *Store) Transaction() domain.TransactionRepository {
	return NewTransactionRepository(s.executor, s.logger)
}

// Session returns the SQL-backed session store using the current executor
func (s *Store) Session() domain.SessionStore {
	return NewSessionRepository(s.executor, s.logger)
}

// WithTransaction executes a function within a database transaction
func (s *Store) WithTransaction(ctx context.Context, fn func(*Store) error) error {
	if s.inTx {
		return errors.ErrCannotBeginTransaction
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Internal("failed to begin transaction", err)
	}

	txStore := &Store{
		db:       s.db,
		executor: &boundExecutor{exec: tx, dialect: s.dialect},
		dialect:  s.dialect,
		logger:   s.logger,
		inTx:     true,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Internal("failed to commit transaction", err)
	}
	return nil
}

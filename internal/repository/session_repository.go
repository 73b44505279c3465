package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"

	"card-manager/internal/domain"
	"card-manager/internal/errors"
)

// sessionRepository keeps sessions in the sessions table, one row per user id.
type sessionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewSessionRepository(db SQLExecutor, logger *slog.Logger) domain.SessionStore {
	return &sessionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *sessionRepository) Put(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (user_id, token, expiration_time)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET token = excluded.token, expiration_time = excluded.expiration_time
	`

	if _, err := r.db.ExecContext(ctx, query, session.UserID, session.Token, session.ExpirationTime.UTC()); err != nil {
		r.logger.Error("Failed to store session", "user_id", session.UserID, "error", err)
		return errors.Internal("failed to store session", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, userID string) (*domain.Session, error) {
	query := `SELECT user_id, token, expiration_time FROM sessions WHERE user_id = ?`
	return r.scanSession(ctx, query, userID)
}

func (r *sessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `SELECT user_id, token, expiration_time FROM sessions WHERE token = ?`
	return r.scanSession(ctx, query, token)
}

func (r *sessionRepository) Remove(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		r.logger.Error("Failed to remove session", "user_id", userID, "error", err)
		return errors.Internal("failed to remove session", err)
	}
	return nil
}

func (r *sessionRepository) scanSession(ctx context.Context, query string, arg interface{}) (*domain.Session, error) {
	var session domain.Session
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&session.UserID, &session.Token, &session.ExpirationTime)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get session", "error", err)
		return nil, errors.Internal("failed to get session", err)
	}
	return &session, nil
}

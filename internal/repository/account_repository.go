package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"card-manager/internal/domain"
	"card-manager/internal/errors"
)

const accountColumns = `id, user_id, balance, password_hash, two_factor_enabled, verification_code, created_at`

type accountRepository struct {
	db      SQLExecutor
	dialect Dialect
	logger  *slog.Logger
}

func NewAccountRepository(db SQLExecutor, dialect Dialect, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}
}

func (r *accountRepository) Add(ctx context.Context, userID string) (int64, error) {
	query := `
		INSERT INTO accounts (user_id, balance, two_factor_enabled, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, userID, decimal.Zero.String(), false, time.Now().UTC()).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Warn("Duplicate account creation attempt", "user_id", userID)
			return 0, errors.ErrDuplicateAccount
		}
		r.logger.Error("Failed to create account", "user_id", userID, "error", err)
		return 0, errors.Internal("failed to create account", err)
	}

	r.logger.Info("Account created successfully", "user_id", userID, "id", id)
	return id, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		r.logger.Error("Failed to get account", "id", id, "error", err)
		return nil, errors.Internal("failed to get account", err)
	}
	return account, nil
}

func (r *accountRepository) GetByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ?`
	return r.getByUserID(ctx, query, userID)
}

func (r *accountRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ?` + r.dialect.ForUpdate()
	return r.getByUserID(ctx, query, userID)
}

func (r *accountRepository) getByUserID(ctx context.Context, query, userID string) (*domain.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		r.logger.Error("Failed to get account", "user_id", userID, "error", err)
		return nil, errors.Internal("failed to get account", err)
	}
	if account == nil {
		r.logger.Warn("Account not found", "user_id", userID)
	}
	return account, nil
}

func (r *accountRepository) GetAll(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, errors.Internal("failed to list accounts", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, errors.Internal("failed to scan account", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("failed to list accounts", err)
	}
	return accounts, nil
}

func (r *accountRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ?`, userID); err != nil {
		r.logger.Error("Failed to delete account", "user_id", userID, "error", err)
		return errors.Internal("failed to delete account", err)
	}

	r.logger.Info("Account deleted", "user_id", userID)
	return nil
}

func (r *accountRepository) UpdateBalance(ctx context.Context, userID string, balance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = ? WHERE user_id = ?`

	if err := r.updateOne(ctx, query, userID, balance.String(), userID); err != nil {
		return err
	}

	r.logger.Info("Account balance updated", "user_id", userID, "new_balance", balance)
	return nil
}

func (r *accountRepository) SetPasswordHash(ctx context.Context, userID, hash string) error {
	query := `UPDATE accounts SET password_hash = ? WHERE user_id = ?`

	if err := r.updateOne(ctx, query, userID, hash, userID); err != nil {
		return err
	}

	r.logger.Info("Account password updated", "user_id", userID)
	return nil
}

func (r *accountRepository) SetTwoFactor(ctx context.Context, userID string, enabled bool, code string) error {
	query := `UPDATE accounts SET two_factor_enabled = ?, verification_code = ? WHERE user_id = ?`

	var verificationCode interface{}
	if code != "" {
		verificationCode = code
	}

	if err := r.updateOne(ctx, query, userID, enabled, verificationCode, userID); err != nil {
		return err
	}

	r.logger.Info("Account two-factor updated", "user_id", userID, "enabled", enabled)
	return nil
}

// updateOne runs an UPDATE that must touch exactly the row for userID.
func (r *accountRepository) updateOne(ctx context.Context, query, userID string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update account", "user_id", userID, "error", err)
		return errors.Internal("failed to update account", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Internal("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		r.logger.Warn("No account found to update", "user_id", userID)
		return errors.ErrAccountNotFound
	}
	return nil
}

// scanAccount returns nil, nil when the row does not exist.
func scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var balanceStr string
	var passwordHash, verificationCode sql.NullString

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&balanceStr,
		&passwordHash,
		&account.TwoFactorEnabled,
		&verificationCode,
		&account.CreatedAt,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, err
	}

	account.Balance = balance
	account.PasswordHash = passwordHash.String
	account.VerificationCode = verificationCode.String
	return &account, nil
}

package repository

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"card-manager/internal/domain"
	"card-manager/internal/errors"
)

type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewTransactionRepository(db SQLExecutor, logger *slog.Logger) domain.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *transactionRepository) Add(ctx context.Context, record *domain.TransactionRecord) (int64, error) {
	query := `
		INSERT INTO transactions (user_id, amount, date, merchant, transaction_type)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`

	txType := record.Type
	if txType == "" {
		txType = domain.TransactionTypePurchase
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		record.UserID,
		record.Amount.String(),
		record.Date.UTC(),
		record.Merchant,
		txType,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to create transaction",
			"user_id", record.UserID,
			"amount", record.Amount,
			"merchant", record.Merchant,
			"error", err)
		return 0, errors.Internal("failed to create transaction", err)
	}

	record.ID = id
	record.Type = txType
	r.logger.Info("Transaction created successfully", "transaction_id", id, "user_id", record.UserID)
	return id, nil
}

// GetByUserID returns the user's rows in insertion order.
func (r *transactionRepository) GetByUserID(ctx context.Context, userID string) ([]domain.TransactionRecord, error) {
	query := `
		SELECT id, user_id, amount, date, merchant, transaction_type
		FROM transactions WHERE user_id = ? ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list transactions", "user_id", userID, "error", err)
		return nil, errors.Internal("failed to list transactions", err)
	}
	defer rows.Close()

	var records []domain.TransactionRecord
	for rows.Next() {
		var record domain.TransactionRecord
		var amountStr string
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&amountStr,
			&record.Date,
			&record.Merchant,
			&record.Type,
		); err != nil {
			return nil, errors.Internal("failed to scan transaction", err)
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, errors.Internal("failed to parse amount", err)
		}
		record.Amount = amount
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("failed to list transactions", err)
	}
	return records, nil
}

// Delete does not check which user owns the row; unknown ids are a no-op.
func (r *transactionRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		r.logger.Error("Failed to delete transaction", "transaction_id", id, "error", err)
		return errors.Internal("failed to delete transaction", err)
	}

	r.logger.Info("Transaction deleted", "transaction_id", id)
	return nil
}

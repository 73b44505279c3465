package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"time"

	"card-manager/internal/domain"
	"card-manager/internal/errors"
)

type cardRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewCardRepository(db SQLExecutor, logger *slog.Logger) domain.CardRepository {
	return &cardRepository{
		db:     db,
		logger: logger,
	}
}

func (r *cardRepository) Add(ctx context.Context, number string, expirationDate time.Time, cvv string) (int64, error) {
	query := `
		INSERT INTO credit_cards (number, expiration_date, cvv)
		VALUES (?, ?, ?)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, number, expirationDate.UTC(), cvv).Scan(&id); err != nil {
		r.logger.Error("Failed to create card", "error", err)
		return 0, errors.Internal("failed to create card", err)
	}

	r.logger.Info("Card created successfully", "card_id", id)
	return id, nil
}

func (r *cardRepository) GetByID(ctx context.Context, id int64) (*domain.CreditCard, error) {
	query := `SELECT id, number, expiration_date, cvv FROM credit_cards WHERE id = ?`

	card, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			r.logger.Warn("Card not found", "card_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to get card", "card_id", id, "error", err)
		return nil, errors.Internal("failed to get card", err)
	}
	return card, nil
}

func (r *cardRepository) GetAll(ctx context.Context) ([]domain.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, number, expiration_date, cvv FROM credit_cards ORDER BY id`)
	if err != nil {
		r.logger.Error("Failed to list cards", "error", err)
		return nil, errors.Internal("failed to list cards", err)
	}
	defer rows.Close()

	var cards []domain.CreditCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, errors.Internal("failed to scan card", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("failed to list cards", err)
	}
	return cards, nil
}

func (r *cardRepository) Update(ctx context.Context, card *domain.CreditCard) error {
	query := `UPDATE credit_cards SET number = ?, expiration_date = ?, cvv = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, card.Number, card.ExpirationDate.UTC(), card.CVV, card.ID)
	if err != nil {
		r.logger.Error("Failed to update card", "card_id", card.ID, "error", err)
		return errors.Internal("failed to update card", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Internal("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("No card found to update", "card_id", card.ID)
		return errors.ErrCardNotFound
	}

	r.logger.Info("Card updated", "card_id", card.ID)
	return nil
}

// Delete is a no-op for unknown ids.
func (r *cardRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credit_cards WHERE id = ?`, id); err != nil {
		r.logger.Error("Failed to delete card", "card_id", id, "error", err)
		return errors.Internal("failed to delete card", err)
	}

	r.logger.Info("Card deleted", "card_id", id)
	return nil
}

func scanCard(row rowScanner) (*domain.CreditCard, error) {
	var card domain.CreditCard
	if err := row.Scan(&card.ID, &card.Number, &card.ExpirationDate, &card.CVV); err != nil {
		return nil, err
	}
	return &card, nil
}

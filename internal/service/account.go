package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"card-manager/internal/auth"
	"card-manager/internal/domain"
	"card-manager/internal/errors"
	"card-manager/internal/repository"
)

// Account is a handle over one user's cards, transactions and balance.
// It holds no state besides the user id: every call goes to the store,
// so two handles for the same user are interchangeable.
type Account struct {
	UserID string

	store  *repository.Store
	logger *slog.Logger
}

func newAccount(userID string, store *repository.Store, logger *slog.Logger) *Account {
	return &Account{
		UserID: userID,
		store:  store,
		logger: logger,
	}
}

// BalanceFilter narrows BalanceV2. Zero-valued fields are not applied.
type BalanceFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      string
	Merchant  string
}

func (f BalanceFilter) matches(record domain.TransactionRecord) bool {
	if f.StartDate != nil && record.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && record.Date.After(*f.EndDate) {
		return false
	}
	if f.Type != "" && record.Type != f.Type {
		return false
	}
	if f.Merchant != "" && record.Merchant != f.Merchant {
		return false
	}
	return true
}

// AddCard stores a card without validating any field.
func (a *Account) AddCard(ctx context.Context, number string, expirationDate time.Time, cvv string) (int64, error) {
	return a.store.Card().Add(ctx, number, expirationDate, cvv)
}

func (a *Account) RemoveCard(ctx context.Context, cardID int64) error {
	return a.store.Card().Delete(ctx, cardID)
}

// GetCard returns nil, nil when no card has that id.
func (a *Account) GetCard(ctx context.Context, cardID int64) (*domain.CreditCard, error) {
	return a.store.Card().GetByID(ctx, cardID)
}

// AddTransaction records a purchase for this user. It does not change the balance.
func (a *Account) AddTransaction(ctx context.Context, amount decimal.Decimal, date time.Time, merchant string) (int64, error) {
	record, err := a.AddTransactionOfType(ctx, amount, date, merchant, domain.TransactionTypePurchase)
	if err != nil {
		return 0, err
	}
	return record.ID, nil
}

// AddTransactionOfType stores a transaction and returns the stored row.
// An empty txType is stored as a purchase.
func (a *Account) AddTransactionOfType(ctx context.Context, amount decimal.Decimal, date time.Time, merchant, txType string) (*domain.TransactionRecord, error) {
	return a.addRecord(ctx, domain.Transaction{
		UserID:   a.UserID,
		Amount:   amount,
		Date:     date,
		Merchant: merchant,
		Type:     txType,
	})
}

func (a *Account) addRecord(ctx context.Context, tx domain.Transaction) (*domain.TransactionRecord, error) {
	record := tx.Record()
	if _, err := a.store.Transaction().Add(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// RemoveTransaction deletes by id, whichever user the row belongs to.
func (a *Account) RemoveTransaction(ctx context.Context, transactionID int64) error {
	return a.store.Transaction().Delete(ctx, transactionID)
}

func (a *Account) Transactions(ctx context.Context) ([]domain.TransactionRecord, error) {
	return a.store.Transaction().GetByUserID(ctx, a.UserID)
}

// BalanceV2 sums stored transaction amounts that pass every filter.
// It is unrelated to Balance, which only UpdateBalance moves.
func (a *Account) BalanceV2(ctx context.Context, filter BalanceFilter) (decimal.Decimal, error) {
	records, err := a.Transactions(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, record := range records {
		if filter.matches(record) {
			sum = sum.Add(record.Amount)
		}
	}
	return sum, nil
}

// Balance returns the accumulator kept on the account row.
func (a *Account) Balance(ctx context.Context) (decimal.Decimal, error) {
	record, err := a.record(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return record.Balance, nil
}

// UpdateBalance adds the amount of a processed transaction and subtracts
// any other. There is no floor; the balance may go negative.
func (a *Account) UpdateBalance(ctx context.Context, tx domain.Transaction) error {
	record, err := a.store.Account().GetByUserIDForUpdate(ctx, a.UserID)
	if err != nil {
		return err
	}
	if record == nil {
		return errors.ErrAccountNotFound
	}

	balance := record.Balance
	if tx.PaymentProcessed {
		balance = balance.Add(tx.Amount)
	} else {
		balance = balance.Sub(tx.Amount)
	}

	a.logger.Info("Updating balance",
		"user_id", a.UserID,
		"amount", tx.Amount,
		"payment_processed", tx.PaymentProcessed,
		"new_balance", balance)
	return a.store.Account().UpdateBalance(ctx, a.UserID, balance)
}

// EnableTwoFactor turns two-factor on and issues a fresh code.
func (a *Account) EnableTwoFactor(ctx context.Context) (string, error) {
	code, err := auth.GenerateVerificationCode()
	if err != nil {
		return "", errors.Internal("failed to generate verification code", err)
	}
	if err := a.store.Account().SetTwoFactor(ctx, a.UserID, true, code); err != nil {
		return "", err
	}
	return code, nil
}

func (a *Account) DisableTwoFactor(ctx context.Context) error {
	return a.store.Account().SetTwoFactor(ctx, a.UserID, false, "")
}

// GenerateVerificationCode replaces the stored code and leaves the enabled flag alone.
func (a *Account) GenerateVerificationCode(ctx context.Context) (string, error) {
	record, err := a.record(ctx)
	if err != nil {
		return "", err
	}
	code, err := auth.GenerateVerificationCode()
	if err != nil {
		return "", errors.Internal("failed to generate verification code", err)
	}
	if err := a.store.Account().SetTwoFactor(ctx, a.UserID, record.TwoFactorEnabled, code); err != nil {
		return "", err
	}
	return code, nil
}

func (a *Account) ValidateVerificationCode(ctx context.Context, code string) (bool, error) {
	record, err := a.record(ctx)
	if err != nil {
		return false, err
	}
	return record.ValidateVerificationCode(code), nil
}

func (a *Account) record(ctx context.Context) (*domain.Account, error) {
	record, err := a.store.Account().GetByUserID(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.ErrAccountNotFound
	}
	return record, nil
}

package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypePurchase = "purchase"
	TransactionTypeRefund   = "refund"
)

// Transaction is an in-memory payment. PaymentProcessed is never stored.
type Transaction struct {
	UserID           string          `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	Date             time.Time       `json:"date"`
	Merchant         string          `json:"merchant"`
	Type             string          `json:"type"`
	PaymentProcessed bool            `json:"payment_processed"`
}

func NewTransaction(userID string, amount decimal.Decimal, date time.Time, merchant string) Transaction {
	return Transaction{
		UserID:   userID,
		Amount:   amount,
		Date:     date,
		Merchant: merchant,
		Type:     TransactionTypePurchase,
	}
}

// Details renders the transaction for log lines.
func (t Transaction) Details() string {
	return fmt.Sprintf("Amount: %s, Date: %s, Merchant: %s, Payment Processed: %t",
		t.Amount.StringFixed(2), t.Date.Format(time.RFC3339), t.Merchant, t.PaymentProcessed)
}

// Record converts the transaction to the row shape the store persists.
// An empty Type is filled in by the store.
func (t Transaction) Record() *TransactionRecord {
	return &TransactionRecord{
		UserID:   t.UserID,
		Amount:   t.Amount,
		Date:     t.Date,
		Merchant: t.Merchant,
		Type:     t.Type,
	}
}

// TransactionRecord is a stored transaction row.
type TransactionRecord struct {
	ID       int64           `json:"id"`
	UserID   string          `json:"user_id"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
	Merchant string          `json:"merchant"`
	Type     string          `json:"type"`
}

type TransactionRepository interface {
	Add(ctx context.Context, record *TransactionRecord) (int64, error)
	GetByUserID(ctx context.Context, userID string) ([]TransactionRecord, error)
	Delete(ctx context.Context, id int64) error
}

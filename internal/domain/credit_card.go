package domain

import (
	"context"
	"time"
)

// CreditCard is a stored card. Numbers and CVVs are kept as given.
type CreditCard struct {
	ID             int64     `json:"id"`
	Number         string    `json:"number"`
	ExpirationDate time.Time `json:"expiration_date"`
	CVV            string    `json:"cvv"`
}

// MaskedNumber returns the number as ****-****-****-1234.
func (c *CreditCard) MaskedNumber() string {
	last := c.Number
	if len(last) > 4 {
		last = last[len(last)-4:]
	}
	return "****-****-****-" + last
}

// IsExpired reports whether the card expired before now.
func (c *CreditCard) IsExpired() bool {
	return c.IsExpiredAt(time.Now())
}

func (c *CreditCard) IsExpiredAt(now time.Time) bool {
	return now.After(c.ExpirationDate)
}

func (c *CreditCard) SetExpirationDate(t time.Time) {
	c.ExpirationDate = t
}

func (c *CreditCard) SetCVV(cvv string) {
	c.CVV = cvv
}

type CardRepository interface {
	Add(ctx context.Context, number string, expirationDate time.Time, cvv string) (int64, error)
	GetByID(ctx context.Context, id int64) (*CreditCard, error)
	GetAll(ctx context.Context) ([]CreditCard, error)
	Update(ctx context.Context, card *CreditCard) error
	Delete(ctx context.Context, id int64) error
}

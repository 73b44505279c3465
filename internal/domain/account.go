package domain

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a stored account row. Cards and transactions are looked up by UserID.
type Account struct {
	ID               int64           `json:"id"`
	UserID           string          `json:"user_id"`
	Balance          decimal.Decimal `json:"balance"`
	PasswordHash     string          `json:"-"`
	TwoFactorEnabled bool            `json:"two_factor_enabled"`
	VerificationCode string          `json:"-"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ValidateVerificationCode reports whether two-factor is on and code matches the stored one.
// Codes do not expire and may be reused.
func (a *Account) ValidateVerificationCode(code string) bool {
	if !a.TwoFactorEnabled || a.VerificationCode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(a.VerificationCode)) == 1
}

// AccountRepository returns nil, nil for lookups that find no row.
type AccountRepository interface {
	Add(ctx context.Context, userID string) (int64, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByUserID(ctx context.Context, userID string) (*Account, error)
	GetByUserIDForUpdate(ctx context.Context, userID string) (*Account, error)
	GetAll(ctx context.Context) ([]Account, error)
	Delete(ctx context.Context, userID string) error
	UpdateBalance(ctx context.Context, userID string, balance decimal.Decimal) error
	SetPasswordHash(ctx context.Context, userID, hash string) error
	SetTwoFactor(ctx context.Context, userID string, enabled bool, code string) error
}

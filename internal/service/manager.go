package service

import (
	"context"
	"crypto/subtle"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"card-manager/internal/auth"
	"card-manager/internal/domain"
	"card-manager/internal/errors"
	"card-manager/internal/repository"
)

// Manager is the entry point for accounts, sessions and payments.
type Manager struct {
	store    *repository.Store
	sessions domain.SessionStore
	logger   *slog.Logger
	now      func() time.Time

	mu             sync.Mutex
	authorizations map[string]string
}

func NewManager(store *repository.Store, sessions domain.SessionStore, logger *slog.Logger) *Manager {
	return &Manager{
		store:          store,
		sessions:       sessions,
		logger:         logger,
		now:            time.Now,
		authorizations: make(map[string]string),
	}
}

// PaymentRequest names the card to charge explicitly by id.
type PaymentRequest struct {
	UserID     string
	CardID     int64
	CardNumber string
	Amount     decimal.Decimal
	Merchant   string
}

func (m *Manager) CreateAccount(ctx context.Context, userID string) (*Account, error) {
	m.logger.Info("Creating account", "user_id", userID)

	if _, err := m.store.Account().Add(ctx, userID); err != nil {
		return nil, err
	}
	return m.GetAccount(ctx, userID)
}

// GetAccount returns a fresh handle, or nil, nil when the user has no account.
func (m *Manager) GetAccount(ctx context.Context, userID string) (*Account, error) {
	record, err := m.store.Account().GetByUserID(ctx, userID)
	if err != nil || record == nil {
		return nil, err
	}
	return newAccount(record.UserID, m.store, m.logger), nil
}

// RemoveAccount deletes the account row only; cards and transactions stay.
func (m *Manager) RemoveAccount(ctx context.Context, userID string) error {
	account, err := m.GetAccount(ctx, userID)
	if err != nil || account == nil {
		return err
	}

	m.logger.Info("Removing account", "user_id", userID)
	return m.store.Account().Delete(ctx, account.UserID)
}

func (m *Manager) ListAccounts(ctx context.Context) ([]string, error) {
	accounts, err := m.store.Account().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(accounts))
	for _, account := range accounts {
		userIDs = append(userIDs, account.UserID)
	}
	return userIDs, nil
}

// CreateSession issues a token for userID, replacing any session the user had.
func (m *Manager) CreateSession(ctx context.Context, userID string) (string, error) {
	session, err := domain.NewSessionAt(userID, m.now())
	if err != nil {
		return "", errors.Internal("failed to create session", err)
	}
	if err := m.sessions.Put(ctx, session); err != nil {
		return "", err
	}

	m.logger.Info("Session created", "user_id", userID, "expires_at", session.ExpirationTime)
	return session.Token, nil
}

// GetSession returns the session for token if it is still valid.
// Expired sessions stay stored until invalidated or replaced.
func (m *Manager) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	session, err := m.sessions.FindByToken(ctx, token)
	if err != nil || session == nil {
		return nil, err
	}
	if !session.IsValidAt(m.now()) {
		return nil, nil
	}
	return session, nil
}

// InvalidateSession removes the session holding token; unknown tokens are ignored.
func (m *Manager) InvalidateSession(ctx context.Context, token string) error {
	session, err := m.sessions.FindByToken(ctx, token)
	if err != nil || session == nil {
		return err
	}

	m.logger.Info("Session invalidated", "user_id", session.UserID)
	return m.sessions.Remove(ctx, session.UserID)
}

// AuthorizeSession issues a second, independent token keyed by user id.
func (m *Manager) AuthorizeSession(userID string) (string, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", errors.Internal("failed to create authorization token", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.authorizations[userID] = token
	return token, nil
}

func (m *Manager) IsAuthorized(userID, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.authorizations[userID]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(current), []byte(token)) == 1
}

// InitiatePayment charges the card identified by req.CardID when its number
// equals req.CardNumber. On a match it raises the balance by the amount and
// records a processed purchase, both in one database transaction. It returns
// false without error when the account or card is missing or the numbers differ.
func (m *Manager) InitiatePayment(ctx context.Context, req PaymentRequest) (bool, error) {
	m.logger.Info("Processing payment",
		"user_id", req.UserID,
		"card_id", req.CardID,
		"amount", req.Amount,
		"merchant", req.Merchant)

	var paid bool
	err := m.store.WithTransaction(ctx, func(tx *repository.Store) error {
		record, err := tx.Account().GetByUserIDForUpdate(ctx, req.UserID)
		if err != nil {
			return err
		}
		if record == nil {
			m.logger.Warn("Payment declined: account not found", "user_id", req.UserID)
			return nil
		}

		account := newAccount(record.UserID, tx, m.logger)
		card, err := account.GetCard(ctx, req.CardID)
		if err != nil {
			return err
		}
		if card == nil || card.Number != req.CardNumber {
			m.logger.Warn("Payment declined: card mismatch", "user_id", req.UserID, "card_id", req.CardID)
			return nil
		}

		transaction := domain.NewTransaction(account.UserID, req.Amount, m.now(), req.Merchant)
		transaction.PaymentProcessed = true

		if err := account.UpdateBalance(ctx, transaction); err != nil {
			return err
		}
		if _, err := account.addRecord(ctx, transaction); err != nil {
			return err
		}

		m.logger.Info("Payment recorded", "user_id", account.UserID, "transaction", transaction.Details())
		paid = true
		return nil
	})
	if err != nil {
		m.logger.Error("Payment failed", "user_id", req.UserID, "error", err)
		return false, err
	}

	if paid {
		m.logger.Info("Payment completed successfully", "user_id", req.UserID, "amount", req.Amount)
	}
	return paid, nil
}

// AuthenticateUser checks password against the account's stored bcrypt hash.
// Accounts without a password never authenticate.
func (m *Manager) AuthenticateUser(ctx context.Context, userID, password string) (bool, error) {
	record, err := m.store.Account().GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	return auth.CheckPasswordHash(password, record.PasswordHash), nil
}

func (m *Manager) SetPassword(ctx context.Context, userID, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		if stderrors.Is(err, auth.ErrEmptyPassword) {
			return errors.ErrInvalidInput.WithDetails(err.Error())
		}
		return errors.Internal("failed to hash password", err)
	}
	return m.store.Account().SetPasswordHash(ctx, userID, hash)
}

func (m *Manager) EnableTwoFactor(ctx context.Context, userID string) (string, error) {
	account, err := m.requireAccount(ctx, userID)
	if err != nil {
		return "", err
	}
	return account.EnableTwoFactor(ctx)
}

func (m *Manager) DisableTwoFactor(ctx context.Context, userID string) error {
	account, err := m.requireAccount(ctx, userID)
	if err != nil {
		return err
	}
	return account.DisableTwoFactor(ctx)
}

// VerifyTwoFactorCode returns false for unknown users.
func (m *Manager) VerifyTwoFactorCode(ctx context.Context, userID, code string) (bool, error) {
	account, err := m.GetAccount(ctx, userID)
	if err != nil || account == nil {
		return false, err
	}
	return account.ValidateVerificationCode(ctx, code)
}

// Ping checks the backing database.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *Manager) requireAccount(ctx context.Context, userID string) (*Account, error) {
	account, err := m.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errors.ErrAccountNotFound
	}
	return account, nil
}

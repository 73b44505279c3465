package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"card-manager/internal/domain"
	"card-manager/internal/errors"
)

type AccountTestSuite struct {
	suite.Suite
	manager *Manager
	account *Account
	ctx     context.Context
}

func (suite *AccountTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.manager, _ = newTestManager(suite.T())

	account, err := suite.manager.CreateAccount(suite.ctx, "user123")
	require.NoError(suite.T(), err)
	suite.account = account
}

func (suite *AccountTestSuite) date(day int) time.Time {
	return time.Date(2024, 5, day, 12, 0, 0, 0, time.UTC)
}

func (suite *AccountTestSuite) addTransaction(amount string, day int, merchant, txType string) {
	_, err := suite.account.AddTransactionOfType(suite.ctx, decimal.RequireFromString(amount), suite.date(day), merchant, txType)
	require.NoError(suite.T(), err)
}

func (suite *AccountTestSuite) TestCards() {
	expiry := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	id, err := suite.account.AddCard(suite.ctx, "1234567890123456", expiry, "123")
	require.NoError(suite.T(), err)

	card, err := suite.account.GetCard(suite.ctx, id)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), card)
	assert.Equal(suite.T(), "****-****-****-3456", card.MaskedNumber())

	require.NoError(suite.T(), suite.account.RemoveCard(suite.ctx, id))
	card, err = suite.account.GetCard(suite.ctx, id)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), card)

	assert.NoError(suite.T(), suite.account.RemoveCard(suite.ctx, 12345), "unknown card id is a no-op")
}

func (suite *AccountTestSuite) TestAddTransactionDoesNotTouchBalance() {
	_, err := suite.account.AddTransaction(suite.ctx, decimal.NewFromInt(100), suite.date(1), "Amazon")
	require.NoError(suite.T(), err)

	balance, err := suite.account.Balance(suite.ctx)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), balance.IsZero())

	records, err := suite.account.Transactions(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), records, 1)
	assert.Equal(suite.T(), "user123", records[0].UserID)
	assert.Equal(suite.T(), domain.TransactionTypePurchase, records[0].Type)
}

func (suite *AccountTestSuite) TestAddTransactionOfTypeReturnsStoredRow() {
	record, err := suite.account.AddTransactionOfType(suite.ctx, decimal.NewFromInt(5), suite.date(1), "Cafe", "")
	require.NoError(suite.T(), err)
	assert.NotZero(suite.T(), record.ID)
	assert.Equal(suite.T(), "user123", record.UserID)
	assert.Equal(suite.T(), domain.TransactionTypePurchase, record.Type, "empty type is stored as purchase")

	refund, err := suite.account.AddTransactionOfType(suite.ctx, decimal.NewFromInt(5), suite.date(2), "Cafe", domain.TransactionTypeRefund)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.TransactionTypeRefund, refund.Type)
}

func (suite *AccountTestSuite) TestTransactionsInInsertionOrder() {
	suite.addTransaction("1", 3, "C", domain.TransactionTypePurchase)
	suite.addTransaction("2", 1, "A", domain.TransactionTypePurchase)
	suite.addTransaction("3", 2, "B", domain.TransactionTypePurchase)

	records, err := suite.account.Transactions(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), records, 3)
	assert.Equal(suite.T(), []string{"C", "A", "B"}, []string{records[0].Merchant, records[1].Merchant, records[2].Merchant})
}

func (suite *AccountTestSuite) TestRemoveTransaction() {
	id, err := suite.account.AddTransaction(suite.ctx, decimal.NewFromInt(10), suite.date(1), "Cafe")
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.account.RemoveTransaction(suite.ctx, id))
	records, err := suite.account.Transactions(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), records)
}

func (suite *AccountTestSuite) TestBalanceV2() {
	suite.addTransaction("100.0", 1, "Amazon", domain.TransactionTypePurchase)
	suite.addTransaction("50.0", 2, "Online Store", domain.TransactionTypePurchase)

	all, err := suite.account.BalanceV2(suite.ctx, BalanceFilter{})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), all.Equal(decimal.NewFromInt(150)), "got %s", all)

	amazon, err := suite.account.BalanceV2(suite.ctx, BalanceFilter{Merchant: "Amazon"})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), amazon.Equal(decimal.NewFromInt(100)), "got %s", amazon)
}

func (suite *AccountTestSuite) TestBalanceV2Filters() {
	suite.addTransaction("10", 1, "Amazon", domain.TransactionTypePurchase)
	suite.addTransaction("20", 2, "Amazon", domain.TransactionTypeRefund)
	suite.addTransaction("40", 3, "Cafe", domain.TransactionTypePurchase)
	suite.addTransaction("80", 4, "Amazon", domain.TransactionTypePurchase)

	start := suite.date(2)
	end := suite.date(3)
	noMatchStart := suite.date(10)

	tests := []struct {
		name   string
		filter BalanceFilter
		want   string
	}{
		{"no filters", BalanceFilter{}, "150"},
		{"inclusive date range", BalanceFilter{StartDate: &start, EndDate: &end}, "60"},
		{"start only", BalanceFilter{StartDate: &start}, "140"},
		{"end only", BalanceFilter{EndDate: &end}, "70"},
		{"type", BalanceFilter{Type: domain.TransactionTypeRefund}, "20"},
		{"merchant and type", BalanceFilter{Merchant: "Amazon", Type: domain.TransactionTypePurchase}, "90"},
		{"all filters", BalanceFilter{StartDate: &start, EndDate: &end, Merchant: "Cafe", Type: domain.TransactionTypePurchase}, "40"},
		{"nothing matches", BalanceFilter{StartDate: &noMatchStart}, "0"},
		{"unknown merchant", BalanceFilter{Merchant: "Nobody"}, "0"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			got, err := suite.account.BalanceV2(suite.ctx, tt.filter)
			require.NoError(suite.T(), err)
			assert.True(suite.T(), got.Equal(decimal.RequireFromString(tt.want)), "want %s got %s", tt.want, got)
		})
	}
}

func (suite *AccountTestSuite) TestUpdateBalance() {
	processed := domain.NewTransaction("user123", decimal.NewFromInt(50), time.Now(), "Shop")
	processed.PaymentProcessed = true

	require.NoError(suite.T(), suite.account.UpdateBalance(suite.ctx, processed))
	balance, err := suite.account.Balance(suite.ctx)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), balance.Equal(decimal.NewFromInt(50)))

	unprocessed := domain.NewTransaction("user123", decimal.NewFromInt(50), time.Now(), "Shop")
	require.NoError(suite.T(), suite.account.UpdateBalance(suite.ctx, unprocessed))
	require.NoError(suite.T(), suite.account.UpdateBalance(suite.ctx, unprocessed))

	balance, err = suite.account.Balance(suite.ctx)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), balance.Equal(decimal.NewFromInt(-50)), "balance may go negative, got %s", balance)
}

func (suite *AccountTestSuite) TestBalanceAndBalanceV2AreIndependent() {
	suite.addTransaction("100", 1, "Amazon", domain.TransactionTypePurchase)

	processed := domain.NewTransaction("user123", decimal.NewFromInt(7), time.Now(), "Shop")
	processed.PaymentProcessed = true
	require.NoError(suite.T(), suite.account.UpdateBalance(suite.ctx, processed))

	balance, err := suite.account.Balance(suite.ctx)
	require.NoError(suite.T(), err)
	v2, err := suite.account.BalanceV2(suite.ctx, BalanceFilter{})
	require.NoError(suite.T(), err)

	assert.True(suite.T(), balance.Equal(decimal.NewFromInt(7)))
	assert.True(suite.T(), v2.Equal(decimal.NewFromInt(100)))
}

func (suite *AccountTestSuite) TestHandlesAreInterchangeable() {
	other, err := suite.manager.GetAccount(suite.ctx, "user123")
	require.NoError(suite.T(), err)
	assert.NotSame(suite.T(), suite.account, other)
	assert.Equal(suite.T(), suite.account.UserID, other.UserID)

	processed := domain.NewTransaction("user123", decimal.NewFromInt(5), time.Now(), "Shop")
	processed.PaymentProcessed = true
	require.NoError(suite.T(), other.UpdateBalance(suite.ctx, processed))

	balance, err := suite.account.Balance(suite.ctx)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), balance.Equal(decimal.NewFromInt(5)))
}

func (suite *AccountTestSuite) TestTwoFactor() {
	ok, err := suite.account.ValidateVerificationCode(suite.ctx, "000000")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok, "disabled two-factor never validates")

	code, err := suite.account.EnableTwoFactor(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), code, 6)

	ok, err = suite.account.ValidateVerificationCode(suite.ctx, code)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)

	ok, err = suite.account.ValidateVerificationCode(suite.ctx, code)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok, "codes can be replayed")

	fresh, err := suite.account.GenerateVerificationCode(suite.ctx)
	require.NoError(suite.T(), err)
	ok, err = suite.account.ValidateVerificationCode(suite.ctx, fresh)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)

	require.NoError(suite.T(), suite.account.DisableTwoFactor(suite.ctx))
	ok, err = suite.account.ValidateVerificationCode(suite.ctx, fresh)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *AccountTestSuite) TestRemovedAccountHandle() {
	require.NoError(suite.T(), suite.manager.RemoveAccount(suite.ctx, "user123"))

	_, err := suite.account.Balance(suite.ctx)
	assert.ErrorIs(suite.T(), err, errors.ErrAccountNotFound)

	err = suite.account.UpdateBalance(suite.ctx, domain.NewTransaction("user123", decimal.NewFromInt(1), time.Now(), "Shop"))
	assert.ErrorIs(suite.T(), err, errors.ErrAccountNotFound)
}

func TestAccountSuite(t *testing.T) {
	suite.Run(t, new(AccountTestSuite))
}

package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	AccountNotFound     ErrorCode = "account_not_found"
	CardNotFound        ErrorCode = "card_not_found"
	SessionNotFound     ErrorCode = "session_not_found"
	DuplicateAccount    ErrorCode = "duplicate_account"
	InvalidInput        ErrorCode = "invalid_input"
	InvalidAmount       ErrorCode = "invalid_amount"
	InvalidCredentials  ErrorCode = "invalid_credentials"
	InvalidCode         ErrorCode = "invalid_verification_code"
	PaymentDeclined     ErrorCode = "payment_declined"
	InternalError       ErrorCode = "internal_error"
	TransactionRequired ErrorCode = "transaction_required"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails returns a copy carrying details, so the predefined errors below stay untouched.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Is matches on code, which lets errors.Is compare a detailed copy against a predefined error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus maps the error code to a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case AccountNotFound, CardNotFound, SessionNotFound:
		return http.StatusNotFound
	case DuplicateAccount:
		return http.StatusConflict
	case InvalidInput, InvalidAmount:
		return http.StatusBadRequest
	case InvalidCredentials, InvalidCode:
		return http.StatusUnauthorized
	case PaymentDeclined:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Internal wraps a storage or runtime failure.
func Internal(message string, err error) *AppError {
	return NewAppError(InternalError, message).WithDetails(err.Error())
}

// Predefined errors for common cases
var (
	ErrAccountNotFound        = NewAppError(AccountNotFound, "account not found")
	ErrCardNotFound           = NewAppError(CardNotFound, "card not found")
	ErrSessionNotFound        = NewAppError(SessionNotFound, "session not found or expired")
	ErrDuplicateAccount       = NewAppError(DuplicateAccount, "account already exists")
	ErrInvalidInput           = NewAppError(InvalidInput, "invalid input")
	ErrInvalidAmount          = NewAppError(InvalidAmount, "invalid amount")
	ErrInvalidCredentials     = NewAppError(InvalidCredentials, "invalid credentials")
	ErrInvalidCode            = NewAppError(InvalidCode, "invalid verification code")
	ErrPaymentDeclined        = NewAppError(PaymentDeclined, "payment declined")
	ErrCannotBeginTransaction = NewAppError(TransactionRequired, "cannot begin a transaction inside a transaction")
)

package handler

import (
	"net/http"
	"time"

	"card-manager/internal/domain"
	"card-manager/internal/errors"
	"card-manager/internal/service"

	"github.com/shopspring/decimal"
)

type TransactionHandler struct {
	manager *service.Manager
}

func NewTransactionHandler(manager *service.Manager) *TransactionHandler {
	return &TransactionHandler{
		manager: manager,
	}
}

type AddTransactionRequest struct {
	Amount   string `json:"amount"`
	Date     string `json:"date"`
	Merchant string `json:"merchant"`
	Type     string `json:"type,omitempty"`
}

type TransactionResponse struct {
	TransactionID int64  `json:"transaction_id"`
	UserID        string `json:"user_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Merchant      string `json:"merchant"`
	Type          string `json:"type"`
}

// AddTransaction records a transaction without touching the stored balance.
// A missing date means now.
func (h *TransactionHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req AddTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.ErrInvalidAmount.WithDetails(err.Error()))
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		var appErr *errors.AppError
		if date, appErr = parseTime(req.Date, "date"); appErr != nil {
			writeError(w, appErr)
			return
		}
	}

	account, err := loadAccount(r.Context(), h.manager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	record, err := account.AddTransactionOfType(r.Context(), amount, date, req.Merchant, req.Type)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, transactionResponse(*record))
}

func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	account, err := loadAccount(r.Context(), h.manager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	records, err := account.Transactions(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	response := make([]TransactionResponse, 0, len(records))
	for _, record := range records {
		response = append(response, transactionResponse(record))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *TransactionHandler) RemoveTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, ok := pathID(w, r, "transaction_id")
	if !ok {
		return
	}

	account, err := loadAccount(r.Context(), h.manager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	if err := account.RemoveTransaction(r.Context(), transactionID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func transactionResponse(record domain.TransactionRecord) TransactionResponse {
	return TransactionResponse{
		TransactionID: record.ID,
		UserID:        record.UserID,
		Amount:        record.Amount.String(),
		Date:          record.Date.UTC().Format(time.RFC3339),
		Merchant:      record.Merchant,
		Type:          record.Type,
	}
}

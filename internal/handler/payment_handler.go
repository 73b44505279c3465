package handler

import (
	"net/http"

	"card-manager/internal/errors"
	"card-manager/internal/service"

	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	manager *service.Manager
}

func NewPaymentHandler(manager *service.Manager) *PaymentHandler {
	return &PaymentHandler{
		manager: manager,
	}
}

type PaymentRequest struct {
	UserID     string `json:"user_id"`
	CardID     int64  `json:"card_id"`
	CardNumber string `json:"card_number"`
	Amount     string `json:"amount"`
	Merchant   string `json:"merchant"`
}

type PaymentResponse struct {
	UserID   string `json:"user_id"`
	Amount   string `json:"amount"`
	Merchant string `json:"merchant"`
	Status   string `json:"status"`
}

func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.ErrInvalidAmount.WithDetails(err.Error()))
		return
	}

	paid, err := h.manager.InitiatePayment(r.Context(), service.PaymentRequest{
		UserID:     req.UserID,
		CardID:     req.CardID,
		CardNumber: req.CardNumber,
		Amount:     amount,
		Merchant:   req.Merchant,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	if !paid {
		writeError(w, errors.ErrPaymentDeclined.WithDetails("account, card or card number did not match"))
		return
	}

	writeJSON(w, http.StatusCreated, PaymentResponse{
		UserID:   req.UserID,
		Amount:   amount.String(),
		Merchant: req.Merchant,
		Status:   "completed",
	})
}

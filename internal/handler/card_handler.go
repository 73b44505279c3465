package handler

import (
	"net/http"
	"time"

	"card-manager/internal/errors"
	"card-manager/internal/service"
)

type CardHandler struct {
	manager *service.Manager
}

func NewCardHandler(manager *service.Manager) *CardHandler {
	return &CardHandler{
		manager: manager,
	}
}

type AddCardRequest struct {
	Number         string `json:"number"`
	ExpirationDate string `json:"expiration_date"`
	CVV            string `json:"cvv"`
}

type CardResponse struct {
	CardID         int64  `json:"card_id"`
	MaskedNumber   string `json:"masked_number,omitempty"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	Expired        bool   `json:"expired"`
}

func (h *CardHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	var req AddCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	expiration, appErr := parseTime(req.ExpirationDate, "expiration_date")
	if appErr != nil {
		writeError(w, appErr)
		return
	}

	account, err := loadAccount(r.Context(), h.manager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	cardID, err := account.AddCard(r.Context(), req.Number, expiration, req.CVV)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CardResponse{CardID: cardID})
}

// GetCard never returns the full number or the CVV.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "card_id")
	if !ok {
		return
	}

	account, err := loadAccount(r.Context(), h.manager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	card, err := account.GetCard(r.Context(), cardID)
	if err != nil {
		handleError(w, err)
		return
	}
	if card == nil {
		writeError(w, errors.ErrCardNotFound)
		return
	}

	writeJSON(w, http.StatusOK, CardResponse{
		CardID:         card.ID,
		MaskedNumber:   card.MaskedNumber(),
		ExpirationDate: card.ExpirationDate.Format(time.RFC3339),
		Expired:        card.IsExpired(),
	})
}

func (h *CardHandler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	cardID, ok := pathID(w, r, "card_id")
	if !ok {
		return
	}

	account, err := loadAccount(r.Context(), h.manager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	if err := account.RemoveCard(r.Context(), cardID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"net/http"
	"time"

	"card-manager/internal/errors"
	"card-manager/internal/service"

	"github.com/gorilla/mux"
)

type AccountHandler struct {
	manager *service.Manager
}

func NewAccountHandler(manager *service.Manager) *AccountHandler {
	return &AccountHandler{
		manager: manager,
	}
}

type CreateAccountRequest struct {
	UserID string `json:"user_id"`
}

type AccountResponse struct {
	UserID  string `json:"user_id"`
	Balance string `json:"balance"`
}

type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance string `json:"balance"`
}

type SetPasswordRequest struct {
	Password string `json:"password"`
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, errors.ErrInvalidInput.WithDetails("user_id is required"))
		return
	}

	account, err := h.manager.CreateAccount(r.Context(), req.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AccountResponse{UserID: account.UserID, Balance: "0"})
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userIDs, err := h.manager.ListAccounts(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userIDs)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := loadAccount(r.Context(), h.manager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	balance, err := account.Balance(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AccountResponse{UserID: account.UserID, Balance: balance.String()})
}

func (h *AccountHandler) RemoveAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.RemoveAccount(r.Context(), mux.Vars(r)["user_id"]); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBalance sums stored transactions. Query parameters start_date and
// end_date are RFC3339 and inclusive; type and merchant match exactly.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := service.BalanceFilter{
		Type:     query.Get("type"),
		Merchant: query.Get("merchant"),
	}

	bounds := []struct {
		field  string
		target **time.Time
	}{
		{"start_date", &filter.StartDate},
		{"end_date", &filter.EndDate},
	}
	for _, bound := range bounds {
		value := query.Get(bound.field)
		if value == "" {
			continue
		}
		t, appErr := parseTime(value, bound.field)
		if appErr != nil {
			writeError(w, appErr)
			return
		}
		*bound.target = &t
	}

	account, err := loadAccount(r.Context(), h.manager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	balance, err := account.BalanceV2(r.Context(), filter)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{UserID: account.UserID, Balance: balance.String()})
}

func (h *AccountHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req SetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.manager.SetPassword(r.Context(), mux.Vars(r)["user_id"], req.Password); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"card-manager/internal/errors"
	"card-manager/internal/service"

	"github.com/gorilla/mux"
)

type TwoFactorHandler struct {
	manager *service.Manager
}

func NewTwoFactorHandler(manager *service.Manager) *TwoFactorHandler {
	return &TwoFactorHandler{
		manager: manager,
	}
}

type TwoFactorResponse struct {
	UserID           string `json:"user_id"`
	VerificationCode string `json:"verification_code"`
}

type VerifyCodeRequest struct {
	Code string `json:"code"`
}

type VerifyCodeResponse struct {
	UserID   string `json:"user_id"`
	Verified bool   `json:"verified"`
}

// Enable returns the code in the response body; there is no delivery channel.
func (h *TwoFactorHandler) Enable(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	code, err := h.manager.EnableTwoFactor(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TwoFactorResponse{UserID: userID, VerificationCode: code})
}

func (h *TwoFactorHandler) Disable(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.DisableTwoFactor(r.Context(), mux.Vars(r)["user_id"]); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TwoFactorHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := mux.Vars(r)["user_id"]
	ok, err := h.manager.VerifyTwoFactorCode(r.Context(), userID, req.Code)
	if err != nil {
		handleError(w, err)
		return
	}
	if !ok {
		writeError(w, errors.ErrInvalidCode)
		return
	}

	writeJSON(w, http.StatusOK, VerifyCodeResponse{UserID: userID, Verified: true})
}

package handler

import (
	"net/http"
	"time"

	"card-manager/internal/errors"
	"card-manager/internal/service"

	"github.com/gorilla/mux"
)

type SessionHandler struct {
	manager *service.Manager
}

func NewSessionHandler(manager *service.Manager) *SessionHandler {
	return &SessionHandler{
		manager: manager,
	}
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

type SessionResponse struct {
	UserID         string `json:"user_id"`
	Token          string `json:"token,omitempty"`
	ExpirationTime string `json:"expiration_time,omitempty"`
}

// Login authenticates against the stored password hash and opens a session,
// replacing any session the user already had.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ok, err := h.manager.AuthenticateUser(r.Context(), req.UserID, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}
	if !ok {
		writeError(w, errors.ErrInvalidCredentials)
		return
	}

	token, err := h.manager.CreateSession(r.Context(), req.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{UserID: req.UserID, Token: token})
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.GetSession(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		handleError(w, err)
		return
	}
	if session == nil {
		writeError(w, errors.ErrSessionNotFound)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		UserID:         session.UserID,
		ExpirationTime: session.ExpirationTime.UTC().Format(time.RFC3339),
	})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.InvalidateSession(r.Context(), mux.Vars(r)["token"]); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

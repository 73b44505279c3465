package handler

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"card-manager/internal/errors"
	"card-manager/internal/service"

	"github.com/gorilla/mux"
)

type Response struct {
	Data  interface{} `json:"data,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := Response{Data: data}
	json.NewEncoder(w).Encode(response)
}

func writeError(w http.ResponseWriter, appErr *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")

	statusCode := appErr.HTTPStatus()
	errResponse := Error{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: appErr.Details,
	}

	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{Error: &errResponse})
}

// handleError writes err as an AppError, hiding anything the service layer did not classify.
func handleError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		writeError(w, appErr)
		return
	}
	writeError(w, errors.NewAppError(errors.InternalError, "an unexpected error occurred"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		writeError(w, errors.NewAppErrorf(errors.InvalidInput, "invalid %s", name).WithDetails(err.Error()))
		return 0, false
	}
	return id, true
}

func parseTime(value, field string) (time.Time, *errors.AppError) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.NewAppErrorf(errors.InvalidInput, "invalid %s format, expected RFC3339", field).WithDetails(err.Error())
	}
	return t, nil
}

// loadAccount resolves the {user_id} path variable to an account handle.
func loadAccount(ctx context.Context, manager *service.Manager, r *http.Request) (*service.Account, error) {
	account, err := manager.GetAccount(ctx, mux.Vars(r)["user_id"])
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errors.ErrAccountNotFound
	}
	return account, nil
}

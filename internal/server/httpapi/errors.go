package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/logging"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

var errBadBody = errors.New("invalid request body")

var statusByError = []struct {
	err    error
	status int
}{
	{errBadBody, http.StatusBadRequest},
	{common.ErrCapacityExceeded, http.StatusBadRequest},
	{common.ErrTooSoonAfterLastCreation, http.StatusBadRequest},
	{common.ErrInvalidFields, http.StatusBadRequest},
	{common.ErrUnknownValidationFailure, http.StatusBadRequest},
	{common.ErrContentTooLong, http.StatusBadRequest},
	{common.ErrNameNotUnique, http.StatusBadRequest},
	{common.ErrPersistenceFailure, http.StatusBadRequest},
	{common.ErrUserAlreadyHasTodolist, http.StatusBadRequest},
	{common.ErrUserNotAllowed, http.StatusBadRequest},
	{common.ErrEmailTaken, http.StatusConflict},
	{common.ErrItemNotFound, http.StatusNotFound},
	{common.ErrTodolistNotFound, http.StatusNotFound},
	{common.ErrUserNotFound, http.StatusNotFound},
	{common.ErrorUnauthorized, http.StatusUnauthorized},
}

func statusFor(err error) int {
	for _, se := range statusByError {
		if errors.Is(err, se.err) {
			return se.status
		}
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status and writes it. Internal errors are
// logged and their text is not exposed.
func writeError(ctx context.Context, logger logging.Logger, w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(ctx, "request failed", "error", err)
		msg = "internal server error"
	}
	writeJSONError(w, status, msg)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{StatusCode: status, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

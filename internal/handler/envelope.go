package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cycleconnect/server/internal/domain"
)

// apiResponse is the uniform envelope every successful endpoint replies
// with. Success is derived from the status code so the envelope can never
// claim success on an error status.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiError is the envelope shape for failures.
type apiError struct {
	StatusCode int      `json:"statusCode"`
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
	Data       any      `json:"data"`
}

// writeJSON sends a JSON response with the given status code and body.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeSuccess wraps data in the success envelope.
func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < 400,
	})
}

// writeError sends an error envelope with the given status and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{
		StatusCode: status,
		Success:    false,
		Message:    message,
		Errors:     []string{},
		Data:       nil,
	})
}

// writeFailure is the single boundary converting service errors into error
// envelopes. Handlers never format their own failure response beyond the
// message carried by the sentinel.
func writeFailure(w http.ResponseWriter, err error, logContext string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized request.")
	case errors.Is(err, domain.ErrCycleExists):
		writeError(w, http.StatusConflict, "Cycle already exists.")
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "An account with that email already exists.")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found.")
	default:
		slog.Error(logContext, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
	}
}

// readJSON decodes the request body into the given destination.
func readJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

package utils

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/adamkovacs/bookreviews/errs"
)

// ErrorResponse is the JSON body for every error the API surfaces.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// RespondError maps err to its HTTP status and writes the error body.
// Internal errors are logged and surfaced with a generic message.
func RespondError(w http.ResponseWriter, r *http.Request, err error, log *slog.Logger) {
	status := errs.HTTPStatus(err)
	msg := err.Error()
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if status == http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		msg = "internal server error"
	}
	RespondJSON(w, status, ErrorResponse{Error: msg})
}

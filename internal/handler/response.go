package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so the API has one
// shape for success and one for failure.
//
// ERROR FORMAT:
//
//	{"error": "userId is required"}                                  // 4xx
//	{"error": "internal server error", "details": "...", "hint": "..."} // 5xx
//
// details and hint only appear on storage failures, where the driver
// message and the operator hint (derived from the SQLSTATE) help whoever
// runs the server.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/pokedex/internal/apperror"
)

const msgInternal = "internal server error"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// MutationResponse is the body of a successful add or remove.
type MutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSON sends data with status. Headers must be set before the body,
// so the order is: Content-Type, WriteHeader, Encode.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are gone already, all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusOf maps the error taxonomy to HTTP.
//
//	ErrValidation → 400   ErrForbidden → 403   ErrNotFound → 404
//	ErrConflict   → 409   ErrUpstream  → 502   anything else → 500
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and an ErrorResponse.
//
// Client errors carry the AppError message. Server errors carry a fixed
// message; storage errors add the driver message as details and the
// operator hint. Errors outside the taxonomy never leak their text.
func writeError(w http.ResponseWriter, err error) {
	writeErrorAs(w, err, msgInternal)
}

// writeErrorAs is writeError with a custom message for 500 replies.
func writeErrorAs(w http.ResponseWriter, err error, internalMsg string) {
	status := statusOf(err)

	var appErr *apperror.AppError
	hasApp := errors.As(err, &appErr)

	if status < http.StatusInternalServerError || status == http.StatusBadGateway {
		msg := http.StatusText(status)
		if hasApp {
			msg = appErr.Message
		}
		writeJSON(w, status, ErrorResponse{Error: msg})
		return
	}

	resp := ErrorResponse{Error: internalMsg}
	if hasApp && errors.Is(err, apperror.ErrStorage) {
		resp.Details = appErr.Message
		resp.Hint = appErr.Hint
	}
	writeJSON(w, status, resp)
}

// MethodNotAllowed is the router's 405 reply.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
}

// NotFound is the router's 404 reply for unknown API paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "route not found"})
}

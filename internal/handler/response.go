package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON and writeError, so all error
// responses share one shape:
//   {"error": "team_full", "message": "Team is full (max 4 members)"}
//
// "error" is the machine-readable code of the AppError, "message" is safe to
// show to the user as-is.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/auth"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error code (e.g., "team_full")
	Message string `json:"message"` // Human-readable description
}

// successResponse is the body of mutations that return nothing else.
type successResponse struct {
	Success bool `json:"success"`
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must be written before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// ERROR MAPPING:
//
//	ErrValidation   → 400
//	ErrConflict     → 400 (already in team, team full, duplicate request)
//	ErrUnauthorized → 401
//	ErrForbidden    → 403
//	ErrNotFound     → 404
//	anything else   → 500 with a generic message
//
// The service layer never sees status codes; this is the only place the
// taxonomy meets HTTP.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		}

		if status != http.StatusInternalServerError {
			code := appErr.Code
			if code == "" {
				code = "error"
			}
			writeJSON(w, status, ErrorResponse{Error: code, Message: appErr.Message})
			return
		}
	}

	// Unknown error: never expose internals (SQL, file paths) to the client.
	logger.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads the request body into dst. A malformed body is reported
// as a validation error so writeError answers 400.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.New(apperror.ErrValidation, "invalid_body", "Invalid JSON body")
	}
	return nil
}

// principal returns the caller set by auth.RequireAuth. Routes using it are
// always mounted behind RequireAuth; the 401 is only reached on a wiring
// mistake.
func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, found := auth.PrincipalFromContext(r.Context())
	if !found {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Unauthorized"})
	}
	return p, found
}

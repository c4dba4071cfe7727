package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eugenenazirov/amplify-core-api/internal/validation"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// RequestID returns the request identifier assigned by the router, if any.
func RequestID(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

type errorResponse struct {
	Error      string   `json:"error"`
	Details    string   `json:"details,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// WriteJSON encodes payload as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes the standard JSON error body.
func WriteError(w http.ResponseWriter, status int, message, details string) {
	WriteJSON(w, status, errorResponse{
		Error:   message,
		Details: details,
	})
}

// WriteDecodeError maps an error returned by the validation stage to a client error response.
func WriteDecodeError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, errorResponse{
			Error:      http.StatusText(http.StatusBadRequest),
			Details:    "request validation failed",
			Violations: verr.Violations,
		})
	case errors.Is(err, validation.ErrBodyTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge), err.Error())
	default:
		WriteError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest), err.Error())
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

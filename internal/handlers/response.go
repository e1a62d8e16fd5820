package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"govcon/research/internal/services/matching"
	"govcon/research/internal/services/research"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WriteError writes the standard failure body.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Success: false, Error: message})
}

// statusFor maps service errors to HTTP statuses. Internal errors are not
// echoed to the client.
func statusFor(err error) (int, string) {
	var verr *matching.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, research.ErrSolicitationNotFound),
		errors.Is(err, matching.ErrSolicitationNotFound):
		return http.StatusNotFound, "solicitation not found"
	case errors.Is(err, research.ErrResearchNotFound):
		return http.StatusNotFound, research.ErrResearchNotFound.Error()
	case errors.Is(err, matching.ErrProfileNotFound):
		return http.StatusNotFound, matching.ErrProfileNotFound.Error()
	case errors.Is(err, matching.ErrScoreNotFound):
		return http.StatusNotFound, matching.ErrScoreNotFound.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

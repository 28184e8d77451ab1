package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"event-registration-backend/internal/logger"
	"event-registration-backend/internal/repository"
	"event-registration-backend/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes the payload with the given status. A nil payload writes
// only the status line.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// respondError maps service errors onto HTTP status codes. Unknown errors are
// logged and reported as a plain 500 without leaking internals.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		respondJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, sql.ErrNoRows):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrPaidRegistration),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrPaymentNotPending),
		errors.Is(err, repository.ErrStaleStatus):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrRegistrationClosed),
		errors.Is(err, service.ErrEventFull),
		errors.Is(err, service.ErrMembersOnly):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		logger.Error("Request failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func respondBadRequest(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// decodeBody parses the JSON request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"creerlio_server/services"
)

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeServiceError maps the typed engine/gate errors onto HTTP statuses so
// invalid actions produce a specific, actionable message instead of a
// generic failure.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrDuplicateRequest), errors.Is(err, services.ErrStaleState):
		status = http.StatusConflict
	case errors.Is(err, services.ErrSelfResponseForbidden), errors.Is(err, services.ErrConnectionNotAccepted):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrRecordNotFound), errors.Is(err, services.ErrConversationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	default:
		log.Printf("Unhandled service error: %v", err)
		writeJSON(w, status, map[string]string{"error": "Internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/superdrive/vehicle-ledger/internal/fleet"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}

// statusForError maps domain errors onto HTTP status codes. Odometer
// regressions are conflicts with the current vehicle state, not bad input.
func statusForError(err error) int {
	switch {
	case errors.Is(err, fleet.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fleet.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, fleet.ErrRegression):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

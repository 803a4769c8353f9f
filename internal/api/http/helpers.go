package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nurhub/nurhub-lms/internal/catalog"
	"github.com/nurhub/nurhub-lms/internal/finalexam"
	"github.com/nurhub/nurhub-lms/internal/progression"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the core error taxonomy onto status codes. Anything not in
// the taxonomy is a plain 500 without leaking internals.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, progression.ErrNotFound),
		errors.Is(err, finalexam.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, catalog.ErrDuplicateOrder):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, finalexam.ErrNotEligible):
		http.Error(w, "not eligible", http.StatusForbidden)
	case errors.Is(err, finalexam.ErrLocked):
		http.Error(w, "result locked", http.StatusConflict)
	case errors.Is(err, progression.ErrRegression):
		http.Error(w, "invalid progress transition", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

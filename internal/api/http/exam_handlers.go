package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nurhub/nurhub-lms/internal/finalexam"
	"github.com/nurhub/nurhub-lms/internal/rbac"
)

// ExamEligibilityHandler reports where the student stands with a package's
// final exam; on first full chapter coverage it also creates the result row.
func ExamEligibilityHandler(gate *finalexam.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())
		if studentID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		el, err := gate.Eligibility(r.Context(), studentID, chi.URLParam(r, "packageID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, el)
	}
}

func SubmitExamHandler(gate *finalexam.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())
		if studentID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			Answers map[string][]string `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		out, err := gate.Submit(r.Context(), studentID, chi.URLParam(r, "packageID"), req.Answers)
		if errors.Is(err, finalexam.ErrLocked) {
			// Locked results come back unchanged with a conflict status.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(out)
			return
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, out)
	}
}

// LockExamHandler is the administrative override: freeze a student's result
// regardless of score.
func LockExamHandler(gate *finalexam.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StudentID string `json:"student_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StudentID == "" {
			http.Error(w, "student_id required", http.StatusBadRequest)
			return
		}
		res, err := gate.AdminLock(r.Context(), req.StudentID, chi.URLParam(r, "packageID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, res)
	}
}

package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nurhub/nurhub-lms/internal/progression"
	"github.com/nurhub/nurhub-lms/internal/rbac"
)

func ActivatePackageHandler(ctrl *progression.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())
		if studentID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		p, err := ctrl.ActivatePackage(r.Context(), studentID, chi.URLParam(r, "packageID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, p)
	}
}

// SubmitQuizHandler takes {"answers": {questionID: [optionID, ...]}} and
// runs the attempt through the unlock controller.
func SubmitQuizHandler(ctrl *progression.Controller) http.HandlerFunc {
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
		res, err := ctrl.SubmitChapterAnswers(r.Context(), studentID, chi.URLParam(r, "chapterID"), req.Answers)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, res)
	}
}

// PackageProgressHandler returns the caller's own overview; ustaz/admin may
// ask for any student via ?student_id=.
func PackageProgressHandler(ctrl *progression.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := rbac.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())
		if other := r.URL.Query().Get("student_id"); other != "" && other != studentID {
			if role != "ustaz" && role != "admin" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			studentID = other
		}
		if studentID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		out, err := ctrl.PackageProgress(r.Context(), studentID, chi.URLParam(r, "packageID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, out)
	}
}

package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nurhub/nurhub-lms/internal/catalog"
)

// Handlers only — routes remain in main.go

func CreatePackageHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title           string `json:"title"`
			ExamDurationMin int    `json:"exam_duration_min"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p := catalog.Package{
			ID:              uuid.NewString(),
			Title:           req.Title,
			ExamDurationMin: req.ExamDurationMin,
		}
		if err := store.PutPackage(r.Context(), p); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, p)
	}
}

func ListPackagesHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListPackages(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, out)
	}
}

func GetPackageOutlineHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetOutline(r.Context(), chi.URLParam(r, "packageID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, p)
	}
}

func CreateCourseHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string `json:"title"`
			Order int    `json:"order"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" || req.Order < 1 {
			http.Error(w, "title and order >= 1 required", http.StatusBadRequest)
			return
		}
		c := catalog.Course{
			ID:        uuid.NewString(),
			PackageID: chi.URLParam(r, "packageID"),
			Title:     req.Title,
			Order:     req.Order,
		}
		if _, err := store.GetPackage(r.Context(), c.PackageID); err != nil {
			writeErr(w, err)
			return
		}
		if err := store.PutCourse(r.Context(), c); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, c)
	}
}

func CreateChapterHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title     string             `json:"title"`
			Position  int                `json:"position"`
			Questions []catalog.Question `json:"questions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" || req.Position < 1 {
			http.Error(w, "title and position >= 1 required", http.StatusBadRequest)
			return
		}
		if err := catalog.ValidateQuestions(req.Questions); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ch := catalog.Chapter{
			ID:        uuid.NewString(),
			CourseID:  chi.URLParam(r, "courseID"),
			Title:     req.Title,
			Position:  req.Position,
			Questions: req.Questions,
		}
		if err := store.PutChapter(r.Context(), ch); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, ch)
	}
}

func SetChapterQuestionsHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var qs []catalog.Question
		if err := json.NewDecoder(r.Body).Decode(&qs); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := catalog.ValidateQuestions(qs); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.SetChapterQuestions(r.Context(), chi.URLParam(r, "chapterID"), qs); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, map[string]int{"questions": len(qs)})
	}
}

func SetExamQuestionsHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var qs []catalog.Question
		if err := json.NewDecoder(r.Body).Decode(&qs); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := catalog.ValidateQuestions(qs); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.SetExamQuestions(r.Context(), chi.URLParam(r, "packageID"), qs); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, map[string]int{"questions": len(qs)})
	}
}

// GetChapterHandler serves a chapter to students: answer keys stripped.
func GetChapterHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, err := store.GetChapter(r.Context(), chi.URLParam(r, "chapterID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		ch.Questions = catalog.StripAnswerKeys(ch.Questions)
		writeJSON(w, ch)
	}
}

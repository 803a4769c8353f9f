package catalog

import "fmt"

type Choice struct {
	ID        string `json:"id"`
	LabelHTML string `json:"label_html,omitempty"`
}

// Question is a multiple-choice question. AnswerKey holds the ids of the
// correct choices; a student passes the question only by selecting exactly
// that set.
type Question struct {
	ID         string   `json:"id"`
	PromptHTML string   `json:"prompt_html,omitempty"`
	Choices    []Choice `json:"choices,omitempty"`
	AnswerKey  []string `json:"answer_key,omitempty"`
}

type Chapter struct {
	ID        string     `json:"id"`
	CourseID  string     `json:"course_id"`
	Title     string     `json:"title"`
	Position  int        `json:"position"`
	Questions []Question `json:"questions,omitempty"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

type Course struct {
	ID        string    `json:"id"`
	PackageID string    `json:"package_id"`
	Title     string    `json:"title"`
	Order     int       `json:"order"`
	Chapters  []Chapter `json:"chapters,omitempty"`
}

// Package is the top-level enrollment unit: ordered courses, each with
// ordered chapters, plus the package-level final exam question pool.
type Package struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	ExamDurationMin int        `json:"exam_duration_min,omitempty"`
	ExamQuestions   []Question `json:"exam_questions,omitempty"`
	Courses         []Course   `json:"courses,omitempty"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// AnswerKeys flattens questions into the scorer's keyed form.
func AnswerKeys(qs []Question) map[string][]string {
	keys := make(map[string][]string, len(qs))
	for _, q := range qs {
		keys[q.ID] = q.AnswerKey
	}
	return keys
}

// StripAnswerKeys returns a student-safe copy of the questions.
func StripAnswerKeys(qs []Question) []Question {
	out := make([]Question, len(qs))
	copy(out, qs)
	for i := range out {
		out[i].AnswerKey = nil
	}
	return out
}

// ValidateQuestions enforces authoring-time shape: every question has an id,
// at least two choices, and a non-empty answer key drawn from its choices.
func ValidateQuestions(qs []Question) error {
	for _, q := range qs {
		if q.ID == "" {
			return fmt.Errorf("question without id")
		}
		if len(q.Choices) < 2 {
			return fmt.Errorf("question %s: needs at least 2 choices", q.ID)
		}
		if len(q.AnswerKey) == 0 {
			return fmt.Errorf("question %s: empty answer key", q.ID)
		}
		ids := map[string]bool{}
		for _, c := range q.Choices {
			if c.ID == "" {
				return fmt.Errorf("question %s: choice without id", q.ID)
			}
			if ids[c.ID] {
				return fmt.Errorf("question %s: duplicate choice id %s", q.ID, c.ID)
			}
			ids[c.ID] = true
		}
		for _, k := range q.AnswerKey {
			if !ids[k] {
				return fmt.Errorf("question %s: answer key %s not among choices", q.ID, k)
			}
		}
	}
	return nil
}

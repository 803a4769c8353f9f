package finalexam

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/nurhub/nurhub-lms/internal/catalog"
	"github.com/nurhub/nurhub-lms/internal/notify"
	"github.com/nurhub/nurhub-lms/internal/progression"
	"github.com/nurhub/nurhub-lms/internal/scoring"
)

// PassThreshold is the package exam bar. Chapter quizzes demand full marks;
// the final exam tolerates partial credit.
const PassThreshold = 0.75

// Eligibility is what a student sees when opening the package exam page.
type Eligibility struct {
	State             State   `json:"state"`
	CompletedChapters int     `json:"completed_chapters"`
	TotalChapters     int     `json:"total_chapters"`
	ExamDurationMin   int     `json:"exam_duration_min,omitempty"`
	Result            *Result `json:"result,omitempty"`
}

// Outcome is the response to an exam submission.
type Outcome struct {
	Result      Result         `json:"result"`
	Score       scoring.Result `json:"score"`
	Passed      bool           `json:"passed"`
	NoQuestions bool           `json:"no_questions,omitempty"`
}

// Gate owns final-exam eligibility, scoring and the result lock.
type Gate struct {
	catalog  catalog.Store
	progress progression.ProgressStore
	results  ResultStore
	notifier notify.Notifier
}

func NewGate(cat catalog.Store, progress progression.ProgressStore, results ResultStore, n notify.Notifier) *Gate {
	if n == nil {
		n = notify.Nop{}
	}
	return &Gate{catalog: cat, progress: progress, results: results, notifier: n}
}

// Eligibility checks completion coverage over every chapter currently in
// the package, so chapters added after the student started still gate the
// exam. On first full coverage the result row is created; repeat calls
// return the existing row with its original start time. After lock it only
// reports the locked state.
func (g *Gate) Eligibility(ctx context.Context, studentID, packageID string) (Eligibility, error) {
	outline, err := g.catalog.GetOutline(ctx, packageID)
	if err != nil {
		return Eligibility{}, err
	}
	ids := progression.ChapterIDs(outline)
	recs, err := g.progress.List(ctx, studentID, ids)
	if err != nil {
		return Eligibility{}, err
	}
	done := 0
	for _, id := range ids {
		if p, ok := recs[id]; ok && p.State == progression.StateCompleted {
			done++
		}
	}
	el := Eligibility{
		CompletedChapters: done,
		TotalChapters:     len(ids),
		ExamDurationMin:   outline.ExamDurationMin,
		State:             StateNotEligible,
	}

	existing, err := g.results.Get(ctx, studentID, packageID)
	switch {
	case err == nil:
		el.Result = &existing
		if existing.Locked {
			el.State = StateLocked
			return el, nil
		}
	case !errors.Is(err, ErrNotFound):
		return Eligibility{}, err
	}

	// An empty package has nothing to complete and never opens its exam.
	if len(ids) == 0 || done < len(ids) {
		return el, nil
	}

	r, err := g.results.Create(ctx, studentID, packageID, time.Now())
	if err != nil {
		return Eligibility{}, err
	}
	el.Result = &r
	el.State = r.State()
	return el, nil
}

// Submit scores an exam attempt. Retakes are free while the lock is unset;
// reaching the pass threshold sets the lock and freezes the result.
func (g *Gate) Submit(ctx context.Context, studentID, packageID string, answers map[string][]string) (Outcome, error) {
	r, err := g.results.Get(ctx, studentID, packageID)
	if errors.Is(err, ErrNotFound) {
		el, elErr := g.Eligibility(ctx, studentID, packageID)
		if elErr != nil {
			return Outcome{}, elErr
		}
		if el.Result == nil {
			return Outcome{}, ErrNotEligible
		}
		r = *el.Result
	} else if err != nil {
		return Outcome{}, err
	}
	if r.Locked {
		return Outcome{Result: r, Passed: r.Score >= PassThreshold}, ErrLocked
	}

	qs, err := g.catalog.GetExamQuestions(ctx, packageID)
	if err != nil {
		return Outcome{}, err
	}
	score, err := scoring.Score(catalog.AnswerKeys(qs), answers)
	if errors.Is(err, scoring.ErrNoQuestions) {
		// Nothing to grade: report as such, never lock on an empty pool.
		return Outcome{Result: r, NoQuestions: true}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	resultStr := fmt.Sprintf("%d/%d (%.0f%%)", score.Correct, score.Total, math.Round(score.Score*100))
	r, err = g.results.SetOutcome(ctx, studentID, packageID, time.Now(), score.Score, resultStr)
	if errors.Is(err, ErrLocked) {
		return Outcome{Result: r, Passed: r.Score >= PassThreshold}, ErrLocked
	}
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Result: r, Score: score, Passed: score.Score >= PassThreshold}
	if out.Passed {
		if _, err := g.results.Lock(ctx, studentID, packageID); err != nil {
			return Outcome{}, err
		}
		out.Result.Locked = true
		if err := g.notifier.Emit(ctx, notify.EventExamPassed, studentID+"|"+packageID,
			map[string]any{"student_id": studentID, "package_id": packageID, "result": resultStr}); err != nil {
			log.Printf("emit exam passed: %v", err)
		}
	}
	return out, nil
}

// AdminLock freezes the result regardless of score (administrative
// override). Idempotent like the latch itself.
func (g *Gate) AdminLock(ctx context.Context, studentID, packageID string) (Result, error) {
	if _, err := g.results.Lock(ctx, studentID, packageID); err != nil {
		return Result{}, err
	}
	return g.results.Get(ctx, studentID, packageID)
}

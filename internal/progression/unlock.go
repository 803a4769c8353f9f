package progression

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/nurhub/nurhub-lms/internal/catalog"
	"github.com/nurhub/nurhub-lms/internal/notify"
	"github.com/nurhub/nurhub-lms/internal/scoring"
)

// Chapter quizzes gate content sequencing and require full marks; the
// package final exam is the holistic assessment with a lower bar.
const ChapterPassScore = 1.0

// MaxFailedAttempts bounds silent retries: on the second consecutive
// failure the correct answers are revealed and the counter resets.
const MaxFailedAttempts = 2

type SubmitStatus string

const (
	StatusPassed SubmitStatus = "passed"
	StatusFailed SubmitStatus = "failed"
	StatusReveal SubmitStatus = "reveal"
)

type SubmitResult struct {
	Status           SubmitStatus        `json:"status"`
	Score            scoring.Result      `json:"score"`
	ChapterCompleted bool                `json:"chapter_completed"`
	NextChapterID    string              `json:"next_chapter_id,omitempty"`
	PackageCompleted bool                `json:"package_completed"`
	FailCount        int                 `json:"fail_count,omitempty"`
	Reveal           map[string][]string `json:"reveal,omitempty"` // question id -> correct option ids
}

// Controller orchestrates chapter quiz submissions: persist answers, score,
// complete the chapter on a perfect score and unlock its successor.
type Controller struct {
	catalog  catalog.Store
	progress ProgressStore
	answers  AnswerStore
	notifier notify.Notifier
}

func NewController(cat catalog.Store, progress ProgressStore, answers AnswerStore, n notify.Notifier) *Controller {
	if n == nil {
		n = notify.Nop{}
	}
	return &Controller{catalog: cat, progress: progress, answers: answers, notifier: n}
}

// ActivatePackage bootstraps a student's progress: the first chapter of the
// lowest-order course gets a started record. Idempotent.
func (c *Controller) ActivatePackage(ctx context.Context, studentID, packageID string) (Progress, error) {
	outline, err := c.catalog.GetOutline(ctx, packageID)
	if err != nil {
		return Progress{}, err
	}
	first, ok := FirstChapter(outline)
	if !ok {
		return Progress{}, ErrNotFound
	}
	return c.progress.EnsureStarted(ctx, studentID, first.ChapterID)
}

// SubmitChapterAnswers runs one quiz attempt end to end.
func (c *Controller) SubmitChapterAnswers(ctx context.Context, studentID, chapterID string, answers map[string][]string) (SubmitResult, error) {
	ch, err := c.catalog.GetChapter(ctx, chapterID)
	if err != nil {
		return SubmitResult{}, err
	}
	rec, err := c.progress.EnsureStarted(ctx, studentID, chapterID)
	if err != nil {
		return SubmitResult{}, err
	}
	wasCompleted := rec.State == StateCompleted

	// Persist only selections for questions that belong to this chapter;
	// stray question ids would otherwise leave orphaned answer rows.
	keys := catalog.AnswerKeys(ch.Questions)
	known := make(map[string][]string, len(answers))
	for qid, sel := range answers {
		if _, ok := keys[qid]; ok {
			known[qid] = sel
		}
	}
	if len(known) > 0 {
		if err := c.answers.UpsertAnswers(ctx, studentID, chapterID, known); err != nil {
			return SubmitResult{}, err
		}
	}

	res, err := scoring.Score(keys, answers)
	if errors.Is(err, scoring.ErrNoQuestions) {
		// A chapter without a quiz has nothing to fail: auto-pass.
		return c.pass(ctx, studentID, chapterID, scoring.Result{}, wasCompleted)
	}
	if err != nil {
		return SubmitResult{}, err
	}

	if res.Score >= ChapterPassScore {
		return c.pass(ctx, studentID, chapterID, res, wasCompleted)
	}

	fails, err := c.progress.BumpFailCount(ctx, studentID, chapterID)
	if err != nil {
		return SubmitResult{}, err
	}
	if fails >= MaxFailedAttempts {
		if err := c.progress.ResetFailCount(ctx, studentID, chapterID); err != nil {
			return SubmitResult{}, err
		}
		return SubmitResult{Status: StatusReveal, Score: res, Reveal: keys}, nil
	}
	return SubmitResult{Status: StatusFailed, Score: res, FailCount: fails}, nil
}

// pass records a successful submission. wasCompleted marks a resubmission of
// an already-completed chapter: the response is the same, but the completion
// side effects (unlocking the successor, the completion event) ran the first
// time and must not run again.
func (c *Controller) pass(ctx context.Context, studentID, chapterID string, res scoring.Result, wasCompleted bool) (SubmitResult, error) {
	if !wasCompleted {
		if _, err := c.progress.MarkCompleted(ctx, studentID, chapterID, time.Now()); err != nil {
			return SubmitResult{}, err
		}
		if err := c.progress.ResetFailCount(ctx, studentID, chapterID); err != nil {
			return SubmitResult{}, err
		}
	}

	pkgID, err := c.catalog.ResolvePackageID(ctx, chapterID)
	if err != nil {
		return SubmitResult{}, err
	}
	outline, err := c.catalog.GetOutline(ctx, pkgID)
	if err != nil {
		return SubmitResult{}, err
	}
	step, err := NextChapter(outline, chapterID)
	if err != nil {
		return SubmitResult{}, err
	}

	out := SubmitResult{Status: StatusPassed, Score: res, ChapterCompleted: true}
	switch step.Kind {
	case StepChapter:
		if !wasCompleted {
			if _, err := c.progress.EnsureStarted(ctx, studentID, step.ChapterID); err != nil {
				return SubmitResult{}, err
			}
		}
		out.NextChapterID = step.ChapterID
	case StepEndOfPackage:
		out.PackageCompleted = true
		if !wasCompleted {
			if err := c.notifier.Emit(ctx, notify.EventPackageCompleted, studentID+"|"+pkgID,
				map[string]string{"student_id": studentID, "package_id": pkgID}); err != nil {
				log.Printf("emit package completed: %v", err)
			}
		}
	}
	return out, nil
}

// ChapterProgress is one row of a student's package overview.
type ChapterProgress struct {
	ChapterID   string       `json:"chapter_id"`
	CourseID    string       `json:"course_id"`
	Title       string       `json:"title"`
	Position    int          `json:"position"`
	State       ChapterState `json:"state"`
	CompletedAt int64        `json:"completed_at,omitempty"`
}

// PackageProgress returns the per-chapter state of a student across a whole
// package, in course/chapter order. Chapters with no record are locked.
func (c *Controller) PackageProgress(ctx context.Context, studentID, packageID string) ([]ChapterProgress, error) {
	outline, err := c.catalog.GetOutline(ctx, packageID)
	if err != nil {
		return nil, err
	}
	recs, err := c.progress.List(ctx, studentID, ChapterIDs(outline))
	if err != nil {
		return nil, err
	}
	var out []ChapterProgress
	for _, course := range outline.Courses {
		for _, ch := range course.Chapters {
			cp := ChapterProgress{
				ChapterID: ch.ID,
				CourseID:  course.ID,
				Title:     ch.Title,
				Position:  ch.Position,
				State:     StateLocked,
			}
			if p, ok := recs[ch.ID]; ok {
				cp.State = p.State
				cp.CompletedAt = p.CompletedAt
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

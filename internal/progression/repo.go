package progression

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("progress not found")
	// ErrRegression marks an invalid lifecycle move, e.g. completing a
	// chapter that was never started or un-completing a finished one.
	ErrRegression = errors.New("progress regression")
)

type ProgressStore interface {
	Get(ctx context.Context, studentID, chapterID string) (Progress, error)

	// EnsureStarted creates the record iff it does not exist. A second call
	// for the same pair returns the existing record untouched.
	EnsureStarted(ctx context.Context, studentID, chapterID string) (Progress, error)

	// MarkCompleted moves started -> completed. Idempotent for an already
	// completed chapter (the original completion time is kept); returns
	// ErrRegression for a chapter that was never started.
	MarkCompleted(ctx context.Context, studentID, chapterID string, when time.Time) (Progress, error)

	// List returns the student's records for the given chapters, keyed by
	// chapter id. Missing pairs are simply absent.
	List(ctx context.Context, studentID string, chapterIDs []string) (map[string]Progress, error)

	// BumpFailCount increments the consecutive-failure counter for the
	// pair and returns the new value.
	BumpFailCount(ctx context.Context, studentID, chapterID string) (int, error)
	ResetFailCount(ctx context.Context, studentID, chapterID string) error
}

// AnswerStore persists quiz selections. A resubmission for the same
// question replaces the earlier selection.
type AnswerStore interface {
	UpsertAnswers(ctx context.Context, studentID, chapterID string, answers map[string][]string) error
	GetAnswers(ctx context.Context, studentID, chapterID string) (map[string][]string, error)
}

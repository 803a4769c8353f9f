package finalexam_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nurhub/nurhub-lms/internal/catalog"
	"github.com/nurhub/nurhub-lms/internal/finalexam"
	"github.com/nurhub/nurhub-lms/internal/progression"
)

func examQuestions() []catalog.Question {
	qs := make([]catalog.Question, 4)
	for i, id := range []string{"e1", "e2", "e3", "e4"} {
		qs[i] = catalog.Question{
			ID:        id,
			Choices:   []catalog.Choice{{ID: "a"}, {ID: "b"}},
			AnswerKey: []string{"a"},
		}
	}
	return qs
}

// seed builds package P with two chapters and a 4-question final exam, and
// optionally completes all chapters for student s1.
func seed(t *testing.T, completeAll bool) (*finalexam.Gate, finalexam.ResultStore, progression.ProgressStore) {
	t.Helper()
	ctx := context.Background()
	cat := catalog.NewInMemoryStore()
	require.NoError(t, cat.PutPackage(ctx, catalog.Package{ID: "P", Title: "Aqeedah", ExamQuestions: examQuestions()}))
	require.NoError(t, cat.PutCourse(ctx, catalog.Course{ID: "A", PackageID: "P", Order: 1}))
	require.NoError(t, cat.PutChapter(ctx, catalog.Chapter{ID: "a1", CourseID: "A", Position: 1}))
	require.NoError(t, cat.PutChapter(ctx, catalog.Chapter{ID: "a2", CourseID: "A", Position: 2}))

	progress := progression.NewInMemoryStore()
	if completeAll {
		for _, ch := range []string{"a1", "a2"} {
			_, err := progress.EnsureStarted(ctx, "s1", ch)
			require.NoError(t, err)
			_, err = progress.MarkCompleted(ctx, "s1", ch, time.Unix(100, 0))
			require.NoError(t, err)
		}
	}
	results := finalexam.NewInMemoryStore()
	return finalexam.NewGate(cat, progress, results, nil), results, progress
}

func answersWithCorrect(n int) map[string][]string {
	out := map[string][]string{}
	for i, id := range []string{"e1", "e2", "e3", "e4"} {
		if i < n {
			out[id] = []string{"a"}
		} else {
			out[id] = []string{"b"}
		}
	}
	return out
}

func TestNotEligibleUntilAllChaptersComplete(t *testing.T) {
	ctx := context.Background()
	gate, results, progress := seed(t, false)

	el, err := gate.Eligibility(ctx, "s1", "P")
	require.NoError(t, err)
	require.Equal(t, finalexam.StateNotEligible, el.State)
	require.Nil(t, el.Result)
	_, err = results.Get(ctx, "s1", "P")
	require.ErrorIs(t, err, finalexam.ErrNotFound)

	// completing only one chapter is not enough
	_, err = progress.EnsureStarted(ctx, "s1", "a1")
	require.NoError(t, err)
	_, err = progress.MarkCompleted(ctx, "s1", "a1", time.Now())
	require.NoError(t, err)
	el, err = gate.Eligibility(ctx, "s1", "P")
	require.NoError(t, err)
	require.Equal(t, finalexam.StateNotEligible, el.State)
	require.Equal(t, 1, el.CompletedChapters)
	require.Equal(t, 2, el.TotalChapters)
}

func TestEligibilityCreatesResultOnce(t *testing.T) {
	ctx := context.Background()
	gate, _, _ := seed(t, true)

	first, err := gate.Eligibility(ctx, "s1", "P")
	require.NoError(t, err)
	require.Equal(t, finalexam.StateEligible, first.State)
	require.NotNil(t, first.Result)

	second, err := gate.Eligibility(ctx, "s1", "P")
	require.NoError(t, err)
	require.NotNil(t, second.Result)
	require.Equal(t, first.Result.StartedAt, second.Result.StartedAt, "startingTime must not move")
}

func TestResultCreateIdempotentAcrossTimes(t *testing.T) {
	ctx := context.Background()
	results := finalexam.NewInMemoryStore()
	r1, err := results.Create(ctx, "s1", "P", time.Unix(100, 0))
	require.NoError(t, err)
	r2, err := results.Create(ctx, "s1", "P", time.Unix(500, 0))
	require.NoError(t, err)
	require.Equal(t, r1.StartedAt, r2.StartedAt)
}

func TestSubmitAtThresholdPassesAndLocks(t *testing.T) {
	ctx := context.Background()
	gate, results, _ := seed(t, true)

	out, err := gate.Submit(ctx, "s1", "P", answersWithCorrect(3))
	require.NoError(t, err)
	require.InDelta(t, 0.75, out.Score.Score, 1e-9)
	require.True(t, out.Passed, "0.75 meets the exam threshold")
	require.True(t, out.Result.Locked)
	require.Equal(t, "3/4 (75%)", out.Result.Result)

	locked, err := results.IsLocked(ctx, "s1", "P")
	require.NoError(t, err)
	require.True(t, locked)
}

func TestSubmitBelowThresholdAllowsRetake(t *testing.T) {
	ctx := context.Background()
	gate, _, _ := seed(t, true)

	out, err := gate.Submit(ctx, "s1", "P", answersWithCorrect(2))
	require.NoError(t, err)
	require.False(t, out.Passed)
	require.False(t, out.Result.Locked)
	require.Equal(t, finalexam.StateInProgress, out.Result.State())

	// retake freely until the bar is met
	out, err = gate.Submit(ctx, "s1", "P", answersWithCorrect(4))
	require.NoError(t, err)
	require.True(t, out.Passed)
	require.True(t, out.Result.Locked)
}

func TestSubmitAfterLockLeavesResultUnchanged(t *testing.T) {
	ctx := context.Background()
	gate, results, _ := seed(t, true)

	passed, err := gate.Submit(ctx, "s1", "P", answersWithCorrect(4))
	require.NoError(t, err)
	require.True(t, passed.Result.Locked)

	out, err := gate.Submit(ctx, "s1", "P", answersWithCorrect(0))
	require.ErrorIs(t, err, finalexam.ErrLocked)
	require.Equal(t, passed.Result, out.Result, "locked result must not change")

	stored, err := results.Get(ctx, "s1", "P")
	require.NoError(t, err)
	require.Equal(t, passed.Result, stored)
}

func TestEligibilityAfterLockReportsLocked(t *testing.T) {
	ctx := context.Background()
	gate, _, _ := seed(t, true)

	_, err := gate.Submit(ctx, "s1", "P", answersWithCorrect(4))
	require.NoError(t, err)

	el, err := gate.Eligibility(ctx, "s1", "P")
	require.NoError(t, err)
	require.Equal(t, finalexam.StateLocked, el.State)
	require.True(t, el.Result.Locked)
}

func TestAdminLockWhileFailing(t *testing.T) {
	ctx := context.Background()
	gate, _, _ := seed(t, true)

	_, err := gate.Submit(ctx, "s1", "P", answersWithCorrect(1))
	require.NoError(t, err)

	res, err := gate.AdminLock(ctx, "s1", "P")
	require.NoError(t, err)
	require.True(t, res.Locked)
	require.Less(t, res.Score, finalexam.PassThreshold)

	// lock is one-way and idempotent
	again, err := gate.AdminLock(ctx, "s1", "P")
	require.NoError(t, err)
	require.True(t, again.Locked)
}

func TestSubmitBeforeEligibility(t *testing.T) {
	ctx := context.Background()
	gate, _, _ := seed(t, false)

	_, err := gate.Submit(ctx, "s1", "P", answersWithCorrect(4))
	require.ErrorIs(t, err, finalexam.ErrNotEligible)
}

func TestEmptyExamPoolNeverLocks(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewInMemoryStore()
	require.NoError(t, cat.PutPackage(ctx, catalog.Package{ID: "P"}))
	require.NoError(t, cat.PutCourse(ctx, catalog.Course{ID: "A", PackageID: "P", Order: 1}))
	require.NoError(t, cat.PutChapter(ctx, catalog.Chapter{ID: "a1", CourseID: "A", Position: 1}))
	progress := progression.NewInMemoryStore()
	_, err := progress.EnsureStarted(ctx, "s1", "a1")
	require.NoError(t, err)
	_, err = progress.MarkCompleted(ctx, "s1", "a1", time.Now())
	require.NoError(t, err)
	gate := finalexam.NewGate(cat, progress, finalexam.NewInMemoryStore(), nil)

	out, err := gate.Submit(ctx, "s1", "P", nil)
	require.NoError(t, err)
	require.True(t, out.NoQuestions)
	require.False(t, out.Result.Locked)
}

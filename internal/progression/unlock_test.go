package progression_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nurhub/nurhub-lms/internal/catalog"
	"github.com/nurhub/nurhub-lms/internal/progression"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []string // "type:key"
}

func (c *captureNotifier) Emit(_ context.Context, typ, key string, _ any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, typ+":"+key)
	return nil
}

func fourQuestions(prefix string) []catalog.Question {
	qs := make([]catalog.Question, 4)
	for i, id := range []string{"1", "2", "3", "4"} {
		qs[i] = catalog.Question{
			ID: prefix + id,
			Choices: []catalog.Choice{
				{ID: "a"}, {ID: "b"}, {ID: "c"},
			},
			AnswerKey: []string{"a"},
		}
	}
	return qs
}

func perfect(qs []catalog.Question) map[string][]string {
	out := map[string][]string{}
	for _, q := range qs {
		out[q.ID] = q.AnswerKey
	}
	return out
}

// seedCatalog builds package P (course A: a1, a2; course B: b1), each
// chapter with a 4-question quiz except b1 which has none.
func seedCatalog(t *testing.T) catalog.Store {
	t.Helper()
	ctx := context.Background()
	cat := catalog.NewInMemoryStore()
	require.NoError(t, cat.PutPackage(ctx, catalog.Package{ID: "P", Title: "Fiqh Basics"}))
	require.NoError(t, cat.PutCourse(ctx, catalog.Course{ID: "A", PackageID: "P", Title: "Course A", Order: 1}))
	require.NoError(t, cat.PutCourse(ctx, catalog.Course{ID: "B", PackageID: "P", Title: "Course B", Order: 2}))
	require.NoError(t, cat.PutChapter(ctx, catalog.Chapter{ID: "a1", CourseID: "A", Position: 1, Questions: fourQuestions("a1q")}))
	require.NoError(t, cat.PutChapter(ctx, catalog.Chapter{ID: "a2", CourseID: "A", Position: 2, Questions: fourQuestions("a2q")}))
	require.NoError(t, cat.PutChapter(ctx, catalog.Chapter{ID: "b1", CourseID: "B", Position: 1}))
	return cat
}

func newController(t *testing.T) (*progression.Controller, progression.ProgressStore, *captureNotifier) {
	t.Helper()
	progress := progression.NewInMemoryStore()
	notifier := &captureNotifier{}
	ctrl := progression.NewController(seedCatalog(t), progress, progression.NewInMemoryAnswerStore(), notifier)
	return ctrl, progress, notifier
}

func TestSubmitPerfectScoreUnlocksNext(t *testing.T) {
	ctx := context.Background()
	ctrl, progress, _ := newController(t)

	_, err := ctrl.ActivatePackage(ctx, "s1", "P")
	require.NoError(t, err)

	res, err := ctrl.SubmitChapterAnswers(ctx, "s1", "a1", perfect(fourQuestions("a1q")))
	require.NoError(t, err)
	require.Equal(t, progression.StatusPassed, res.Status)
	require.True(t, res.ChapterCompleted)
	require.Equal(t, "a2", res.NextChapterID)

	next, err := progress.Get(ctx, "s1", "a2")
	require.NoError(t, err)
	require.Equal(t, progression.StateStarted, next.State)
}

func TestSubmitThreeOfFourDoesNotComplete(t *testing.T) {
	ctx := context.Background()
	ctrl, progress, _ := newController(t)

	answers := perfect(fourQuestions("a1q"))
	answers["a1q4"] = []string{"b"} // one wrong: 0.75 is below the chapter bar

	res, err := ctrl.SubmitChapterAnswers(ctx, "s1", "a1", answers)
	require.NoError(t, err)
	require.Equal(t, progression.StatusFailed, res.Status)
	require.InDelta(t, 0.75, res.Score.Score, 1e-9)
	require.False(t, res.ChapterCompleted)

	p, err := progress.Get(ctx, "s1", "a1")
	require.NoError(t, err)
	require.Equal(t, progression.StateStarted, p.State)
}

func TestRetryCapRevealsAnswersAndResets(t *testing.T) {
	ctx := context.Background()
	ctrl, progress, _ := newController(t)
	wrong := map[string][]string{"a1q1": {"b"}}

	first, err := ctrl.SubmitChapterAnswers(ctx, "s1", "a1", wrong)
	require.NoError(t, err)
	require.Equal(t, progression.StatusFailed, first.Status)
	require.Equal(t, 1, first.FailCount)

	second, err := ctrl.SubmitChapterAnswers(ctx, "s1", "a1", wrong)
	require.NoError(t, err)
	require.Equal(t, progression.StatusReveal, second.Status)
	require.Equal(t, []string{"a"}, second.Reveal["a1q1"])
	require.Len(t, second.Reveal, 4)

	p, err := progress.Get(ctx, "s1", "a1")
	require.NoError(t, err)
	require.Equal(t, 0, p.FailCount, "counter must reset after reveal")

	// next failure starts the cycle over
	third, err := ctrl.SubmitChapterAnswers(ctx, "s1", "a1", wrong)
	require.NoError(t, err)
	require.Equal(t, progression.StatusFailed, third.Status)
	require.Equal(t, 1, third.FailCount)
}

func TestZeroQuestionChapterAutoPasses(t *testing.T) {
	ctx := context.Background()
	ctrl, _, notifier := newController(t)

	// clear a1 and a2 first
	_, err := ctrl.SubmitChapterAnswers(ctx, "s1", "a1", perfect(fourQuestions("a1q")))
	require.NoError(t, err)
	_, err = ctrl.SubmitChapterAnswers(ctx, "s1", "a2", perfect(fourQuestions("a2q")))
	require.NoError(t, err)

	// b1 has no quiz: submitting nothing completes it and ends the package
	res, err := ctrl.SubmitChapterAnswers(ctx, "s1", "b1", nil)
	require.NoError(t, err)
	require.Equal(t, progression.StatusPassed, res.Status)
	require.True(t, res.PackageCompleted)
	require.Empty(t, res.NextChapterID)
	require.Contains(t, notifier.events, "PackageCompleted:s1|P")
}

func TestResubmitCompletedChapterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ctrl, progress, _ := newController(t)

	_, err := ctrl.SubmitChapterAnswers(ctx, "s1", "a1", perfect(fourQuestions("a1q")))
	require.NoError(t, err)
	before, err := progress.Get(ctx, "s1", "a1")
	require.NoError(t, err)

	res, err := ctrl.SubmitChapterAnswers(ctx, "s1", "a1", perfect(fourQuestions("a1q")))
	require.NoError(t, err)
	require.Equal(t, progression.StatusPassed, res.Status)

	after, err := progress.Get(ctx, "s1", "a1")
	require.NoError(t, err)
	require.Equal(t, before.CompletedAt, after.CompletedAt)
}

func TestResubmitFinalChapterEmitsCompletionOnce(t *testing.T) {
	ctx := context.Background()
	ctrl, _, notifier := newController(t)

	_, err := ctrl.SubmitChapterAnswers(ctx, "s1", "a1", perfect(fourQuestions("a1q")))
	require.NoError(t, err)
	_, err = ctrl.SubmitChapterAnswers(ctx, "s1", "a2", perfect(fourQuestions("a2q")))
	require.NoError(t, err)
	_, err = ctrl.SubmitChapterAnswers(ctx, "s1", "b1", nil)
	require.NoError(t, err)

	res, err := ctrl.SubmitChapterAnswers(ctx, "s1", "b1", nil)
	require.NoError(t, err)
	require.Equal(t, progression.StatusPassed, res.Status)
	require.True(t, res.PackageCompleted)

	count := 0
	for _, ev := range notifier.events {
		if ev == "PackageCompleted:s1|P" {
			count++
		}
	}
	require.Equal(t, 1, count, "completion event must fire once per student and package")
}

func TestSubmitDropsAnswersForUnknownQuestions(t *testing.T) {
	ctx := context.Background()
	answerStore := progression.NewInMemoryAnswerStore()
	ctrl := progression.NewController(seedCatalog(t), progression.NewInMemoryStore(), answerStore, nil)

	answers := perfect(fourQuestions("a1q"))
	answers["ghost"] = []string{"a"}

	res, err := ctrl.SubmitChapterAnswers(ctx, "s1", "a1", answers)
	require.NoError(t, err)
	require.Equal(t, progression.StatusPassed, res.Status)

	saved, err := answerStore.GetAnswers(ctx, "s1", "a1")
	require.NoError(t, err)
	require.Len(t, saved, 4)
	require.NotContains(t, saved, "ghost")
}

func TestActivatePackageBootstrapsFirstChapter(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _ := newController(t)

	p, err := ctrl.ActivatePackage(ctx, "s1", "P")
	require.NoError(t, err)
	require.Equal(t, "a1", p.ChapterID)
	require.Equal(t, progression.StateStarted, p.State)

	// repeat activation changes nothing
	again, err := ctrl.ActivatePackage(ctx, "s1", "P")
	require.NoError(t, err)
	require.Equal(t, p, again)
}

func TestPackageProgressOverview(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _ := newController(t)

	_, err := ctrl.ActivatePackage(ctx, "s1", "P")
	require.NoError(t, err)
	_, err = ctrl.SubmitChapterAnswers(ctx, "s1", "a1", perfect(fourQuestions("a1q")))
	require.NoError(t, err)

	rows, err := ctrl.PackageProgress(ctx, "s1", "P")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	states := map[string]progression.ChapterState{}
	for _, row := range rows {
		states[row.ChapterID] = row.State
	}
	require.Equal(t, progression.StateCompleted, states["a1"])
	require.Equal(t, progression.StateStarted, states["a2"])
	require.Equal(t, progression.StateLocked, states["b1"])
}

package progression_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nurhub/nurhub-lms/internal/progression"
)

func TestEnsureStartedIdempotent(t *testing.T) {
	ctx := context.Background()
	store := progression.NewInMemoryStore()

	p1, err := store.EnsureStarted(ctx, "s1", "ch1")
	if err != nil {
		t.Fatal(err)
	}
	if p1.State != progression.StateStarted {
		t.Fatalf("state=%s, want started", p1.State)
	}

	// second call must not reset anything
	if _, err := store.MarkCompleted(ctx, "s1", "ch1", time.Unix(100, 0)); err != nil {
		t.Fatal(err)
	}
	p2, err := store.EnsureStarted(ctx, "s1", "ch1")
	if err != nil {
		t.Fatal(err)
	}
	if p2.State != progression.StateCompleted || p2.CompletedAt != 100 {
		t.Fatalf("ensureStarted overwrote record: %+v", p2)
	}
}

func TestMarkCompletedMonotonic(t *testing.T) {
	ctx := context.Background()
	store := progression.NewInMemoryStore()
	if _, err := store.EnsureStarted(ctx, "s1", "ch1"); err != nil {
		t.Fatal(err)
	}
	first, err := store.MarkCompleted(ctx, "s1", "ch1", time.Unix(100, 0))
	if err != nil {
		t.Fatal(err)
	}
	// re-completing keeps the original timestamp
	again, err := store.MarkCompleted(ctx, "s1", "ch1", time.Unix(999, 0))
	if err != nil {
		t.Fatal(err)
	}
	if again.CompletedAt != first.CompletedAt {
		t.Fatalf("completion time moved: %d -> %d", first.CompletedAt, again.CompletedAt)
	}
}

func TestMarkCompletedBeforeStart(t *testing.T) {
	_, err := progression.NewInMemoryStore().MarkCompleted(context.Background(), "s1", "ch1", time.Now())
	if !errors.Is(err, progression.ErrRegression) {
		t.Fatalf("want ErrRegression, got %v", err)
	}
}

func TestTransitionRules(t *testing.T) {
	cases := []struct {
		from, to progression.ChapterState
		ok       bool
	}{
		{progression.StateLocked, progression.StateStarted, true},
		{progression.StateStarted, progression.StateCompleted, true},
		{progression.StateCompleted, progression.StateCompleted, true},
		{progression.StateCompleted, progression.StateStarted, false},
		{progression.StateCompleted, progression.StateLocked, false},
		{progression.StateLocked, progression.StateCompleted, false},
	}
	for _, c := range cases {
		err := progression.Transition(c.from, c.to)
		if c.ok && err != nil {
			t.Errorf("%s->%s: unexpected %v", c.from, c.to, err)
		}
		if !c.ok && !errors.Is(err, progression.ErrRegression) {
			t.Errorf("%s->%s: want ErrRegression, got %v", c.from, c.to, err)
		}
	}
}

func TestFailCountPerStudentPerChapter(t *testing.T) {
	ctx := context.Background()
	store := progression.NewInMemoryStore()
	for _, pair := range [][2]string{{"s1", "ch1"}, {"s2", "ch1"}, {"s1", "ch2"}} {
		if _, err := store.EnsureStarted(ctx, pair[0], pair[1]); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := store.BumpFailCount(ctx, "s1", "ch1"); n != 1 {
		t.Fatalf("s1/ch1 first bump = %d", n)
	}
	// other pairs are untouched
	if n, _ := store.BumpFailCount(ctx, "s2", "ch1"); n != 1 {
		t.Fatalf("s2/ch1 bump = %d, counter leaked across students", n)
	}
	if n, _ := store.BumpFailCount(ctx, "s1", "ch2"); n != 1 {
		t.Fatalf("s1/ch2 bump = %d, counter leaked across chapters", n)
	}
	if err := store.ResetFailCount(ctx, "s1", "ch1"); err != nil {
		t.Fatal(err)
	}
	if n, _ := store.BumpFailCount(ctx, "s1", "ch1"); n != 1 {
		t.Fatalf("after reset bump = %d, want 1", n)
	}
}

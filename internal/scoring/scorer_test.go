package scoring_test

import (
	"errors"
	"testing"

	"github.com/nurhub/nurhub-lms/internal/scoring"
)

func TestScoreExactSetMatch(t *testing.T) {
	keys := map[string][]string{
		"q1": {"a", "c"},
		"q2": {"b"},
	}
	answers := map[string][]string{
		"q1": {"c", "a"}, // order must not matter
		"q2": {"b"},
	}
	res, err := scoring.Score(keys, answers)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if res.Total != 2 || res.Correct != 2 || res.Score != 1.0 {
		t.Fatalf("got %+v, want 2/2", res)
	}
}

func TestScorePartialOverlapIsWrong(t *testing.T) {
	keys := map[string][]string{"q1": {"a", "c"}}
	for name, sel := range map[string][]string{
		"subset":   {"a"},
		"superset": {"a", "c", "d"},
		"disjoint": {"b"},
		"empty":    {},
		"missing":  nil,
	} {
		res, err := scoring.Score(keys, map[string][]string{"q1": sel})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if res.Correct != 0 {
			t.Errorf("%s: selection %v counted as correct", name, sel)
		}
	}
}

func TestScoreFraction(t *testing.T) {
	keys := map[string][]string{
		"q1": {"a"}, "q2": {"a"}, "q3": {"a"}, "q4": {"a"},
	}
	answers := map[string][]string{
		"q1": {"a"}, "q2": {"a"}, "q3": {"a"}, "q4": {"x"},
	}
	res, err := scoring.Score(keys, answers)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if res.Correct != 3 || res.Score != 0.75 {
		t.Fatalf("got %+v, want 3/4 = 0.75", res)
	}
}

func TestScoreNoQuestions(t *testing.T) {
	_, err := scoring.Score(nil, map[string][]string{"q1": {"a"}})
	if !errors.Is(err, scoring.ErrNoQuestions) {
		t.Fatalf("want ErrNoQuestions, got %v", err)
	}
}

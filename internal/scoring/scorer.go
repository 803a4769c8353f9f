package scoring

import "errors"

// ErrNoQuestions reports a scoring request over an empty question set.
// Callers decide the policy (auto-pass, "n/a"); the scorer never guesses.
var ErrNoQuestions = errors.New("no questions to score")

// Result is the outcome of scoring one attempt.
type Result struct {
	Total   int     `json:"total"`
	Correct int     `json:"correct"`
	Score   float64 `json:"score"` // Correct / Total
}

// Score grades a set of selected option ids against the answer keys.
// keys maps question id -> correct option ids; answers maps question id ->
// the student's selected option ids. A question is correct only when the
// two sets are equal as sets: partial overlap earns nothing.
func Score(keys map[string][]string, answers map[string][]string) (Result, error) {
	if len(keys) == 0 {
		return Result{}, ErrNoQuestions
	}
	res := Result{Total: len(keys)}
	for qid, key := range keys {
		if equalStringSets(answers[qid], key) {
			res.Correct++
		}
	}
	res.Score = float64(res.Correct) / float64(res.Total)
	return res, nil
}

func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := map[string]int{}
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		seen[s]--
	}
	for _, v := range seen {
		if v != 0 {
			return false
		}
	}
	return true
}

package finalexam

// State is the exam lifecycle for one (student, package) pair.
type State string

const (
	StateNotEligible State = "not_eligible"
	StateEligible    State = "eligible"    // result row exists, no submission yet
	StateInProgress  State = "in_progress" // scored at least once, still editable
	StateLocked      State = "locked"      // terminal; result frozen
)

// Result is the package final-exam record. While Locked is false the score
// may be rewritten by retakes; once true the row is frozen for good.
type Result struct {
	StudentID string  `json:"student_id"`
	PackageID string  `json:"package_id"`
	StartedAt int64   `json:"started_at"`
	EndedAt   int64   `json:"ended_at,omitempty"`
	Score     float64 `json:"score"`
	Result    string  `json:"result,omitempty"` // human-readable, e.g. "3/4 (75%)"
	Locked    bool    `json:"locked"`
}

// State derives the lifecycle position of an existing row.
func (r Result) State() State {
	switch {
	case r.Locked:
		return StateLocked
	case r.EndedAt > 0:
		return StateInProgress
	default:
		return StateEligible
	}
}

package progression

import "fmt"

// ChapterState is the lifecycle of one (student, chapter) pair.
type ChapterState string

const (
	StateLocked    ChapterState = "locked"
	StateStarted   ChapterState = "started"
	StateCompleted ChapterState = "completed"
)

// Progress is one student's record for one chapter. Completion is
// monotonic: once completed the record never moves back.
type Progress struct {
	StudentID   string       `json:"student_id"`
	ChapterID   string       `json:"chapter_id"`
	State       ChapterState `json:"state"`
	CompletedAt int64        `json:"completed_at,omitempty"`
	FailCount   int          `json:"fail_count,omitempty"`
}

// Transition validates a state change. It is the single place the chapter
// lifecycle is allowed to move; stores call it before writing.
func Transition(from, to ChapterState) error {
	switch {
	case from == to:
		return nil // idempotent re-apply
	case from == StateLocked && to == StateStarted:
		return nil
	case from == StateStarted && to == StateCompleted:
		return nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrRegression, from, to)
	}
}

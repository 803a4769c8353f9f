package finalexam

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("exam result not found")
	// ErrLocked rejects any mutation of a frozen result. The stored row is
	// returned unchanged alongside it where the caller needs it.
	ErrLocked = errors.New("exam result locked")
	// ErrNotEligible rejects a submission before all chapters are done.
	ErrNotEligible = errors.New("not eligible for final exam")
)

type ResultStore interface {
	Get(ctx context.Context, studentID, packageID string) (Result, error)

	// Create inserts the row on first eligibility. Idempotent: if the row
	// already exists it is returned with its original StartedAt.
	Create(ctx context.Context, studentID, packageID string, startedAt time.Time) (Result, error)

	// SetOutcome records a scored attempt. Returns ErrLocked (with the
	// stored row) when the lock is set.
	SetOutcome(ctx context.Context, studentID, packageID string, endedAt time.Time, score float64, result string) (Result, error)

	// Lock sets the one-way latch and returns the new value. Locking an
	// already-locked row is a no-op; the latch never resets.
	Lock(ctx context.Context, studentID, packageID string) (bool, error)

	IsLocked(ctx context.Context, studentID, packageID string) (bool, error)
}

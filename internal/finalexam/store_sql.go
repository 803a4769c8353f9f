package finalexam

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, studentID, packageID string) (Result, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT started_at, ended_at, score, result, locked
		  FROM final_exam_results WHERE student_id=$1 AND package_id=$2`,
		studentID, packageID)
	var (
		r     Result
		ended sql.NullInt64
	)
	r.StudentID, r.PackageID = studentID, packageID
	if err := row.Scan(&r.StartedAt, &ended, &r.Score, &r.Result, &r.Locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, ErrNotFound
		}
		return Result{}, err
	}
	r.EndedAt = ended.Int64
	return r, nil
}

// Create leans on the (student_id, package_id) primary key: insert-or-ignore
// then re-read, so a repeated eligibility check never duplicates the row or
// moves StartedAt.
func (s *SQLStore) Create(ctx context.Context, studentID, packageID string, startedAt time.Time) (Result, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO final_exam_results (student_id, package_id, started_at, score, result, locked)
		VALUES ($1,$2,$3,0,'',FALSE)
		ON CONFLICT (student_id, package_id) DO NOTHING`,
		studentID, packageID, startedAt.Unix())
	if err != nil {
		return Result{}, err
	}
	return s.Get(ctx, studentID, packageID)
}

func (s *SQLStore) SetOutcome(ctx context.Context, studentID, packageID string, endedAt time.Time, score float64, result string) (Result, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE final_exam_results SET ended_at=$1, score=$2, result=$3
		 WHERE student_id=$4 AND package_id=$5 AND locked=FALSE`,
		endedAt.Unix(), score, result, studentID, packageID)
	if err != nil {
		return Result{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Result{}, err
	}
	if n > 0 {
		return s.Get(ctx, studentID, packageID)
	}
	r, err := s.Get(ctx, studentID, packageID)
	if err != nil {
		return Result{}, err
	}
	// Row exists but the guarded update skipped it: the latch is set.
	return r, ErrLocked
}

func (s *SQLStore) Lock(ctx context.Context, studentID, packageID string) (bool, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE final_exam_results SET locked=TRUE
		 WHERE student_id=$1 AND package_id=$2`, studentID, packageID)
	if err != nil {
		return false, err
	}
	return s.IsLocked(ctx, studentID, packageID)
}

func (s *SQLStore) IsLocked(ctx context.Context, studentID, packageID string) (bool, error) {
	var locked bool
	err := s.db.QueryRowContext(ctx, `
		SELECT locked FROM final_exam_results WHERE student_id=$1 AND package_id=$2`,
		studentID, packageID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	return locked, err
}

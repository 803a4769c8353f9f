package progression

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, studentID, chapterID string) (Progress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT is_started, is_completed, completed_at, fail_count
		  FROM student_progress WHERE student_id=$1 AND chapter_id=$2`,
		studentID, chapterID)
	return scanProgress(row, studentID, chapterID)
}

// EnsureStarted relies on the (student_id, chapter_id) primary key:
// insert-or-ignore then re-read, so concurrent calls cannot double-create.
func (s *SQLStore) EnsureStarted(ctx context.Context, studentID, chapterID string) (Progress, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO student_progress (student_id, chapter_id, is_started, is_completed, fail_count)
		VALUES ($1,$2,TRUE,FALSE,0)
		ON CONFLICT (student_id, chapter_id) DO NOTHING`,
		studentID, chapterID)
	if err != nil {
		return Progress{}, err
	}
	return s.Get(ctx, studentID, chapterID)
}

func (s *SQLStore) MarkCompleted(ctx context.Context, studentID, chapterID string, when time.Time) (Progress, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE student_progress SET is_completed=TRUE, completed_at=$1
		 WHERE student_id=$2 AND chapter_id=$3 AND is_started=TRUE AND is_completed=FALSE`,
		when.Unix(), studentID, chapterID)
	if err != nil {
		return Progress{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Progress{}, err
	}
	if n > 0 {
		return s.Get(ctx, studentID, chapterID)
	}
	// No row changed: either already completed (fine, keep the original
	// timestamp) or never started (invariant violation).
	p, err := s.Get(ctx, studentID, chapterID)
	if errors.Is(err, ErrNotFound) {
		return Progress{}, fmt.Errorf("complete before start (%s/%s): %w", studentID, chapterID, ErrRegression)
	}
	if err != nil {
		return Progress{}, err
	}
	if p.State != StateCompleted {
		return Progress{}, fmt.Errorf("complete from %s (%s/%s): %w", p.State, studentID, chapterID, ErrRegression)
	}
	return p, nil
}

func (s *SQLStore) List(ctx context.Context, studentID string, chapterIDs []string) (map[string]Progress, error) {
	out := map[string]Progress{}
	if len(chapterIDs) == 0 {
		return out, nil
	}
	ph := make([]string, len(chapterIDs))
	args := make([]any, 0, len(chapterIDs)+1)
	args = append(args, studentID)
	for i, id := range chapterIDs {
		ph[i] = "$" + strconv.Itoa(i+2)
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT chapter_id, is_started, is_completed, completed_at, fail_count
		  FROM student_progress
		 WHERE student_id=$1 AND chapter_id IN (`+strings.Join(ph, ",")+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			chID      string
			started   bool
			completed bool
			doneAt    sql.NullInt64
			fails     int
		)
		if err := rows.Scan(&chID, &started, &completed, &doneAt, &fails); err != nil {
			return nil, err
		}
		out[chID] = buildProgress(studentID, chID, started, completed, doneAt, fails)
	}
	return out, rows.Err()
}

func (s *SQLStore) BumpFailCount(ctx context.Context, studentID, chapterID string) (int, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE student_progress SET fail_count=fail_count+1
		 WHERE student_id=$1 AND chapter_id=$2`, studentID, chapterID)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.db.QueryRowContext(ctx, `
		SELECT fail_count FROM student_progress WHERE student_id=$1 AND chapter_id=$2`,
		studentID, chapterID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return n, err
}

func (s *SQLStore) ResetFailCount(ctx context.Context, studentID, chapterID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE student_progress SET fail_count=0
		 WHERE student_id=$1 AND chapter_id=$2`, studentID, chapterID)
	return err
}

func scanProgress(row *sql.Row, studentID, chapterID string) (Progress, error) {
	var (
		started   bool
		completed bool
		doneAt    sql.NullInt64
		fails     int
	)
	if err := row.Scan(&started, &completed, &doneAt, &fails); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Progress{}, ErrNotFound
		}
		return Progress{}, err
	}
	return buildProgress(studentID, chapterID, started, completed, doneAt, fails), nil
}

func buildProgress(studentID, chapterID string, started, completed bool, doneAt sql.NullInt64, fails int) Progress {
	p := Progress{StudentID: studentID, ChapterID: chapterID, State: StateLocked, FailCount: fails}
	if started {
		p.State = StateStarted
	}
	if completed {
		p.State = StateCompleted
		p.CompletedAt = doneAt.Int64
	}
	return p
}

// SQLAnswerStore keeps the latest selection per (student, question); the
// primary key makes resubmission an overwrite, not an accumulation.
type SQLAnswerStore struct {
	db *sql.DB
}

func NewSQLAnswerStore(db *sql.DB) *SQLAnswerStore { return &SQLAnswerStore{db: db} }

func (s *SQLAnswerStore) UpsertAnswers(ctx context.Context, studentID, chapterID string, answers map[string][]string) error {
	for qid, opts := range answers {
		oj, err := json.Marshal(opts)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO quiz_answers (student_id, question_id, chapter_id, option_ids_json, updated_at)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (student_id, question_id) DO UPDATE SET option_ids_json=EXCLUDED.option_ids_json, updated_at=EXCLUDED.updated_at`,
			studentID, qid, chapterID, string(oj), time.Now().Unix())
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLAnswerStore) GetAnswers(ctx context.Context, studentID, chapterID string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question_id, option_ids_json FROM quiz_answers
		 WHERE student_id=$1 AND chapter_id=$2`, studentID, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]string{}
	for rows.Next() {
		var qid, oj string
		if err := rows.Scan(&qid, &oj); err != nil {
			return nil, err
		}
		var opts []string
		if err := json.Unmarshal([]byte(oj), &opts); err != nil {
			return nil, err
		}
		out[qid] = opts
	}
	return out, rows.Err()
}

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutPackage(ctx context.Context, p Package) error {
	qj, err := json.Marshal(p.ExamQuestions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO packages (id,title,exam_duration_min,exam_questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, exam_duration_min=EXCLUDED.exam_duration_min, exam_questions_json=EXCLUDED.exam_questions_json`,
		p.ID, p.Title, p.ExamDurationMin, string(qj), time.Now().Unix())
	return err
}

func (s *SQLStore) GetPackage(ctx context.Context, id string) (Package, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,exam_duration_min,exam_questions_json,created_at FROM packages WHERE id=$1`, id)
	var p Package
	var qjson string
	if err := row.Scan(&p.ID, &p.Title, &p.ExamDurationMin, &qjson, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Package{}, ErrNotFound
		}
		return Package{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &p.ExamQuestions); err != nil {
		return Package{}, err
	}
	return p, nil
}

func (s *SQLStore) ListPackages(ctx context.Context) ([]PackageSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.title,
		       (SELECT COUNT(*) FROM courses c WHERE c.package_id=p.id),
		       (SELECT COUNT(*) FROM chapters ch JOIN courses c ON ch.course_id=c.id WHERE c.package_id=p.id)
		  FROM packages p ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []PackageSummary{}
	for rows.Next() {
		var ps PackageSummary
		if err := rows.Scan(&ps.ID, &ps.Title, &ps.Courses, &ps.Chapters); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutCourse(ctx context.Context, c Course) error {
	var clash int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM courses WHERE package_id=$1 AND ord=$2 AND id<>$3`,
		c.PackageID, c.Order, c.ID).Scan(&clash)
	if err != nil {
		return err
	}
	if clash > 0 {
		return ErrDuplicateOrder
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO courses (id,package_id,title,ord,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, ord=EXCLUDED.ord`,
		c.ID, c.PackageID, c.Title, c.Order, time.Now().Unix())
	return err
}

func (s *SQLStore) PutChapter(ctx context.Context, ch Chapter) error {
	var clash int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chapters WHERE course_id=$1 AND position=$2 AND id<>$3`,
		ch.CourseID, ch.Position, ch.ID).Scan(&clash)
	if err != nil {
		return err
	}
	if clash > 0 {
		return ErrDuplicateOrder
	}
	qj, err := json.Marshal(ch.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO chapters (id,course_id,title,position,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, position=EXCLUDED.position, questions_json=EXCLUDED.questions_json`,
		ch.ID, ch.CourseID, ch.Title, ch.Position, string(qj), time.Now().Unix())
	return err
}

func (s *SQLStore) SetChapterQuestions(ctx context.Context, chapterID string, qs []Question) error {
	qj, err := json.Marshal(qs)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE chapters SET questions_json=$1 WHERE id=$2`, string(qj), chapterID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) SetExamQuestions(ctx context.Context, packageID string, qs []Question) error {
	qj, err := json.Marshal(qs)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE packages SET exam_questions_json=$1 WHERE id=$2`, string(qj), packageID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) GetOutline(ctx context.Context, packageID string) (Package, error) {
	p, err := s.GetPackage(ctx, packageID)
	if err != nil {
		return Package{}, err
	}
	p.ExamQuestions = nil

	crows, err := s.db.QueryContext(ctx,
		`SELECT id,title,ord FROM courses WHERE package_id=$1 ORDER BY ord`, packageID)
	if err != nil {
		return Package{}, err
	}
	defer crows.Close()
	byCourse := map[string]*Course{}
	for crows.Next() {
		var c Course
		c.PackageID = packageID
		if err := crows.Scan(&c.ID, &c.Title, &c.Order); err != nil {
			return Package{}, err
		}
		p.Courses = append(p.Courses, c)
		byCourse[c.ID] = &p.Courses[len(p.Courses)-1]
	}
	if err := crows.Err(); err != nil {
		return Package{}, err
	}

	chrows, err := s.db.QueryContext(ctx, `
		SELECT ch.id, ch.course_id, ch.title, ch.position
		  FROM chapters ch JOIN courses c ON ch.course_id=c.id
		 WHERE c.package_id=$1
		 ORDER BY ch.position`, packageID)
	if err != nil {
		return Package{}, err
	}
	defer chrows.Close()
	for chrows.Next() {
		var ch Chapter
		if err := chrows.Scan(&ch.ID, &ch.CourseID, &ch.Title, &ch.Position); err != nil {
			return Package{}, err
		}
		if c, ok := byCourse[ch.CourseID]; ok {
			c.Chapters = append(c.Chapters, ch)
		}
	}
	if err := chrows.Err(); err != nil {
		return Package{}, err
	}
	sort.Slice(p.Courses, func(i, j int) bool { return p.Courses[i].Order < p.Courses[j].Order })
	return p, nil
}

func (s *SQLStore) GetChapter(ctx context.Context, chapterID string) (Chapter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,course_id,title,position,questions_json,created_at FROM chapters WHERE id=$1`, chapterID)
	var ch Chapter
	var qjson string
	if err := row.Scan(&ch.ID, &ch.CourseID, &ch.Title, &ch.Position, &qjson, &ch.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Chapter{}, ErrNotFound
		}
		return Chapter{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &ch.Questions); err != nil {
		return Chapter{}, err
	}
	return ch, nil
}

func (s *SQLStore) ResolvePackageID(ctx context.Context, chapterID string) (string, error) {
	var pkgID string
	err := s.db.QueryRowContext(ctx, `
		SELECT c.package_id FROM chapters ch JOIN courses c ON ch.course_id=c.id
		 WHERE ch.id=$1`, chapterID).Scan(&pkgID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return pkgID, err
}

func (s *SQLStore) GetExamQuestions(ctx context.Context, packageID string) ([]Question, error) {
	p, err := s.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	return p.ExamQuestions, nil
}

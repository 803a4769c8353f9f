package catalog

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicateOrder rejects a course or chapter whose order/position
	// collides with a sibling. Ordering must be unambiguous at authoring
	// time; the sequencer does not resolve ties at runtime.
	ErrDuplicateOrder = errors.New("duplicate order/position")
)

type PackageSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Courses  int    `json:"courses"`
	Chapters int    `json:"chapters"`
}

type Store interface {
	PutPackage(ctx context.Context, p Package) error
	GetPackage(ctx context.Context, id string) (Package, error)
	ListPackages(ctx context.Context) ([]PackageSummary, error)

	PutCourse(ctx context.Context, c Course) error
	PutChapter(ctx context.Context, ch Chapter) error
	SetChapterQuestions(ctx context.Context, chapterID string, qs []Question) error
	SetExamQuestions(ctx context.Context, packageID string, qs []Question) error

	// GetOutline returns the package with courses and chapters sorted by
	// order/position, without question payloads. This is the sequencer's
	// input.
	GetOutline(ctx context.Context, packageID string) (Package, error)

	// GetChapter returns the chapter with its full questions, answer keys
	// included. Strip before serving to students.
	GetChapter(ctx context.Context, chapterID string) (Chapter, error)

	// ResolvePackageID finds the package owning a chapter.
	ResolvePackageID(ctx context.Context, chapterID string) (string, error)

	// GetExamQuestions returns the package final-exam pool, keys included.
	GetExamQuestions(ctx context.Context, packageID string) ([]Question, error)
}

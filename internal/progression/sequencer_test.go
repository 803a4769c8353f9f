package progression_test

import (
	"errors"
	"testing"

	"github.com/nurhub/nurhub-lms/internal/catalog"
	"github.com/nurhub/nurhub-lms/internal/progression"
)

// Package P: course A (order 1, chapters a1@1, a2@2), course B (order 2,
// chapter b1@1).
func outlineP() catalog.Package {
	return catalog.Package{
		ID: "P",
		Courses: []catalog.Course{
			{ID: "A", PackageID: "P", Order: 1, Chapters: []catalog.Chapter{
				{ID: "a1", CourseID: "A", Position: 1},
				{ID: "a2", CourseID: "A", Position: 2},
			}},
			{ID: "B", PackageID: "P", Order: 2, Chapters: []catalog.Chapter{
				{ID: "b1", CourseID: "B", Position: 1},
			}},
		},
	}
}

func TestNextChapterWithinCourse(t *testing.T) {
	step, err := progression.NextChapter(outlineP(), "a1")
	if err != nil {
		t.Fatal(err)
	}
	if step.Kind != progression.StepChapter || step.ChapterID != "a2" {
		t.Fatalf("after a1 got %+v, want a2", step)
	}
}

func TestNextChapterCrossCourseRollover(t *testing.T) {
	step, err := progression.NextChapter(outlineP(), "a2")
	if err != nil {
		t.Fatal(err)
	}
	if step.Kind != progression.StepChapter || step.ChapterID != "b1" {
		t.Fatalf("after a2 got %+v, want b1", step)
	}
}

func TestNextChapterEndOfPackage(t *testing.T) {
	step, err := progression.NextChapter(outlineP(), "b1")
	if err != nil {
		t.Fatal(err)
	}
	if step.Kind != progression.StepEndOfPackage {
		t.Fatalf("after b1 got %+v, want end of package", step)
	}
}

func TestNextChapterSkipsEmptyCourse(t *testing.T) {
	p := catalog.Package{
		ID: "Q",
		Courses: []catalog.Course{
			{ID: "A", PackageID: "Q", Order: 1, Chapters: []catalog.Chapter{
				{ID: "a1", CourseID: "A", Position: 1},
			}},
			{ID: "B", PackageID: "Q", Order: 2}, // authored ahead of its chapters
			{ID: "C", PackageID: "Q", Order: 3, Chapters: []catalog.Chapter{
				{ID: "c1", CourseID: "C", Position: 1},
			}},
		},
	}
	step, err := progression.NextChapter(p, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if step.Kind != progression.StepChapter || step.ChapterID != "c1" || step.CourseID != "C" {
		t.Fatalf("after a1 got %+v, want c1 in course C", step)
	}

	step, err = progression.NextChapter(p, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if step.Kind != progression.StepEndOfPackage {
		t.Fatalf("after c1 got %+v, want end of package", step)
	}
}

func TestNextChapterUnknown(t *testing.T) {
	_, err := progression.NextChapter(outlineP(), "zz")
	if !errors.Is(err, progression.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestFirstChapter(t *testing.T) {
	step, ok := progression.FirstChapter(outlineP())
	if !ok || step.ChapterID != "a1" {
		t.Fatalf("got %+v ok=%v, want a1", step, ok)
	}
	if _, ok := progression.FirstChapter(catalog.Package{ID: "empty"}); ok {
		t.Fatal("empty package must have no first chapter")
	}
}

func TestFirstChapterMinPositionWithGaps(t *testing.T) {
	p := catalog.Package{
		ID: "G",
		Courses: []catalog.Course{
			{ID: "C", PackageID: "G", Order: 1, Chapters: []catalog.Chapter{
				{ID: "c7", CourseID: "C", Position: 7},
				{ID: "c3", CourseID: "C", Position: 3},
			}},
		},
	}
	step, ok := progression.FirstChapter(p)
	if !ok || step.ChapterID != "c3" {
		t.Fatalf("got %+v, want lowest position c3", step)
	}
}

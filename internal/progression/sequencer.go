package progression

import (
	"fmt"

	"github.com/nurhub/nurhub-lms/internal/catalog"
)

type StepKind string

const (
	StepChapter      StepKind = "chapter"
	StepEndOfPackage StepKind = "end_of_package"
)

// Step is the sequencer's answer: the next chapter to unlock, or the end
// of the package.
type Step struct {
	Kind      StepKind `json:"kind"`
	ChapterID string   `json:"chapter_id,omitempty"`
	CourseID  string   `json:"course_id,omitempty"`
}

// NextChapter resolves what follows completedChapterID in the package
// outline. Within a course the successor is the chapter at position+1;
// when the course is exhausted, the first chapter (lowest position) of the
// next course with any chapters. Courses are often created before their
// chapters, so empty ones are skipped rather than ending the package while
// content remains further on. When no populated course follows, the
// package is done. Pure: reads the outline only.
func NextChapter(p catalog.Package, completedChapterID string) (Step, error) {
	var cur *catalog.Chapter
	var curCourse *catalog.Course
	for i := range p.Courses {
		for j := range p.Courses[i].Chapters {
			if p.Courses[i].Chapters[j].ID == completedChapterID {
				cur = &p.Courses[i].Chapters[j]
				curCourse = &p.Courses[i]
			}
		}
	}
	if cur == nil {
		return Step{}, fmt.Errorf("chapter %s: %w", completedChapterID, ErrNotFound)
	}

	for _, ch := range curCourse.Chapters {
		if ch.Position == cur.Position+1 {
			return Step{Kind: StepChapter, ChapterID: ch.ID, CourseID: curCourse.ID}, nil
		}
	}

	var next *catalog.Course
	for i := range p.Courses {
		c := &p.Courses[i]
		if c.Order <= curCourse.Order || firstChapter(c) == nil {
			continue
		}
		if next == nil || c.Order < next.Order {
			next = c
		}
	}
	if next != nil {
		first := firstChapter(next)
		return Step{Kind: StepChapter, ChapterID: first.ID, CourseID: next.ID}, nil
	}
	return Step{Kind: StepEndOfPackage}, nil
}

// FirstChapter returns the entry point of the package: lowest-order course,
// lowest-position chapter. Used to bootstrap progress on activation.
func FirstChapter(p catalog.Package) (Step, bool) {
	for i := range p.Courses {
		if first := firstChapter(&p.Courses[i]); first != nil {
			return Step{Kind: StepChapter, ChapterID: first.ID, CourseID: p.Courses[i].ID}, true
		}
	}
	return Step{}, false
}

func firstChapter(c *catalog.Course) *catalog.Chapter {
	var best *catalog.Chapter
	for i := range c.Chapters {
		if best == nil || c.Chapters[i].Position < best.Position {
			best = &c.Chapters[i]
		}
	}
	return best
}

// ChapterIDs flattens every chapter reachable in the outline. The final
// exam gate checks completion coverage against this set so chapters added
// after a student started still count.
func ChapterIDs(p catalog.Package) []string {
	var ids []string
	for _, c := range p.Courses {
		for _, ch := range c.Chapters {
			ids = append(ids, ch.ID)
		}
	}
	return ids
}

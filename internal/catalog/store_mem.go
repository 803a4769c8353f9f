package catalog

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	packages map[string]Package
	courses  map[string]Course
	chapters map[string]Chapter
}

// NewInMemoryStore backs the catalog with process memory. Used by tests and
// by single-node setups that bootstrap content at startup.
func NewInMemoryStore() Store {
	return &memoryStore{
		packages: map[string]Package{},
		courses:  map[string]Course{},
		chapters: map[string]Chapter{},
	}
}

func (m *memoryStore) PutPackage(_ context.Context, p Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Courses = nil
	m.packages[p.ID] = p
	return nil
}

func (m *memoryStore) GetPackage(_ context.Context, id string) (Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.packages[id]
	if !ok {
		return Package{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) ListPackages(_ context.Context) ([]PackageSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []PackageSummary{}
	for _, p := range m.packages {
		ps := PackageSummary{ID: p.ID, Title: p.Title}
		for _, c := range m.courses {
			if c.PackageID == p.ID {
				ps.Courses++
			}
		}
		for _, ch := range m.chapters {
			if c, ok := m.courses[ch.CourseID]; ok && c.PackageID == p.ID {
				ps.Chapters++
			}
		}
		out = append(out, ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) PutCourse(_ context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.courses {
		if other.PackageID == c.PackageID && other.Order == c.Order && other.ID != c.ID {
			return ErrDuplicateOrder
		}
	}
	c.Chapters = nil
	m.courses[c.ID] = c
	return nil
}

func (m *memoryStore) PutChapter(_ context.Context, ch Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.chapters {
		if other.CourseID == ch.CourseID && other.Position == ch.Position && other.ID != ch.ID {
			return ErrDuplicateOrder
		}
	}
	m.chapters[ch.ID] = ch
	return nil
}

func (m *memoryStore) SetChapterQuestions(_ context.Context, chapterID string, qs []Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.chapters[chapterID]
	if !ok {
		return ErrNotFound
	}
	ch.Questions = qs
	m.chapters[chapterID] = ch
	return nil
}

func (m *memoryStore) SetExamQuestions(_ context.Context, packageID string, qs []Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[packageID]
	if !ok {
		return ErrNotFound
	}
	p.ExamQuestions = qs
	m.packages[packageID] = p
	return nil
}

func (m *memoryStore) GetOutline(_ context.Context, packageID string) (Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.packages[packageID]
	if !ok {
		return Package{}, ErrNotFound
	}
	p.ExamQuestions = nil
	for _, c := range m.courses {
		if c.PackageID != packageID {
			continue
		}
		for _, ch := range m.chapters {
			if ch.CourseID == c.ID {
				ch.Questions = nil
				c.Chapters = append(c.Chapters, ch)
			}
		}
		sort.Slice(c.Chapters, func(i, j int) bool { return c.Chapters[i].Position < c.Chapters[j].Position })
		p.Courses = append(p.Courses, c)
	}
	sort.Slice(p.Courses, func(i, j int) bool { return p.Courses[i].Order < p.Courses[j].Order })
	return p, nil
}

func (m *memoryStore) GetChapter(_ context.Context, chapterID string) (Chapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.chapters[chapterID]
	if !ok {
		return Chapter{}, ErrNotFound
	}
	return ch, nil
}

func (m *memoryStore) ResolvePackageID(_ context.Context, chapterID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.chapters[chapterID]
	if !ok {
		return "", ErrNotFound
	}
	c, ok := m.courses[ch.CourseID]
	if !ok {
		return "", ErrNotFound
	}
	return c.PackageID, nil
}

func (m *memoryStore) GetExamQuestions(_ context.Context, packageID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.packages[packageID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.ExamQuestions, nil
}

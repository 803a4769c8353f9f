package progression

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]Progress // key: studentID|chapterID
}

// NewInMemoryStore keeps progress in process memory. Tests and single-node
// setups use it; all methods honor the same transition rules as SQL.
func NewInMemoryStore() ProgressStore {
	return &memoryStore{records: map[string]Progress{}}
}

func pkey(studentID, chapterID string) string { return studentID + "|" + chapterID }

func (m *memoryStore) Get(_ context.Context, studentID, chapterID string) (Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.records[pkey(studentID, chapterID)]
	if !ok {
		return Progress{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) EnsureStarted(_ context.Context, studentID, chapterID string) (Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pkey(studentID, chapterID)
	if p, ok := m.records[k]; ok {
		return p, nil
	}
	p := Progress{StudentID: studentID, ChapterID: chapterID, State: StateStarted}
	m.records[k] = p
	return p, nil
}

func (m *memoryStore) MarkCompleted(_ context.Context, studentID, chapterID string, when time.Time) (Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pkey(studentID, chapterID)
	p, ok := m.records[k]
	if !ok {
		return Progress{}, fmt.Errorf("complete before start (%s/%s): %w", studentID, chapterID, ErrRegression)
	}
	if p.State == StateCompleted {
		return p, nil // keep original completion time
	}
	if err := Transition(p.State, StateCompleted); err != nil {
		return Progress{}, err
	}
	p.State = StateCompleted
	p.CompletedAt = when.Unix()
	m.records[k] = p
	return p, nil
}

func (m *memoryStore) List(_ context.Context, studentID string, chapterIDs []string) (map[string]Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]Progress{}
	for _, chID := range chapterIDs {
		if p, ok := m.records[pkey(studentID, chID)]; ok {
			out[chID] = p
		}
	}
	return out, nil
}

func (m *memoryStore) BumpFailCount(_ context.Context, studentID, chapterID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pkey(studentID, chapterID)
	p, ok := m.records[k]
	if !ok {
		return 0, ErrNotFound
	}
	p.FailCount++
	m.records[k] = p
	return p.FailCount, nil
}

func (m *memoryStore) ResetFailCount(_ context.Context, studentID, chapterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pkey(studentID, chapterID)
	if p, ok := m.records[k]; ok {
		p.FailCount = 0
		m.records[k] = p
	}
	return nil
}

type memoryAnswerStore struct {
	mu      sync.RWMutex
	answers map[string]map[string][]string // studentID|chapterID -> questionID -> option ids
}

func NewInMemoryAnswerStore() AnswerStore {
	return &memoryAnswerStore{answers: map[string]map[string][]string{}}
}

func (m *memoryAnswerStore) UpsertAnswers(_ context.Context, studentID, chapterID string, answers map[string][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pkey(studentID, chapterID)
	if m.answers[k] == nil {
		m.answers[k] = map[string][]string{}
	}
	for qid, opts := range answers {
		m.answers[k][qid] = append([]string(nil), opts...)
	}
	return nil
}

func (m *memoryAnswerStore) GetAnswers(_ context.Context, studentID, chapterID string) (map[string][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string][]string{}
	for qid, opts := range m.answers[pkey(studentID, chapterID)] {
		out[qid] = append([]string(nil), opts...)
	}
	return out, nil
}

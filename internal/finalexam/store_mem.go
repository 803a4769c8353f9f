package finalexam

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.RWMutex
	results map[string]Result // key: studentID|packageID
}

func NewInMemoryStore() ResultStore {
	return &memoryStore{results: map[string]Result{}}
}

func rkey(studentID, packageID string) string { return studentID + "|" + packageID }

func (m *memoryStore) Get(_ context.Context, studentID, packageID string) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[rkey(studentID, packageID)]
	if !ok {
		return Result{}, ErrNotFound
	}
	return r, nil
}

func (m *memoryStore) Create(_ context.Context, studentID, packageID string, startedAt time.Time) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := rkey(studentID, packageID)
	if r, ok := m.results[k]; ok {
		return r, nil
	}
	r := Result{StudentID: studentID, PackageID: packageID, StartedAt: startedAt.Unix()}
	m.results[k] = r
	return r, nil
}

func (m *memoryStore) SetOutcome(_ context.Context, studentID, packageID string, endedAt time.Time, score float64, result string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := rkey(studentID, packageID)
	r, ok := m.results[k]
	if !ok {
		return Result{}, ErrNotFound
	}
	if r.Locked {
		return r, ErrLocked
	}
	r.EndedAt = endedAt.Unix()
	r.Score = score
	r.Result = result
	m.results[k] = r
	return r, nil
}

func (m *memoryStore) Lock(_ context.Context, studentID, packageID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := rkey(studentID, packageID)
	r, ok := m.results[k]
	if !ok {
		return false, ErrNotFound
	}
	r.Locked = true
	m.results[k] = r
	return true, nil
}

func (m *memoryStore) IsLocked(_ context.Context, studentID, packageID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[rkey(studentID, packageID)]
	if !ok {
		return false, ErrNotFound
	}
	return r.Locked, nil
}

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/models"
)

// InMemoryStore is an in-memory implementation of Store for tests or local use.
// It is safe for concurrent access but does not persist across process restarts.
type InMemoryStore struct {
	mu       sync.RWMutex
	students map[string]models.ScoreSet
}

// NewInMemoryStore constructs an empty in-memory score store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{students: make(map[string]models.ScoreSet)}
}

// Save stores or overwrites the score set for a student.
func (s *InMemoryStore) Save(_ context.Context, studentID string, scores models.ScoreSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[studentID] = scores.Copy()
	return nil
}

// Find retrieves a copy of a student's score set or returns ErrNotFound.
func (s *InMemoryStore) Find(_ context.Context, studentID string) (models.ScoreSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if scores, ok := s.students[studentID]; ok {
		return scores.Copy(), nil
	}
	return nil, ErrNotFound
}

// Delete removes a student or returns ErrNotFound.
func (s *InMemoryStore) Delete(_ context.Context, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[studentID]; !ok {
		return ErrNotFound
	}
	delete(s.students, studentID)
	return nil
}

// List returns all student IDs in stable order.
func (s *InMemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.students))
	for id := range s.students {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

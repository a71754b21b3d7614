package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/models"
	pkgerrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// fileDocument is the on-disk shape of the registry.
type fileDocument struct {
	Students map[string]struct {
		Scores models.ScoreSet `json:"scores"`
	} `json:"students"`
}

// FileStore persists the registry to a single JSON document. Every mutation
// rewrites the file; reads are served from memory. Safe for concurrent use
// within one process; it is not a multi-process database.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	students map[string]models.ScoreSet
}

// NewFileStore opens (or creates) the JSON document at path.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, students: make(map[string]models.ScoreSet)}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := fs.persistLocked(); err != nil {
				return nil, err
			}
			return fs, nil
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not read registry file")
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "corrupt registry file")
	}
	for id, record := range doc.Students {
		fs.students[id] = record.Scores.Copy()
	}
	return fs, nil
}

// Save stores or overwrites the score set for a student and rewrites the file.
func (s *FileStore) Save(_ context.Context, studentID string, scores models.ScoreSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[studentID] = scores.Copy()
	return s.persistLocked()
}

// Find retrieves a copy of a student's score set or returns ErrNotFound.
func (s *FileStore) Find(_ context.Context, studentID string) (models.ScoreSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if scores, ok := s.students[studentID]; ok {
		return scores.Copy(), nil
	}
	return nil, ErrNotFound
}

// Delete removes a student and rewrites the file.
func (s *FileStore) Delete(_ context.Context, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[studentID]; !ok {
		return ErrNotFound
	}
	delete(s.students, studentID)
	return s.persistLocked()
}

// List returns all student IDs in stable order.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.students))
	for id := range s.students {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) persistLocked() error {
	doc := fileDocument{Students: make(map[string]struct {
		Scores models.ScoreSet `json:"scores"`
	}, len(s.students))}
	for id, scores := range s.students {
		doc.Students[id] = struct {
			Scores models.ScoreSet `json:"scores"`
		}{Scores: scores}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not encode registry")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not create registry directory")
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeStorageError, "could not write registry file")
	}
	return nil
}

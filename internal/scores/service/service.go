// Package service implements the score registry: the system of record for
// per-student score sets that credential issuance reads from.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/models"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/store"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// Option configures the registry service.
type Option func(*Service)

// Service owns all mutations of the score registry. Compound updates
// (read-merge-write) serialize on the service's writer lock so issuance
// reads always observe a consistent snapshot; last committed write wins.
type Service struct {
	writeMu sync.Mutex
	store   store.Store
	logger  *slog.Logger
}

// NewService creates a registry service backed by the given store.
func NewService(st store.Store, opts ...Option) *Service {
	svc := &Service{store: st}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// AddStudent registers a new student with an initial score set.
// Adding an existing student is a conflict; use UpdateScores instead.
func (s *Service) AddStudent(ctx context.Context, studentID string, scores models.ScoreSet) error {
	if studentID == "" {
		return dErrors.New(dErrors.CodeValidation, "student_id is required")
	}
	if err := scores.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.store.Find(ctx, studentID); err == nil {
		return dErrors.New(dErrors.CodeConflict, "student already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err := s.store.Save(ctx, studentID, scores); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "student registered", "student_id", studentID, "score_types", len(scores))
	}
	return nil
}

// UpdateScores merges new values into an existing student's score set.
// Unmentioned score types are preserved; mentioned ones take the new value.
func (s *Service) UpdateScores(ctx context.Context, studentID string, scores models.ScoreSet) error {
	if err := scores.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.store.Find(ctx, studentID)
	if err != nil {
		return err
	}
	for label, value := range scores {
		current[label] = value
	}
	return s.store.Save(ctx, studentID, current)
}

// Scores returns a copy of a student's score set.
func (s *Service) Scores(ctx context.Context, studentID string) (models.ScoreSet, error) {
	return s.store.Find(ctx, studentID)
}

// HasStudent reports whether the student exists.
func (s *Service) HasStudent(ctx context.Context, studentID string) bool {
	_, err := s.store.Find(ctx, studentID)
	return err == nil
}

// DeleteStudent removes a student and their scores.
func (s *Service) DeleteStudent(ctx context.Context, studentID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.store.Delete(ctx, studentID)
}

// ListStudents returns all registered student IDs.
func (s *Service) ListStudents(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

package store

import (
	"context"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/models"
	pkgerrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across implementations.
	ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "student not found")
)

// Store persists per-student score sets. Implementations must be safe for
// concurrent use and must return copies, never internal references.
type Store interface {
	Save(ctx context.Context, studentID string, scores models.ScoreSet) error
	Find(ctx context.Context, studentID string) (models.ScoreSet, error)
	Delete(ctx context.Context, studentID string) error
	List(ctx context.Context) ([]string, error)
}

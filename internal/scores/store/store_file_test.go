package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/models"
)

type FileStoreSuite struct {
	suite.Suite
	path string
}

func TestFileStoreSuite(t *testing.T) {
	suite.Run(t, new(FileStoreSuite))
}

func (s *FileStoreSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "registry.json")
}

func (s *FileStoreSuite) TestPersistsAcrossReopen() {
	ctx := context.Background()

	first, err := NewFileStore(s.path)
	s.Require().NoError(err)
	s.Require().NoError(first.Save(ctx, "s1", models.ScoreSet{"gpa": 3.8, "sat": 1450}))

	reopened, err := NewFileStore(s.path)
	s.Require().NoError(err)

	scores, err := reopened.Find(ctx, "s1")
	s.Require().NoError(err)
	s.Equal(3.8, scores["gpa"])
	s.Equal(1450.0, scores["sat"])
}

func (s *FileStoreSuite) TestDeletePersists() {
	ctx := context.Background()

	first, err := NewFileStore(s.path)
	s.Require().NoError(err)
	s.Require().NoError(first.Save(ctx, "s1", models.ScoreSet{"gpa": 3.8}))
	s.Require().NoError(first.Delete(ctx, "s1"))

	reopened, err := NewFileStore(s.path)
	s.Require().NoError(err)
	_, err = reopened.Find(ctx, "s1")
	s.ErrorIs(err, ErrNotFound)
}

func (s *FileStoreSuite) TestCorruptFileIsRejected() {
	s.Require().NoError(os.WriteFile(s.path, []byte("{not json"), 0o600))
	_, err := NewFileStore(s.path)
	s.Error(err)
}

func (s *FileStoreSuite) TestCreatesFileOnFirstOpen() {
	_, err := NewFileStore(s.path)
	s.Require().NoError(err)
	_, err = os.Stat(s.path)
	s.NoError(err)
}

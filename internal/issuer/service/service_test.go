package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	scoremodels "github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/models"
	scoreservice "github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/service"
	scorestore "github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/store"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/signing"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

type IssuerServiceSuite struct {
	suite.Suite
	registry *scoreservice.Service
	svc      *Service
}

func TestIssuerServiceSuite(t *testing.T) {
	suite.Run(t, new(IssuerServiceSuite))
}

func (s *IssuerServiceSuite) SetupSuite() {
	priv, pub, err := signing.GenerateKeyPair(2048)
	s.Require().NoError(err)
	s.registry = scoreservice.NewService(scorestore.NewInMemoryStore())
	s.svc = NewService("SchoolA", s.registry, priv, pub,
		WithClock(func() time.Time { return time.Unix(1735689600, 0) }))
}

func (s *IssuerServiceSuite) SetupTest() {
	ctx := context.Background()
	if s.registry.HasStudent(ctx, "s1") {
		s.Require().NoError(s.registry.DeleteStudent(ctx, "s1"))
	}
	s.Require().NoError(s.registry.AddStudent(ctx, "s1", scoremodels.ScoreSet{"gpa": 3.8}))
}

func (s *IssuerServiceSuite) TestIssueCredential() {
	signed, err := s.svc.IssueCredential(context.Background(), "s1", "gpa")
	s.Require().NoError(err)

	s.Equal("SchoolA", signed.Credential.Issuer)
	s.Equal("s1", signed.Credential.IssuedTo)
	s.Equal("gpa", signed.Credential.ScoreType)
	s.Equal(3.8, signed.Credential.ScoreValue)
	s.Equal(int64(1735689600), signed.Credential.IssuedAt)
	s.Require().NoError(signed.Validate())

	s.True(s.svc.VerifyCredential(signed.Credential, signed.Signature))
}

func (s *IssuerServiceSuite) TestUnknownStudent() {
	_, err := s.svc.IssueCredential(context.Background(), "ghost", "gpa")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *IssuerServiceSuite) TestUnknownScoreType() {
	_, err := s.svc.IssueCredential(context.Background(), "s1", "sat")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *IssuerServiceSuite) TestReIssuanceMintsDistinctCredentials() {
	ctx := context.Background()
	first, err := s.svc.IssueCredential(ctx, "s1", "gpa")
	s.Require().NoError(err)
	second, err := s.svc.IssueCredential(ctx, "s1", "gpa")
	s.Require().NoError(err)

	s.NotEqual(first.Credential.CredentialID, second.Credential.CredentialID)
	s.Equal(first.Credential.ScoreValue, second.Credential.ScoreValue)
}

func (s *IssuerServiceSuite) TestCredentialCopiesValueAtIssuance() {
	ctx := context.Background()
	signed, err := s.svc.IssueCredential(ctx, "s1", "gpa")
	s.Require().NoError(err)

	// A later registry update leaves the issued credential untouched and
	// still verifying.
	s.Require().NoError(s.registry.UpdateScores(ctx, "s1", scoremodels.ScoreSet{"gpa": 2.0}))
	s.Equal(3.8, signed.Credential.ScoreValue)
	s.True(s.svc.VerifyCredential(signed.Credential, signed.Signature))
}

func (s *IssuerServiceSuite) TestTamperedCredentialFailsSelfCheck() {
	signed, err := s.svc.IssueCredential(context.Background(), "s1", "gpa")
	s.Require().NoError(err)

	tampered := signed.Credential
	tampered.ScoreValue = 4.0
	s.False(s.svc.VerifyCredential(tampered, signed.Signature))
	s.False(s.svc.VerifyCredential(signed.Credential, "not-base64!"))
}

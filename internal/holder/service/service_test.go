package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/credential"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/store"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend/stub"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// countingBackend wraps the stub and counts compile and setup runs so tests
// can assert artifact reuse.
type countingBackend struct {
	*stub.Backend
	compiles atomic.Int64
	setups   atomic.Int64
}

func (c *countingBackend) Compile(ctx context.Context, circuitPath, outDir string) (*zkbackend.CircuitArtifact, error) {
	c.compiles.Add(1)
	return c.Backend.Compile(ctx, circuitPath, outDir)
}

func (c *countingBackend) Setup(ctx context.Context, artifact *zkbackend.CircuitArtifact, crsPath string) (*zkbackend.Keys, error) {
	c.setups.Add(1)
	return c.Backend.Setup(ctx, artifact, crsPath)
}

type HolderServiceSuite struct {
	suite.Suite
	backend *countingBackend
	svc     *Service
}

func TestHolderServiceSuite(t *testing.T) {
	suite.Run(t, new(HolderServiceSuite))
}

func (s *HolderServiceSuite) SetupTest() {
	s.backend = &countingBackend{Backend: stub.New()}
	s.svc = NewService("s1",
		store.NewInMemoryCredentialStore(),
		store.NewInMemoryProofStore(),
		s.backend,
		"circuits/score_ge.circom")
}

func (s *HolderServiceSuite) storeCredential(id string, score float64) credential.SignedCredential {
	cred := credential.SignedCredential{
		Credential: credential.Credential{
			CredentialID: id,
			Issuer:       "SchoolA",
			IssuedTo:     "s1",
			ScoreType:    "gpa",
			ScoreValue:   score,
			IssuedAt:     1735689600,
		},
		Signature: "c2lnbmF0dXJl",
	}
	stored, err := s.svc.StoreCredential(context.Background(), cred)
	s.Require().NoError(err)
	s.Require().True(stored)
	return cred
}

func (s *HolderServiceSuite) TestStoreCredentialSemantics() {
	ctx := context.Background()
	cred := s.storeCredential("11111111-1111-1111-1111-111111111111", 3.8)

	// Identical re-store is accepted.
	stored, err := s.svc.StoreCredential(ctx, cred)
	s.Require().NoError(err)
	s.True(stored)

	// Different content under the same ID is refused without overwrite.
	tampered := cred
	tampered.Credential.ScoreValue = 4.0
	stored, err = s.svc.StoreCredential(ctx, tampered)
	s.Require().NoError(err)
	s.False(stored)

	got, err := s.svc.GetCredential(ctx, cred.Credential.CredentialID)
	s.Require().NoError(err)
	s.Equal(3.8, got.Credential.ScoreValue)
}

func (s *HolderServiceSuite) TestStoreCredentialRejectsMalformed() {
	_, err := s.svc.StoreCredential(context.Background(), credential.SignedCredential{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *HolderServiceSuite) TestGenerateProofSatisfiedThreshold() {
	ctx := context.Background()
	cred := s.storeCredential("11111111-1111-1111-1111-111111111111", 3.8)

	bundle, err := s.svc.GenerateProof(ctx, cred.Credential.CredentialID, 3.5, 100)
	s.Require().NoError(err)

	s.Equal(cred.Credential.CredentialID, bundle.Metadata.CredentialID)
	s.Equal("SchoolA", bundle.Metadata.CredentialIssuer)
	s.Equal("gpa", bundle.Metadata.ScoreType)
	s.Equal(3.5, bundle.Metadata.Threshold)
	s.Equal("s1", bundle.Metadata.StudentID)
	s.Equal(100, bundle.Metadata.ScaleFactor)

	// The bundle the holder hands out actually verifies.
	vk, err := s.svc.VerificationKeyPath(ctx)
	s.Require().NoError(err)
	ok, err := s.backend.Verify(ctx, vk, bundle.Proof, bundle.Public)
	s.Require().NoError(err)
	s.True(ok)

	// And it was persisted.
	saved, err := s.svc.GetProof(ctx, cred.Credential.CredentialID)
	s.Require().NoError(err)
	s.Equal(bundle.Metadata, saved.Metadata)
}

func (s *HolderServiceSuite) TestGenerateProofUnknownCredential() {
	_, err := s.svc.GenerateProof(context.Background(), "99999999-9999-9999-9999-999999999999", 3.5, 100)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *HolderServiceSuite) TestGenerateProofUnsatisfiedThreshold() {
	cred := s.storeCredential("11111111-1111-1111-1111-111111111111", 3.2)

	_, err := s.svc.GenerateProof(context.Background(), cred.Credential.CredentialID, 3.5, 100)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBackendError))

	// Nothing partial was persisted.
	_, err = s.svc.GetProof(context.Background(), cred.Credential.CredentialID)
	s.ErrorIs(err, store.ErrProofNotFound)
}

func (s *HolderServiceSuite) TestGenerateProofDoesNotDiscloseScore() {
	cred := s.storeCredential("11111111-1111-1111-1111-111111111111", 3.8)

	bundle, err := s.svc.GenerateProof(context.Background(), cred.Credential.CredentialID, 3.5, 100)
	s.Require().NoError(err)

	data, err := json.Marshal(bundle)
	s.Require().NoError(err)
	serialized := string(data)
	s.NotContains(serialized, "score_value")
	s.NotContains(serialized, "3.8")
	s.NotContains(serialized, "380")
}

func (s *HolderServiceSuite) TestGenerateProofDefaultsScaleFactor() {
	cred := s.storeCredential("11111111-1111-1111-1111-111111111111", 3.8)

	bundle, err := s.svc.GenerateProof(context.Background(), cred.Credential.CredentialID, 3.5, 0)
	s.Require().NoError(err)
	s.Equal(100, bundle.Metadata.ScaleFactor)
}

func (s *HolderServiceSuite) TestCircuitArtifactsReused() {
	ctx := context.Background()
	cred := s.storeCredential("11111111-1111-1111-1111-111111111111", 3.8)

	_, err := s.svc.GenerateProof(ctx, cred.Credential.CredentialID, 3.5, 100)
	s.Require().NoError(err)
	_, err = s.svc.GenerateProof(ctx, cred.Credential.CredentialID, 3.0, 100)
	s.Require().NoError(err)

	s.Equal(int64(1), s.backend.compiles.Load())
	s.Equal(int64(1), s.backend.setups.Load())
}

func (s *HolderServiceSuite) TestGenerateProofHonorsCancellation() {
	cred := s.storeCredential("11111111-1111-1111-1111-111111111111", 3.8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.svc.GenerateProof(ctx, cred.Credential.CredentialID, 3.5, 100)
	s.Require().Error(err)
	s.True(strings.Contains(err.Error(), "context canceled") || dErrors.HasCode(err, dErrors.CodeBackendError))

	_, err = s.svc.GetProof(context.Background(), cred.Credential.CredentialID)
	s.ErrorIs(err, store.ErrProofNotFound)
}

func (s *HolderServiceSuite) TestDeleteCredential() {
	ctx := context.Background()
	cred := s.storeCredential("11111111-1111-1111-1111-111111111111", 3.8)

	all, err := s.svc.ListCredentials(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)

	s.Require().NoError(s.svc.DeleteCredential(ctx, cred.Credential.CredentialID))
	_, err = s.svc.GetCredential(ctx, cred.Credential.CredentialID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *HolderServiceSuite) TestNoCircuitConfigured() {
	svc := NewService("s1", store.NewInMemoryCredentialStore(), store.NewInMemoryProofStore(), stub.New(), "")
	cred := credential.SignedCredential{
		Credential: credential.Credential{
			CredentialID: "11111111-1111-1111-1111-111111111111",
			Issuer:       "SchoolA",
			IssuedTo:     "s1",
			ScoreType:    "gpa",
			ScoreValue:   3.8,
			IssuedAt:     1735689600,
		},
		Signature: "c2lnbmF0dXJl",
	}
	_, err := svc.StoreCredential(context.Background(), cred)
	s.Require().NoError(err)

	_, err = svc.GenerateProof(context.Background(), cred.Credential.CredentialID, 3.5, 100)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

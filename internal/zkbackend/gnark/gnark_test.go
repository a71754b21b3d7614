package gnark

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend"
)

// The Groth16 pipeline is slow compared to unit tests; the suite compiles
// and sets up the circuit once and shares the artifacts across tests.
type GnarkBackendSuite struct {
	suite.Suite
	backend  *Backend
	artifact *zkbackend.CircuitArtifact
	keys     *zkbackend.Keys
}

func TestGnarkBackendSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gnark pipeline in short mode")
	}
	suite.Run(t, new(GnarkBackendSuite))
}

func (s *GnarkBackendSuite) SetupSuite() {
	s.backend = New()
	ctx := context.Background()
	dir := s.T().TempDir()

	artifact, err := s.backend.Compile(ctx, DefaultCircuit, dir)
	s.Require().NoError(err)
	s.artifact = artifact

	keys, err := s.backend.Setup(ctx, artifact, "")
	s.Require().NoError(err)
	s.keys = keys
}

func (s *GnarkBackendSuite) prove(score, threshold int64) (*zkbackend.Proof, error) {
	ctx := context.Background()
	w, err := s.backend.ComputeWitness(ctx, s.artifact,
		zkbackend.Inputs{zkbackend.InputScore: score},
		zkbackend.Inputs{zkbackend.InputThreshold: threshold})
	if err != nil {
		return nil, err
	}
	return s.backend.Prove(ctx, s.keys, w)
}

func (s *GnarkBackendSuite) TestSatisfiedConstraintVerifies() {
	proof, err := s.prove(380, 350)
	s.Require().NoError(err)

	ok, err := s.backend.Verify(context.Background(), s.keys.VerificationKey, proof.Proof, proof.PublicSignals)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *GnarkBackendSuite) TestEqualScoreAndThresholdVerifies() {
	proof, err := s.prove(350, 350)
	s.Require().NoError(err)

	ok, err := s.backend.Verify(context.Background(), s.keys.VerificationKey, proof.Proof, proof.PublicSignals)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *GnarkBackendSuite) TestUnsatisfiedConstraintFailsToProve() {
	_, err := s.prove(340, 350)
	s.Error(err)
}

func (s *GnarkBackendSuite) TestProofForOtherThresholdDoesNotVerify() {
	proof, err := s.prove(380, 350)
	s.Require().NoError(err)

	// Public signals from a different threshold must not validate the proof.
	other, err := s.prove(380, 360)
	s.Require().NoError(err)

	ok, err := s.backend.Verify(context.Background(), s.keys.VerificationKey, proof.Proof, other.PublicSignals)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *GnarkBackendSuite) TestVerifyRejectsGarbageWithoutError() {
	ok, err := s.backend.Verify(context.Background(), s.keys.VerificationKey,
		json.RawMessage(`{"curve":"bn254","data":"bm90IGEgcHJvb2Y="}`),
		json.RawMessage(`{"curve":"bn254","data":"bm90IHNpZ25hbHM="}`))
	s.NoError(err)
	s.False(ok)
}

func (s *GnarkBackendSuite) TestUnknownCircuitName() {
	_, err := s.backend.Compile(context.Background(), "no_such_circuit", s.T().TempDir())
	s.Error(err)
}

func TestWitnessArity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gnark pipeline in short mode")
	}
	b := New()
	ctx := context.Background()
	artifact, err := b.Compile(ctx, DefaultCircuit, t.TempDir())
	require.NoError(t, err)

	_, err = b.ComputeWitness(ctx, artifact, zkbackend.Inputs{}, zkbackend.Inputs{zkbackend.InputThreshold: 350})
	require.Error(t, err)

	_, err = b.ComputeWitness(ctx, artifact, zkbackend.Inputs{zkbackend.InputScore: 380}, zkbackend.Inputs{})
	require.Error(t, err)
}

// Package service implements the credential holder: the subject-side wallet
// that stores received credentials and generates threshold proofs from them.
package service

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/credential"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/models"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/store"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/config"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// Option configures the holder service.
type Option func(*Service)

// Service is the wallet for one subject. Proof generation runs the full
// backend pipeline; circuit compilation and trusted setup happen once per
// circuit path and are reused across proofs.
type Service struct {
	studentID   string
	credentials store.CredentialStore
	proofs      store.ProofStore
	backend     zkbackend.Backend
	circuitPath string
	crsPath     string
	workDir     string
	logger      *slog.Logger

	group     singleflight.Group
	mu        sync.RWMutex
	artifacts map[string]*circuitSetup
}

// circuitSetup pairs a compiled circuit with its keys.
type circuitSetup struct {
	artifact *zkbackend.CircuitArtifact
	keys     *zkbackend.Keys
}

// NewService creates a holder for the given subject.
func NewService(studentID string, credentials store.CredentialStore, proofs store.ProofStore, backend zkbackend.Backend, circuitPath string, opts ...Option) *Service {
	svc := &Service{
		studentID:   studentID,
		credentials: credentials,
		proofs:      proofs,
		backend:     backend,
		circuitPath: circuitPath,
		artifacts:   make(map[string]*circuitSetup),
	}
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

// WithCRS configures the path of the prepared common reference string for
// backends whose setup needs one.
func WithCRS(path string) Option {
	return func(s *Service) {
		s.crsPath = path
	}
}

// WithWorkDir configures where compiled artifacts are written. Empty means
// the circuit's own directory.
func WithWorkDir(dir string) Option {
	return func(s *Service) {
		s.workDir = dir
	}
}

// StudentID returns the subject this wallet belongs to.
func (s *Service) StudentID() string {
	return s.studentID
}

// StoreCredential saves a received credential. It reports whether the
// credential is held after the call: re-storing an identical credential is a
// no-op reporting true, while a conflicting credential under a held ID is
// refused with false.
func (s *Service) StoreCredential(ctx context.Context, cred credential.SignedCredential) (bool, error) {
	if err := cred.Validate(); err != nil {
		return false, err
	}
	stored, err := s.credentials.Save(ctx, cred)
	if err != nil {
		return false, err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential stored",
			"credential_id", cred.Credential.CredentialID,
			"issuer", cred.Credential.Issuer,
			"accepted", stored)
	}
	return stored, nil
}

// GetCredential returns a held credential by ID.
func (s *Service) GetCredential(ctx context.Context, credentialID string) (credential.SignedCredential, error) {
	return s.credentials.Find(ctx, credentialID)
}

// ListCredentials returns all held credentials.
func (s *Service) ListCredentials(ctx context.Context) ([]credential.SignedCredential, error) {
	return s.credentials.List(ctx)
}

// DeleteCredential removes a credential from the wallet.
func (s *Service) DeleteCredential(ctx context.Context, credentialID string) error {
	return s.credentials.Delete(ctx, credentialID)
}

// GetProof returns the latest proof bundle generated for a credential.
func (s *Service) GetProof(ctx context.Context, credentialID string) (models.ProofBundle, error) {
	return s.proofs.Find(ctx, credentialID)
}

// GenerateProof produces a proof bundle showing the credential's score meets
// or exceeds the threshold, without the bundle revealing the score. The
// score and threshold are scaled to fixed-point integers before entering the
// circuit; the metadata keeps the original decimal threshold. A zero or
// negative scale factor falls back to the default.
//
// The pipeline aborts between stages when ctx is cancelled, and nothing is
// persisted until the proof is complete.
func (s *Service) GenerateProof(ctx context.Context, credentialID string, threshold float64, scaleFactor int) (models.ProofBundle, error) {
	if scaleFactor <= 0 {
		scaleFactor = config.DefaultScaleFactor
	}

	cred, err := s.credentials.Find(ctx, credentialID)
	if err != nil {
		return models.ProofBundle{}, err
	}

	setup, err := s.ensureCircuit(ctx, s.circuitPath)
	if err != nil {
		return models.ProofBundle{}, err
	}

	scoreInt := models.ScaleToInt(cred.Credential.ScoreValue, scaleFactor)
	thresholdInt := models.ScaleToInt(threshold, scaleFactor)

	wit, err := s.backend.ComputeWitness(ctx, setup.artifact,
		zkbackend.Inputs{zkbackend.InputScore: scoreInt},
		zkbackend.Inputs{zkbackend.InputThreshold: thresholdInt})
	if err != nil {
		return models.ProofBundle{}, err
	}

	proof, err := s.backend.Prove(ctx, setup.keys, wit)
	if err != nil {
		return models.ProofBundle{}, err
	}

	bundle := models.ProofBundle{
		Proof:  proof.Proof,
		Public: proof.PublicSignals,
		Metadata: models.ProofMetadata{
			CredentialID:     credentialID,
			CredentialIssuer: cred.Credential.Issuer,
			ScoreType:        cred.Credential.ScoreType,
			Threshold:        threshold,
			StudentID:        s.studentID,
			ScaleFactor:      scaleFactor,
		},
	}
	if err := s.proofs.Save(ctx, credentialID, bundle); err != nil {
		return models.ProofBundle{}, err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "proof generated",
			"credential_id", credentialID,
			"threshold", threshold,
			"scale_factor", scaleFactor)
	}
	return bundle, nil
}

// VerificationKeyPath compiles and sets up the circuit if needed and returns
// the verification key handle a verifier should check proofs against.
func (s *Service) VerificationKeyPath(ctx context.Context) (string, error) {
	setup, err := s.ensureCircuit(ctx, s.circuitPath)
	if err != nil {
		return "", err
	}
	return setup.keys.VerificationKey, nil
}

// ensureCircuit runs compile and setup once per circuit path. Concurrent
// callers for the same path share a single pipeline run; a failed run is not
// cached so the next call retries.
func (s *Service) ensureCircuit(ctx context.Context, circuitPath string) (*circuitSetup, error) {
	if circuitPath == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "no circuit configured")
	}

	s.mu.RLock()
	cached, ok := s.artifacts[circuitPath]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := s.group.Do(circuitPath, func() (any, error) {
		artifact, err := s.backend.Compile(ctx, circuitPath, s.workDir)
		if err != nil {
			return nil, err
		}
		keys, err := s.backend.Setup(ctx, artifact, s.crsPath)
		if err != nil {
			return nil, err
		}
		setup := &circuitSetup{artifact: artifact, keys: keys}
		s.mu.Lock()
		s.artifacts[circuitPath] = setup
		s.mu.Unlock()
		return setup, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*circuitSetup), nil
}

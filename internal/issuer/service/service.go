// Package service implements the signing organization: it reads a subject's
// score from the registry and issues a signed credential attesting to it.
package service

import (
	"context"
	"crypto/rsa"
	"log/slog"
	"time"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/credential"
	scoremodels "github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/models"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/signing"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// ScoreSource is where the issuer reads attested values from.
type ScoreSource interface {
	Scores(ctx context.Context, studentID string) (scoremodels.ScoreSet, error)
}

// Option configures the issuer service.
type Option func(*Service)

// Service issues credentials under one organization's signing key. The
// credential captures the score value at issuance time; later registry
// updates do not affect credentials already issued.
type Service struct {
	name   string
	scores ScoreSource
	priv   *rsa.PrivateKey
	pub    *rsa.PublicKey
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates an issuer signing with the given key pair.
func NewService(name string, scores ScoreSource, priv *rsa.PrivateKey, pub *rsa.PublicKey, opts ...Option) *Service {
	svc := &Service{name: name, scores: scores, priv: priv, pub: pub, now: time.Now}
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

// WithClock overrides the issuance timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Name returns the issuing organization's name.
func (s *Service) Name() string {
	return s.name
}

// PublicKey returns the key credentials verify against.
func (s *Service) PublicKey() *rsa.PublicKey {
	return s.pub
}

// PublicKeyPEM returns the public key in PKIX PEM form for distribution to
// verifiers.
func (s *Service) PublicKeyPEM() ([]byte, error) {
	return signing.MarshalPublicKey(s.pub)
}

// IssueCredential issues a fresh signed credential for one of the subject's
// scores. An unknown subject or score type yields not_found and no
// credential. Every call mints a new credential ID, so re-issuance for the
// same subject and score type produces distinct credentials.
func (s *Service) IssueCredential(ctx context.Context, studentID, scoreType string) (credential.SignedCredential, error) {
	scores, err := s.scores.Scores(ctx, studentID)
	if err != nil {
		return credential.SignedCredential{}, err
	}
	value, ok := scores[scoreType]
	if !ok {
		return credential.SignedCredential{}, dErrors.New(dErrors.CodeNotFound, "score type not found for student")
	}

	cred := credential.Credential{
		CredentialID: credential.NewID(),
		Issuer:       s.name,
		IssuedTo:     studentID,
		ScoreType:    scoreType,
		ScoreValue:   value,
		IssuedAt:     s.now().Unix(),
	}
	sig, err := signing.Sign(s.priv, cred)
	if err != nil {
		return credential.SignedCredential{}, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential issued",
			"credential_id", cred.CredentialID,
			"issued_to", studentID,
			"score_type", scoreType)
	}
	return credential.SignedCredential{
		Credential: cred,
		Signature:  signing.EncodeSignature(sig),
	}, nil
}

// VerifyCredential self-checks a credential against this issuer's own
// public key.
func (s *Service) VerifyCredential(cred credential.Credential, signature string) bool {
	sig, err := signing.DecodeSignature(signature)
	if err != nil {
		return false
	}
	return signing.Verify(s.pub, cred, sig)
}

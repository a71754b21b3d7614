// Package service implements the verifying institution: it checks proof
// bundles against a verification key and vouches for the issuing
// organization through a trust registry.
package service

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log/slog"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/credential"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/models"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/signing"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/verifier/trust"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// Reason classifies why a verification was rejected.
type Reason string

const (
	ReasonBackendUnavailable       Reason = "backend_unavailable"
	ReasonCryptographicallyInvalid Reason = "cryptographically_invalid"
	ReasonThresholdMismatch        Reason = "threshold_mismatch"
	ReasonScaleFactorMismatch      Reason = "scale_factor_mismatch"
	ReasonIssuerMismatch           Reason = "issuer_mismatch"
	ReasonSignatureInvalid         Reason = "signature_invalid"
)

// Result is the outcome of a verification. Metadata is echoed back on
// success so the caller can act on what was proven; Reason and Message are
// set on rejection.
type Result struct {
	Valid    bool                  `json:"valid"`
	Reason   Reason                `json:"reason,omitempty"`
	Message  string                `json:"message,omitempty"`
	Metadata *models.ProofMetadata `json:"metadata,omitempty"`
}

func rejected(reason Reason, message string) Result {
	return Result{Valid: false, Reason: reason, Message: message}
}

// Expectation carries the verifier's own requirements. A nil Threshold
// accepts whatever the bundle claims. A zero ScaleFactor accepts the
// bundle's factor.
type Expectation struct {
	Threshold   *float64
	ScaleFactor int
}

// Option configures the verifier service.
type Option func(*Service)

// Service verifies proof bundles for one institution.
type Service struct {
	institution string
	backend     zkbackend.Backend
	registry    *trust.Registry
	logger      *slog.Logger
}

// NewService creates a verifier for the named institution.
func NewService(institution string, backend zkbackend.Backend, registry *trust.Registry, opts ...Option) *Service {
	if registry == nil {
		registry = trust.NewRegistry()
	}
	svc := &Service{institution: institution, backend: backend, registry: registry}
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

// Institution returns the verifying institution's name.
func (s *Service) Institution() string {
	return s.institution
}

// AddTrustedIssuer registers (or re-keys) an issuer in the trust registry.
func (s *Service) AddTrustedIssuer(name string, pub *rsa.PublicKey) error {
	return s.registry.Add(name, pub)
}

// TrustedIssuers returns the names of all registered issuers.
func (s *Service) TrustedIssuers() []string {
	return s.registry.Names()
}

// VerifyProof checks a proof bundle against the verification key.
//
// The verifier's own expectations are checked before any cryptography: a
// threshold or scale-factor mismatch rejects the bundle without invoking the
// backend, since a proof about the wrong statement is worthless even when it
// verifies. Only a malformed bundle is an error; every verification outcome,
// including an unusable backend, is reported in the Result.
func (s *Service) VerifyProof(ctx context.Context, bundle models.ProofBundle, verificationKey string, expect Expectation) (Result, error) {
	if err := bundle.Validate(); err != nil {
		return Result{}, err
	}

	if expect.Threshold != nil && *expect.Threshold != bundle.Metadata.Threshold {
		return rejected(ReasonThresholdMismatch, fmt.Sprintf(
			"proof was generated for threshold %v, but verifying against %v",
			bundle.Metadata.Threshold, *expect.Threshold)), nil
	}
	if expect.ScaleFactor != 0 && expect.ScaleFactor != bundle.Metadata.ScaleFactor {
		return rejected(ReasonScaleFactorMismatch, fmt.Sprintf(
			"proof was scaled by %d, but verifier requires %d",
			bundle.Metadata.ScaleFactor, expect.ScaleFactor)), nil
	}

	ok, err := s.backend.Verify(ctx, verificationKey, bundle.Proof, bundle.Public)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBackendUnavailable) {
			return rejected(ReasonBackendUnavailable, "proving toolchain is unavailable"), nil
		}
		return Result{}, err
	}
	if !ok {
		s.log(ctx, "proof rejected", bundle, "reason", string(ReasonCryptographicallyInvalid))
		return rejected(ReasonCryptographicallyInvalid, "invalid zero-knowledge proof"), nil
	}

	s.log(ctx, "proof verified", bundle)
	meta := bundle.Metadata
	return Result{
		Valid:    true,
		Message:  fmt.Sprintf("score for %s is above threshold %v", meta.ScoreType, meta.Threshold),
		Metadata: &meta,
	}, nil
}

// VerifyWithIssuer checks the bundle's issuer claim against the named
// issuer. When the caller supplies the signed credential and the issuer's
// key is in the trust registry, the credential signature is re-verified as
// well; without the envelope only the name claim can be checked.
func (s *Service) VerifyWithIssuer(ctx context.Context, bundle models.ProofBundle, issuerName string, cred *credential.SignedCredential) (Result, error) {
	if err := bundle.Validate(); err != nil {
		return Result{}, err
	}

	if bundle.Metadata.CredentialIssuer != issuerName {
		return rejected(ReasonIssuerMismatch, fmt.Sprintf(
			"proof was issued by %s, but verifying with %s",
			bundle.Metadata.CredentialIssuer, issuerName)), nil
	}

	if cred != nil {
		if cred.Credential.CredentialID != bundle.Metadata.CredentialID {
			return rejected(ReasonIssuerMismatch, "credential does not match the proof bundle"), nil
		}
		if pub, ok := s.registry.Lookup(issuerName); ok {
			sig, err := signing.DecodeSignature(cred.Signature)
			if err != nil || !signing.Verify(pub, cred.Credential, sig) {
				s.log(ctx, "credential signature rejected", bundle, "issuer", issuerName)
				return rejected(ReasonSignatureInvalid, "credential signature does not verify against the issuer's key"), nil
			}
		}
	}

	meta := bundle.Metadata
	return Result{
		Valid:    true,
		Message:  fmt.Sprintf("credential %s verified with issuer %s", meta.CredentialID, issuerName),
		Metadata: &meta,
	}, nil
}

func (s *Service) log(ctx context.Context, msg string, bundle models.ProofBundle, extra ...any) {
	if s.logger == nil {
		return
	}
	args := append([]any{
		"institution", s.institution,
		"credential_id", bundle.Metadata.CredentialID,
		"issuer", bundle.Metadata.CredentialIssuer,
	}, extra...)
	s.logger.InfoContext(ctx, msg, args...)
}

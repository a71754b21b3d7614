// Package credential defines the credential data model shared by the
// issuer, holder, and verifier.
//
// A Credential is a signed attestation binding a subject to a score value
// for a score type. It is immutable after issuance: the signature covers
// the canonical encoding of the credential fields only, never the
// signature itself.
package credential

import (
	"bytes"
	"strings"

	"github.com/google/uuid"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/signing"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// Credential is the signed record payload. JSON field names are part of the
// wire protocol and must not change.
type Credential struct {
	CredentialID string  `json:"credential_id"`
	Issuer       string  `json:"issuer"`
	IssuedTo     string  `json:"issued_to"`
	ScoreType    string  `json:"score_type"`
	ScoreValue   float64 `json:"score_value"`
	IssuedAt     int64   `json:"issued_at"`
}

// SignedCredential is the transport envelope: the credential object plus
// its detached signature, base64-encoded.
type SignedCredential struct {
	Credential Credential `json:"credential"`
	Signature  string     `json:"signature"`
}

// NewID allocates a fresh credential ID. Every issuance gets its own.
func NewID() string {
	return uuid.NewString()
}

// Validate checks that the credential is well-formed.
func (c Credential) Validate() error {
	if strings.TrimSpace(c.CredentialID) == "" {
		return dErrors.New(dErrors.CodeValidation, "credential_id is required")
	}
	if _, err := uuid.Parse(c.CredentialID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "credential_id must be a UUID")
	}
	if strings.TrimSpace(c.Issuer) == "" {
		return dErrors.New(dErrors.CodeValidation, "issuer is required")
	}
	if strings.TrimSpace(c.IssuedTo) == "" {
		return dErrors.New(dErrors.CodeValidation, "issued_to is required")
	}
	if strings.TrimSpace(c.ScoreType) == "" {
		return dErrors.New(dErrors.CodeValidation, "score_type is required")
	}
	if c.IssuedAt <= 0 {
		return dErrors.New(dErrors.CodeValidation, "issued_at is required")
	}
	return nil
}

// Validate checks the envelope: a well-formed credential plus a present,
// decodable signature.
func (sc SignedCredential) Validate() error {
	if err := sc.Credential.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(sc.Signature) == "" {
		return dErrors.New(dErrors.CodeValidation, "signature is required")
	}
	if _, err := signing.DecodeSignature(sc.Signature); err != nil {
		return err
	}
	return nil
}

// Equal reports content equality based on the canonical encoding, so two
// envelopes compare equal exactly when they would verify identically.
func (sc SignedCredential) Equal(other SignedCredential) bool {
	if sc.Signature != other.Signature {
		return false
	}
	a, errA := signing.Canonicalize(sc.Credential)
	b, errB := signing.Canonicalize(other.Credential)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// Package models defines the holder-side proof bundle: the shareable
// artifact a subject hands to verifiers. A bundle carries the proof, its
// public signals, and verification metadata. It never carries the score.
package models

import (
	"encoding/json"
	"math"
	"strings"

	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// ProofMetadata is the public context a verifier needs to interpret a proof.
// Threshold stays in the original decimal units; ScaleFactor records how the
// circuit inputs were derived from it. JSON field names are wire protocol.
type ProofMetadata struct {
	CredentialID     string  `json:"credential_id"`
	CredentialIssuer string  `json:"credential_issuer"`
	ScoreType        string  `json:"score_type"`
	Threshold        float64 `json:"threshold"`
	StudentID        string  `json:"student_id"`
	ScaleFactor      int     `json:"scale_factor"`
}

// ProofBundle is what the holder shares. Proof and Public are in the
// backend's own JSON form and are opaque to everything but the backend.
type ProofBundle struct {
	Proof    json.RawMessage `json:"proof"`
	Public   json.RawMessage `json:"public"`
	Metadata ProofMetadata   `json:"metadata"`
}

// Validate checks a bundle is structurally complete.
func (b ProofBundle) Validate() error {
	if len(b.Proof) == 0 {
		return dErrors.New(dErrors.CodeValidation, "proof is required")
	}
	if len(b.Public) == 0 {
		return dErrors.New(dErrors.CodeValidation, "public signals are required")
	}
	if strings.TrimSpace(b.Metadata.CredentialID) == "" {
		return dErrors.New(dErrors.CodeValidation, "metadata.credential_id is required")
	}
	if strings.TrimSpace(b.Metadata.CredentialIssuer) == "" {
		return dErrors.New(dErrors.CodeValidation, "metadata.credential_issuer is required")
	}
	if b.Metadata.ScaleFactor <= 0 {
		return dErrors.New(dErrors.CodeValidation, "metadata.scale_factor must be positive")
	}
	return nil
}

// ScaleToInt converts a decimal value to the fixed-point integer the circuit
// operates on. Fractional remainder beyond the factor's precision is
// truncated toward zero, so 3.999 at factor 100 becomes 399. Prover and
// verifier must agree on the factor or proofs are not comparable.
func ScaleToInt(value float64, factor int) int64 {
	return int64(math.Floor(value * float64(factor)))
}

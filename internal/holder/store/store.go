// Package store persists the holder's wallet: received credentials and the
// proof bundles generated from them.
package store

import (
	"context"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/credential"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/models"
	pkgerrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

var (
	// ErrCredentialNotFound signals an unknown credential ID.
	ErrCredentialNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "credential not found")
	// ErrProofNotFound signals that no proof has been generated for the ID.
	ErrProofNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "proof not found")
)

// CredentialStore holds signed credentials keyed by credential ID.
//
// Save reports whether the credential is stored after the call: storing a
// credential identical to one already held is a no-op that still reports
// true, while a different credential under an existing ID is refused with
// false and the stored one is left untouched.
type CredentialStore interface {
	Save(ctx context.Context, cred credential.SignedCredential) (bool, error)
	Find(ctx context.Context, credentialID string) (credential.SignedCredential, error)
	Delete(ctx context.Context, credentialID string) error
	List(ctx context.Context) ([]credential.SignedCredential, error)
}

// ProofStore holds generated proof bundles keyed by credential ID. A new
// proof for the same credential replaces the previous one.
type ProofStore interface {
	Save(ctx context.Context, credentialID string, bundle models.ProofBundle) error
	Find(ctx context.Context, credentialID string) (models.ProofBundle, error)
}

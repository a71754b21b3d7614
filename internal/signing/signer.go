package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"

	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// pssOpts fixes the PSS parameters for the protocol: MGF1 with SHA-256 and
// a salt the size of the hash. Both sides must use the same hash; the salt
// length is recovered from the signature on verify.
var pssOpts = &rsa.PSSOptions{
	SaltLength: rsa.PSSSaltLengthEqualsHash,
	Hash:       crypto.SHA256,
}

// Sign canonicalizes record and signs it with the private key.
// It fails only on unavailable key material or a non-serializable record.
func Sign(priv *rsa.PrivateKey, record any) ([]byte, error) {
	if priv == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "signing key unavailable")
	}
	payload, err := Canonicalize(record)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, digest[:], pssOpts)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not sign record")
	}
	return sig, nil
}

// Verify reports whether sig is a valid signature over the canonical
// encoding of record. It returns false, never an error, on malformed
// signature bytes, a wrong key, or a tampered payload.
func Verify(pub *rsa.PublicKey, record any, sig []byte) bool {
	if pub == nil || len(sig) == 0 {
		return false
	}
	payload, err := Canonicalize(record)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(payload)
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}
	return rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sig, opts) == nil
}

// EncodeSignature renders signature bytes in the base64 transport form.
func EncodeSignature(sig []byte) string {
	return base64.StdEncoding.EncodeToString(sig)
}

// DecodeSignature parses a base64 transport signature. Malformed input
// yields a signature_invalid error so callers can surface the taxonomy kind.
func DecodeSignature(encoded string) ([]byte, error) {
	sig, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSignatureInvalid, "malformed signature encoding")
	}
	return sig, nil
}

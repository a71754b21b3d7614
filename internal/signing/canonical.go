// Package signing implements the canonical credential signing scheme.
//
// Records are serialized to a canonical form before signing: key-sorted
// (lexicographic field names), UTF-8, whitespace-minimal JSON. Any two
// implementations of the protocol must produce byte-identical canonical
// encodings or cross-signature verification fails.
//
// Signatures are RSA-PSS over SHA-256. Signature generation is randomized
// (probabilistic salt) but verification is deterministic given the
// signature bytes.
package signing

import (
	"bytes"
	"encoding/json"

	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// Canonicalize serializes a record into its canonical signing form.
//
// The record is first marshaled, then re-decoded into generic form so that
// struct field declaration order cannot leak into the output: JSON objects
// are re-encoded with lexicographically sorted keys, compact separators,
// and no HTML escaping. Numbers pass through as their original literals.
func Canonicalize(record any) ([]byte, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "record is not serializable")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not canonicalize record")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not canonicalize record")
	}

	// Encoder appends a newline; the canonical form has none.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

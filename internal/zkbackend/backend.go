// Package zkbackend defines the contract for the zero-knowledge proof
// toolchain the protocol depends on.
//
// The pipeline has five stages: compile, setup, witness computation,
// proving, and verification. Each stage is pure with respect to its
// declared inputs. Artifacts (compiled circuits, proving and verification
// keys, witnesses) are opaque to the core; their paths are handles owned by
// the backend. Any conforming proof system is substitutable.
package zkbackend

import (
	"context"
	"encoding/json"

	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// Pipeline stage names, used in error wrapping and instrumentation labels.
const (
	StageCompile = "compile"
	StageSetup   = "setup"
	StageWitness = "witness"
	StageProve   = "prove"
	StageVerify  = "verify"
)

// Input variable names the threshold circuit expects.
const (
	InputScore     = "score"
	InputThreshold = "threshold"
)

// CircuitArtifact holds handles to a compiled circuit.
type CircuitArtifact struct {
	Name string `json:"name"`
	R1CS string `json:"r1cs"`
	// Wasm is the witness generator handle for toolchains that emit one.
	Wasm string `json:"wasm,omitempty"`
}

// Keys holds handles to the proving and verification keys produced by the
// trusted setup. R1CS records the circuit the keys were derived from, for
// provers that need the constraint system at proving time.
type Keys struct {
	ProvingKey      string `json:"proving_key"`
	VerificationKey string `json:"verification_key"`
	R1CS            string `json:"r1cs,omitempty"`
}

// Inputs maps circuit variable names to fixed-point integer values.
type Inputs map[string]int64

// Witness is a handle to a computed witness.
type Witness struct {
	Path string `json:"path"`
}

// Proof carries a generated proof and its public signals in the
// backend-specific JSON-compatible form.
type Proof struct {
	Proof         json.RawMessage `json:"proof"`
	PublicSignals json.RawMessage `json:"public"`
}

// Backend is the five-operation pipeline contract.
//
// Verify never returns a cryptographic failure as an error: structural or
// cryptographic invalidity yields (false, nil). Errors from Verify indicate
// the backend itself was unusable.
type Backend interface {
	Compile(ctx context.Context, circuitPath, outDir string) (*CircuitArtifact, error)
	Setup(ctx context.Context, artifact *CircuitArtifact, crsPath string) (*Keys, error)
	ComputeWitness(ctx context.Context, artifact *CircuitArtifact, private, public Inputs) (*Witness, error)
	Prove(ctx context.Context, keys *Keys, witness *Witness) (*Proof, error)
	Verify(ctx context.Context, verificationKey string, proof, publicSignals json.RawMessage) (bool, error)
}

// StageError wraps a pipeline stage failure with the backend_error code,
// keeping the stage name in the message. An unavailable-toolchain error
// passes through so callers can distinguish the two kinds.
func StageError(stage string, err error) error {
	if dErrors.HasCode(err, dErrors.CodeBackendUnavailable) {
		return err
	}
	return &dErrors.Error{
		Code:    dErrors.CodeBackendError,
		Message: "zk " + stage + " stage failed",
		Err:     err,
	}
}

// Unavailable reports the ZK toolchain as missing or unreachable.
func Unavailable(err error, detail string) error {
	return &dErrors.Error{
		Code:    dErrors.CodeBackendUnavailable,
		Message: detail,
		Err:     err,
	}
}

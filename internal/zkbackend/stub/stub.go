// Package stub provides a deterministic in-memory implementation of the ZK
// backend contract so the protocol core is testable without any external
// proving toolchain installed.
//
// The stub mirrors the real pipeline's failure surface: witness computation
// fails when the circuit constraint cannot be satisfied, proofs are
// deterministic given the witness, and verification returns false (never an
// error) on any structural or content mismatch.
package stub

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend"
)

const proofScheme = "stub-groth16"

// domainTag keeps stub digests distinct from any other sha256 use.
const domainTag = "zkpgpa-stub-v1"

// Backend is the stub implementation. The zero value is ready to use.
type Backend struct{}

// New returns a stub backend.
func New() *Backend {
	return &Backend{}
}

type stubProof struct {
	Scheme string `json:"scheme"`
	Digest string `json:"digest"`
}

type witnessPayload struct {
	Score     int64 `json:"score"`
	Threshold int64 `json:"threshold"`
}

// Compile accepts any circuit path and fabricates artifact handles from its
// base name.
func (b *Backend) Compile(ctx context.Context, circuitPath, outDir string) (*zkbackend.CircuitArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageCompile, err)
	}
	name := strings.TrimSuffix(filepath.Base(circuitPath), filepath.Ext(circuitPath))
	if name == "" || name == "." {
		return nil, zkbackend.StageError(zkbackend.StageCompile, errors.New("empty circuit name"))
	}
	return &zkbackend.CircuitArtifact{
		Name: name,
		R1CS: "stub://" + name + ".r1cs",
	}, nil
}

// Setup fabricates key handles for the artifact.
func (b *Backend) Setup(ctx context.Context, artifact *zkbackend.CircuitArtifact, _ string) (*zkbackend.Keys, error) {
	if err := ctx.Err(); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageSetup, err)
	}
	if artifact == nil || artifact.R1CS == "" {
		return nil, zkbackend.StageError(zkbackend.StageSetup, errors.New("missing circuit artifact"))
	}
	return &zkbackend.Keys{
		ProvingKey:      "stub://" + artifact.Name + ".zkey",
		VerificationKey: "stub://" + artifact.Name + ".vkey",
		R1CS:            artifact.R1CS,
	}, nil
}

// ComputeWitness checks circuit arity and the greater-or-equal constraint.
// An unsatisfiable assignment fails here, as it would with a real witness
// generator.
func (b *Backend) ComputeWitness(ctx context.Context, artifact *zkbackend.CircuitArtifact, private, public zkbackend.Inputs) (*zkbackend.Witness, error) {
	if err := ctx.Err(); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageWitness, err)
	}
	if artifact == nil {
		return nil, zkbackend.StageError(zkbackend.StageWitness, errors.New("missing circuit artifact"))
	}
	score, ok := private[zkbackend.InputScore]
	if !ok {
		return nil, zkbackend.StageError(zkbackend.StageWitness, errors.New("private input 'score' is required"))
	}
	threshold, ok := public[zkbackend.InputThreshold]
	if !ok {
		return nil, zkbackend.StageError(zkbackend.StageWitness, errors.New("public input 'threshold' is required"))
	}
	if score < threshold {
		return nil, zkbackend.StageError(zkbackend.StageWitness,
			fmt.Errorf("constraint not satisfied: score below threshold"))
	}

	payload, err := json.Marshal(witnessPayload{Score: score, Threshold: threshold})
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageWitness, err)
	}
	return &zkbackend.Witness{Path: "stub://" + base64.StdEncoding.EncodeToString(payload)}, nil
}

// Prove emits a deterministic proof over the witness's public signals. The
// private score never appears in the proof or the public signals.
func (b *Backend) Prove(ctx context.Context, keys *zkbackend.Keys, witness *zkbackend.Witness) (*zkbackend.Proof, error) {
	if err := ctx.Err(); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}
	if keys == nil || keys.ProvingKey == "" {
		return nil, zkbackend.StageError(zkbackend.StageProve, errors.New("missing proving key"))
	}
	payload, err := decodeWitness(witness)
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}

	public := []string{strconv.FormatInt(payload.Threshold, 10)}
	publicJSON, err := json.Marshal(public)
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}

	proofJSON, err := json.Marshal(stubProof{
		Scheme: proofScheme,
		Digest: digest(publicJSON),
	})
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}

	return &zkbackend.Proof{Proof: proofJSON, PublicSignals: publicJSON}, nil
}

// Verify recomputes the digest over the public signals and compares. Any
// structural defect or mismatch yields false with no error.
func (b *Backend) Verify(ctx context.Context, _ string, proof, publicSignals json.RawMessage) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, zkbackend.StageError(zkbackend.StageVerify, err)
	}
	var parsed stubProof
	if err := json.Unmarshal(proof, &parsed); err != nil {
		return false, nil
	}
	if parsed.Scheme != proofScheme {
		return false, nil
	}
	var signals []string
	if err := json.Unmarshal(publicSignals, &signals); err != nil {
		return false, nil
	}
	canonical, err := json.Marshal(signals)
	if err != nil {
		return false, nil
	}
	return parsed.Digest == digest(canonical), nil
}

func decodeWitness(witness *zkbackend.Witness) (*witnessPayload, error) {
	if witness == nil || !strings.HasPrefix(witness.Path, "stub://") {
		return nil, errors.New("witness does not belong to this backend")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(witness.Path, "stub://"))
	if err != nil {
		return nil, errors.New("corrupt witness handle")
	}
	var payload witnessPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.New("corrupt witness payload")
	}
	return &payload, nil
}

func digest(publicSignals []byte) string {
	sum := sha256.Sum256(append([]byte(domainTag), publicSignals...))
	return hex.EncodeToString(sum[:])
}

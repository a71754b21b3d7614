// Package gnark implements the ZK backend contract in-process with gnark's
// Groth16 prover over BN254.
//
// Unlike toolchain-based backends, circuits are Go types compiled at
// runtime; the circuit "path" is a logical name resolved against the
// built-in circuit table. Groth16 setup is per-circuit, so the common
// reference string argument is unused. Artifacts are still exchanged as
// file handles to keep the contract uniform across backends.
package gnark

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend"
)

// envelope is the JSON transport form for gnark's binary artifacts.
type envelope struct {
	Curve string `json:"curve"`
	Data  string `json:"data"`
}

// Backend is the gnark-based implementation. The zero value is ready to use.
type Backend struct{}

// New returns a gnark backend.
func New() *Backend {
	return &Backend{}
}

// Compile resolves the circuit name and compiles it to an R1CS, written
// under outDir.
func (b *Backend) Compile(ctx context.Context, circuitPath, outDir string) (*zkbackend.CircuitArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageCompile, err)
	}

	name := strings.TrimSuffix(filepath.Base(circuitPath), filepath.Ext(circuitPath))
	if name == "" || name == "." {
		name = DefaultCircuit
	}
	construct, ok := circuits[name]
	if !ok {
		return nil, zkbackend.StageError(zkbackend.StageCompile, fmt.Errorf("unknown circuit %q", name))
	}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, construct())
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageCompile, err)
	}

	r1csPath := filepath.Join(outDir, name+".r1cs")
	if err := writeArtifact(r1csPath, ccs); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageCompile, err)
	}
	return &zkbackend.CircuitArtifact{Name: name, R1CS: r1csPath}, nil
}

// Setup runs the Groth16 trusted setup for the compiled circuit. The crs
// argument is accepted for contract compatibility and ignored: Groth16
// setup here generates its own per-circuit parameters.
func (b *Backend) Setup(ctx context.Context, artifact *zkbackend.CircuitArtifact, _ string) (*zkbackend.Keys, error) {
	if err := ctx.Err(); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageSetup, err)
	}
	if artifact == nil || artifact.R1CS == "" {
		return nil, zkbackend.StageError(zkbackend.StageSetup, errors.New("missing circuit artifact"))
	}

	ccs, err := readConstraintSystem(artifact.R1CS)
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageSetup, err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageSetup, err)
	}

	dir := filepath.Dir(artifact.R1CS)
	pkPath := filepath.Join(dir, artifact.Name+".zkey")
	vkPath := filepath.Join(dir, artifact.Name+".vkey")
	if err := writeArtifact(pkPath, pk); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageSetup, err)
	}
	if err := writeArtifact(vkPath, vk); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageSetup, err)
	}
	return &zkbackend.Keys{ProvingKey: pkPath, VerificationKey: vkPath, R1CS: artifact.R1CS}, nil
}

// ComputeWitness builds the full witness for the threshold circuit.
func (b *Backend) ComputeWitness(ctx context.Context, artifact *zkbackend.CircuitArtifact, private, public zkbackend.Inputs) (*zkbackend.Witness, error) {
	if err := ctx.Err(); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageWitness, err)
	}
	if artifact == nil || artifact.R1CS == "" {
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

	assignment := &ThresholdCircuit{Score: score, Threshold: threshold}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageWitness, err)
	}
	data, err := w.MarshalBinary()
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageWitness, err)
	}

	f, err := os.CreateTemp(filepath.Dir(artifact.R1CS), artifact.Name+"-*.wtns")
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageWitness, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageWitness, err)
	}
	return &zkbackend.Witness{Path: f.Name()}, nil
}

// Prove generates a Groth16 proof for the witness. Deterministic failure
// (not a panic) when the witness does not satisfy the circuit.
func (b *Backend) Prove(ctx context.Context, keys *zkbackend.Keys, wit *zkbackend.Witness) (*zkbackend.Proof, error) {
	if err := ctx.Err(); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}
	if keys == nil || keys.ProvingKey == "" || keys.R1CS == "" {
		return nil, zkbackend.StageError(zkbackend.StageProve, errors.New("missing proving key material"))
	}
	if wit == nil || wit.Path == "" {
		return nil, zkbackend.StageError(zkbackend.StageProve, errors.New("missing witness"))
	}

	ccs, err := readConstraintSystem(keys.R1CS)
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	if err := readArtifact(keys.ProvingKey, pk); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}

	data, err := os.ReadFile(wit.Path)
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}
	if err := w.UnmarshalBinary(data); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}

	proof, err := groth16.Prove(ccs, pk, w)
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}
	pubW, err := w.Public()
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}

	proofJSON, err := marshalEnvelope(proof)
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}
	pubData, err := pubW.MarshalBinary()
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}
	pubJSON, err := json.Marshal(envelope{Curve: ecc.BN254.String(), Data: base64.StdEncoding.EncodeToString(pubData)})
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}

	return &zkbackend.Proof{Proof: proofJSON, PublicSignals: pubJSON}, nil
}

// Verify checks the proof against the verification key and public signals.
// Structural or cryptographic invalidity yields (false, nil); only an
// unusable verification key file is reported as an error.
func (b *Backend) Verify(ctx context.Context, verificationKey string, proofRaw, publicSignals json.RawMessage) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, zkbackend.StageError(zkbackend.StageVerify, err)
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if err := readArtifact(verificationKey, vk); err != nil {
		return false, zkbackend.StageError(zkbackend.StageVerify, err)
	}

	proofBytes, ok := decodeEnvelope(proofRaw)
	if !ok {
		return false, nil
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return false, nil
	}

	pubBytes, ok := decodeEnvelope(publicSignals)
	if !ok {
		return false, nil
	}
	pubW, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return false, zkbackend.StageError(zkbackend.StageVerify, err)
	}
	if err := pubW.UnmarshalBinary(pubBytes); err != nil {
		return false, nil
	}

	if err := groth16.Verify(proof, vk, pubW); err != nil {
		return false, nil
	}
	return true, nil
}

func marshalEnvelope(src io.WriterTo) (json.RawMessage, error) {
	var buf bytes.Buffer
	if _, err := src.WriteTo(&buf); err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Curve: ecc.BN254.String(), Data: base64.StdEncoding.EncodeToString(buf.Bytes())})
}

func decodeEnvelope(raw json.RawMessage) ([]byte, bool) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, false
	}
	return data, true
}

func writeArtifact(path string, src io.WriterTo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = src.WriteTo(f)
	return err
}

func readArtifact(path string, dst io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = dst.ReadFrom(f)
	return err
}

func readConstraintSystem(path string) (constraint.ConstraintSystem, error) {
	ccs := groth16.NewCS(ecc.BN254)
	if err := readArtifact(path, ccs); err != nil {
		return nil, err
	}
	return ccs, nil
}

// Package snarkjs runs the circom/snarkjs toolchain as subprocesses. It
// produces the same artifact handles as the in-process backend but delegates
// every stage to the external binaries, so circuits authored in circom can be
// used without porting them.
package snarkjs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend"
)

const (
	binCircom  = "circom"
	binSnarkjs = "snarkjs"
	binNode    = "node"
)

// Backend shells out to circom, node, and snarkjs.
type Backend struct {
	// WorkDir receives witnesses, proofs, and public signal files. Empty
	// means the system temp directory.
	WorkDir string
}

func New(workDir string) *Backend {
	return &Backend{WorkDir: workDir}
}

// CheckDependencies reports which toolchain binaries are resolvable on PATH.
func CheckDependencies() map[string]bool {
	deps := map[string]bool{}
	for _, bin := range []string{binCircom, binSnarkjs, binNode} {
		_, err := exec.LookPath(bin)
		deps[bin] = err == nil
	}
	return deps
}

// Compile invokes circom with --r1cs --wasm. The wasm witness generator lands
// in <outDir>/<name>_js/<name>.wasm, matching circom's layout.
func (b *Backend) Compile(ctx context.Context, circuitPath, outDir string) (*zkbackend.CircuitArtifact, error) {
	if outDir == "" {
		outDir = filepath.Dir(circuitPath)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageCompile, err)
	}
	name := strings.TrimSuffix(filepath.Base(circuitPath), filepath.Ext(circuitPath))

	if err := b.run(ctx, zkbackend.StageCompile, "", binCircom,
		circuitPath, "--r1cs", "--wasm", "-o", outDir); err != nil {
		return nil, err
	}
	return &zkbackend.CircuitArtifact{
		Name: name,
		R1CS: filepath.Join(outDir, name+".r1cs"),
		Wasm: filepath.Join(outDir, name+"_js", name+".wasm"),
	}, nil
}

// Setup runs the Groth16 trusted setup against a prepared powers-of-tau file
// and exports the verification key as JSON.
func (b *Backend) Setup(ctx context.Context, artifact *zkbackend.CircuitArtifact, crsPath string) (*zkbackend.Keys, error) {
	if artifact == nil || artifact.R1CS == "" {
		return nil, zkbackend.StageError(zkbackend.StageSetup, errors.New("missing circuit artifact"))
	}
	if crsPath == "" {
		return nil, zkbackend.StageError(zkbackend.StageSetup, errors.New("powers-of-tau file is required"))
	}
	outDir := filepath.Dir(artifact.R1CS)
	zkeyPath := filepath.Join(outDir, artifact.Name+".zkey")
	vkeyPath := filepath.Join(outDir, "verification_key.json")

	if err := b.run(ctx, zkbackend.StageSetup, "", binSnarkjs,
		"groth16", "setup", artifact.R1CS, crsPath, zkeyPath); err != nil {
		return nil, err
	}
	if err := b.run(ctx, zkbackend.StageSetup, "", binSnarkjs,
		"zkey", "export", "verificationkey", zkeyPath, vkeyPath); err != nil {
		return nil, err
	}
	return &zkbackend.Keys{ProvingKey: zkeyPath, VerificationKey: vkeyPath, R1CS: artifact.R1CS}, nil
}

// ComputeWitness writes the inputs to a temporary JSON file and runs the
// generated witness script next to the wasm module. circom's script expects
// its working directory to be the *_js directory.
func (b *Backend) ComputeWitness(ctx context.Context, artifact *zkbackend.CircuitArtifact, private, public zkbackend.Inputs) (*zkbackend.Witness, error) {
	if artifact == nil || artifact.Wasm == "" {
		return nil, zkbackend.StageError(zkbackend.StageWitness, errors.New("missing wasm witness generator"))
	}
	merged := map[string]string{}
	for k, v := range public {
		merged[k] = strconv.FormatInt(v, 10)
	}
	for k, v := range private {
		merged[k] = strconv.FormatInt(v, 10)
	}
	if _, ok := merged[zkbackend.InputScore]; !ok {
		return nil, zkbackend.StageError(zkbackend.StageWitness, errors.New("private input 'score' is required"))
	}
	if _, ok := merged[zkbackend.InputThreshold]; !ok {
		return nil, zkbackend.StageError(zkbackend.StageWitness, errors.New("public input 'threshold' is required"))
	}

	inputFile, err := os.CreateTemp(b.WorkDir, "inputs-*.json")
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageWitness, err)
	}
	defer os.Remove(inputFile.Name())
	if err := json.NewEncoder(inputFile).Encode(merged); err != nil {
		inputFile.Close()
		return nil, zkbackend.StageError(zkbackend.StageWitness, err)
	}
	if err := inputFile.Close(); err != nil {
		return nil, zkbackend.StageError(zkbackend.StageWitness, err)
	}

	witnessPath, err := b.tempPath(artifact.Name + "-*.wtns")
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageWitness, err)
	}
	wasmDir := filepath.Dir(artifact.Wasm)
	if err := b.run(ctx, zkbackend.StageWitness, wasmDir, binNode,
		filepath.Join(wasmDir, "generate_witness.js"), artifact.Wasm, inputFile.Name(), witnessPath); err != nil {
		return nil, err
	}
	return &zkbackend.Witness{Path: witnessPath}, nil
}

// Prove produces proof and public signal JSON via snarkjs groth16 prove.
func (b *Backend) Prove(ctx context.Context, keys *zkbackend.Keys, wit *zkbackend.Witness) (*zkbackend.Proof, error) {
	if keys == nil || keys.ProvingKey == "" {
		return nil, zkbackend.StageError(zkbackend.StageProve, errors.New("missing proving key"))
	}
	if wit == nil || wit.Path == "" {
		return nil, zkbackend.StageError(zkbackend.StageProve, errors.New("missing witness"))
	}
	proofPath, err := b.tempPath("proof-*.json")
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}
	publicPath, err := b.tempPath("public-*.json")
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}
	defer os.Remove(proofPath)
	defer os.Remove(publicPath)

	if err := b.run(ctx, zkbackend.StageProve, "", binSnarkjs,
		"groth16", "prove", keys.ProvingKey, wit.Path, proofPath, publicPath); err != nil {
		return nil, err
	}

	proofRaw, err := os.ReadFile(proofPath)
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}
	publicRaw, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, zkbackend.StageError(zkbackend.StageProve, err)
	}
	return &zkbackend.Proof{Proof: proofRaw, PublicSignals: publicRaw}, nil
}

// Verify materializes the proof and public signals as files and asks snarkjs
// to check them. snarkjs exits non-zero and prints an error line for invalid
// proofs, which maps to (false, nil) here; only a missing toolchain or an
// unreadable verification key is an error.
func (b *Backend) Verify(ctx context.Context, verificationKey string, proof, publicSignals json.RawMessage) (bool, error) {
	if _, err := os.Stat(verificationKey); err != nil {
		return false, zkbackend.StageError(zkbackend.StageVerify, err)
	}
	proofPath, err := b.writeTemp("proof-*.json", proof)
	if err != nil {
		return false, zkbackend.StageError(zkbackend.StageVerify, err)
	}
	defer os.Remove(proofPath)
	publicPath, err := b.writeTemp("public-*.json", publicSignals)
	if err != nil {
		return false, zkbackend.StageError(zkbackend.StageVerify, err)
	}
	defer os.Remove(publicPath)

	path, err := exec.LookPath(binSnarkjs)
	if err != nil {
		return false, zkbackend.Unavailable(err, "snarkjs is not installed")
	}
	cmd := exec.CommandContext(ctx, path, "groth16", "verify", verificationKey, publicPath, proofPath)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return false, zkbackend.StageError(zkbackend.StageVerify, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, zkbackend.Unavailable(err, "snarkjs could not be executed")
	}
	return strings.Contains(stdout.String(), "OK"), nil
}

// run executes a toolchain binary, translating a missing binary into an
// unavailable error and any other failure into a stage error carrying the
// process stderr.
func (b *Backend) run(ctx context.Context, stage, dir, bin string, args ...string) error {
	path, err := exec.LookPath(bin)
	if err != nil {
		return zkbackend.Unavailable(err, bin+" is not installed")
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return zkbackend.StageError(stage, ctx.Err())
		}
		return zkbackend.StageError(stage, fmt.Errorf("%s: %w: %s", bin, err, strings.TrimSpace(stderr.String())))
	}
	return nil
}

func (b *Backend) tempPath(pattern string) (string, error) {
	f, err := os.CreateTemp(b.WorkDir, pattern)
	if err != nil {
		return "", err
	}
	path := f.Name()
	f.Close()
	return path, nil
}

func (b *Backend) writeTemp(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(b.WorkDir, pattern)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

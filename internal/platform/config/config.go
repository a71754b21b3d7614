package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// DefaultScaleFactor converts domain floating-point scores into fixed-point
// integers for the arithmetic circuit. Proving and verifying sides must agree
// on it or proofs are semantically meaningless.
const DefaultScaleFactor = 100

// Server captures process-level configuration. Every component receives its
// paths explicitly from here; nothing keys storage off a hidden per-user
// directory.
type Server struct {
	Addr          string
	DataDir       string
	IssuerName    string
	JWTSigningKey string

	// ZK backend selection and toolchain handles.
	Backend     string // "gnark", "snarkjs", or "stub"
	CircuitPath string
	PtauPath    string

	ScaleFactor int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ZKP_GPA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	dataDir := os.Getenv("ZKP_GPA_DATA_DIR")
	if dataDir == "" {
		dataDir = filepath.Join(os.TempDir(), "zkp-gpa-verification")
	}

	issuerName := os.Getenv("ZKP_GPA_ISSUER_NAME")
	if issuerName == "" {
		issuerName = "SchoolA"
	}

	backend := os.Getenv("ZKP_GPA_BACKEND")
	if backend == "" {
		backend = "gnark"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	scaleFactor := DefaultScaleFactor
	if v := os.Getenv("ZKP_GPA_SCALE_FACTOR"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			scaleFactor = parsed
		}
	}

	circuitPath := os.Getenv("ZKP_GPA_CIRCUIT")
	if circuitPath == "" {
		// The in-process backend resolves this as a built-in circuit name;
		// the snarkjs backend needs an explicit .circom path instead.
		circuitPath = "score_ge"
	}

	return Server{
		Addr:          addr,
		DataDir:       dataDir,
		IssuerName:    issuerName,
		JWTSigningKey: jwtSigningKey,
		Backend:       backend,
		CircuitPath:   circuitPath,
		PtauPath:      os.Getenv("ZKP_GPA_PTAU"),
		ScaleFactor:   scaleFactor,
	}
}

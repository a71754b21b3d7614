package zkbackend

import (
	"context"
	"encoding/json"
	"errors"

	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
	"github.com/AshutoshFreak/zkp-gpa-verification/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the breaker is shielding a backend whose
// toolchain has been repeatedly unavailable.
var ErrCircuitOpen = errors.New("proving toolchain circuit is open")

// WithBreaker wraps a backend with a circuit breaker. Repeated
// toolchain-unavailable failures open the breaker, after which calls fail
// fast with CodeBackendUnavailable instead of probing a missing toolchain on
// every request. Other backend errors, including unsatisfiable witnesses and
// invalid proofs, do not count against the breaker.
func WithBreaker(next Backend, br *circuit.Breaker) Backend {
	return &guarded{next: next, breaker: br}
}

type guarded struct {
	next    Backend
	breaker *circuit.Breaker
}

func (g *guarded) allow() error {
	if g.breaker.Allow() {
		return nil
	}
	return Unavailable(ErrCircuitOpen, g.breaker.Name())
}

func (g *guarded) record(err error) {
	if err != nil && dErrors.HasCode(err, dErrors.CodeBackendUnavailable) {
		g.breaker.RecordFailure()
		return
	}
	// The toolchain responded, even if the call itself failed.
	g.breaker.RecordSuccess()
}

func (g *guarded) Compile(ctx context.Context, circuitPath, outDir string) (*CircuitArtifact, error) {
	if err := g.allow(); err != nil {
		return nil, err
	}
	artifact, err := g.next.Compile(ctx, circuitPath, outDir)
	g.record(err)
	return artifact, err
}

func (g *guarded) Setup(ctx context.Context, artifact *CircuitArtifact, crsPath string) (*Keys, error) {
	if err := g.allow(); err != nil {
		return nil, err
	}
	keys, err := g.next.Setup(ctx, artifact, crsPath)
	g.record(err)
	return keys, err
}

func (g *guarded) ComputeWitness(ctx context.Context, artifact *CircuitArtifact, private, public Inputs) (*Witness, error) {
	if err := g.allow(); err != nil {
		return nil, err
	}
	witness, err := g.next.ComputeWitness(ctx, artifact, private, public)
	g.record(err)
	return witness, err
}

func (g *guarded) Prove(ctx context.Context, keys *Keys, witness *Witness) (*Proof, error) {
	if err := g.allow(); err != nil {
		return nil, err
	}
	proof, err := g.next.Prove(ctx, keys, witness)
	g.record(err)
	return proof, err
}

func (g *guarded) Verify(ctx context.Context, verificationKey string, proof, publicSignals json.RawMessage) (bool, error) {
	if err := g.allow(); err != nil {
		return false, err
	}
	ok, err := g.next.Verify(ctx, verificationKey, proof, publicSignals)
	g.record(err)
	return ok, err
}

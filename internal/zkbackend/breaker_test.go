package zkbackend_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/zkbackend/stub"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
	"github.com/AshutoshFreak/zkp-gpa-verification/pkg/platform/circuit"
)

// flakyBackend fails every call with a toolchain-unavailable error until
// healed, then delegates to the stub.
type flakyBackend struct {
	*stub.Backend
	healed bool
	calls  int
}

func (f *flakyBackend) Compile(ctx context.Context, circuitPath, outDir string) (*zkbackend.CircuitArtifact, error) {
	f.calls++
	if !f.healed {
		return nil, zkbackend.Unavailable(errors.New("circom not found"), "circom missing from PATH")
	}
	return f.Backend.Compile(ctx, circuitPath, outDir)
}

func TestBreakerOpensOnUnavailableToolchain(t *testing.T) {
	flaky := &flakyBackend{Backend: stub.New()}
	backend := zkbackend.WithBreaker(flaky, circuit.New("snarkjs", circuit.WithFailureThreshold(2)))

	ctx := context.Background()
	for range 2 {
		_, err := backend.Compile(ctx, "score_ge.circom", t.TempDir())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBackendUnavailable))
	}

	// Breaker is open: the next call fails fast without reaching the backend.
	_, err := backend.Compile(ctx, "score_ge.circom", t.TempDir())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBackendUnavailable))
	assert.ErrorIs(t, err, zkbackend.ErrCircuitOpen)
	assert.Equal(t, 2, flaky.calls)
}

func TestBreakerProbeRecovers(t *testing.T) {
	now := time.Unix(1000, 0)
	flaky := &flakyBackend{Backend: stub.New()}
	backend := zkbackend.WithBreaker(flaky, circuit.New("snarkjs",
		circuit.WithFailureThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now })))

	ctx := context.Background()
	_, err := backend.Compile(ctx, "score_ge.circom", t.TempDir())
	require.Error(t, err)

	// Toolchain comes back; after the cooldown a probe succeeds and the
	// breaker closes again.
	flaky.healed = true
	now = now.Add(2 * time.Minute)
	artifact, err := backend.Compile(ctx, "score_ge.circom", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "score_ge", artifact.Name)

	_, err = backend.Compile(ctx, "score_ge.circom", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.calls)
}

func TestBreakerIgnoresDomainFailures(t *testing.T) {
	backend := zkbackend.WithBreaker(stub.New(), circuit.New("stub", circuit.WithFailureThreshold(1)))

	ctx := context.Background()
	artifact, err := backend.Compile(ctx, "score_ge.circom", t.TempDir())
	require.NoError(t, err)

	// An unsatisfiable witness is a domain failure, not a toolchain outage,
	// so it never opens the breaker.
	for range 3 {
		_, err = backend.ComputeWitness(ctx, artifact,
			zkbackend.Inputs{zkbackend.InputScore: 300},
			zkbackend.Inputs{zkbackend.InputThreshold: 350})
		require.Error(t, err)
		assert.False(t, dErrors.HasCode(err, dErrors.CodeBackendUnavailable))
	}

	_, err = backend.Compile(ctx, "score_ge.circom", t.TempDir())
	assert.NoError(t, err)
}

func TestBreakerPassesVerifyThrough(t *testing.T) {
	raw := stub.New()
	backend := zkbackend.WithBreaker(raw, circuit.New("stub"))

	ok, err := backend.Verify(context.Background(), "stub://vk",
		json.RawMessage(`{"scheme":"bogus"}`), json.RawMessage(`["350"]`))
	require.NoError(t, err)
	assert.False(t, ok)
}

package zkbackend

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LatencyObserver receives the duration of each completed pipeline stage.
type LatencyObserver func(stage string, elapsed time.Duration)

// InstrumentOption configures the instrumented backend.
type InstrumentOption func(*instrumented)

// WithTracer injects a custom OpenTelemetry tracer. Useful for testing or
// when a pre-configured tracer is available.
func WithTracer(t trace.Tracer) InstrumentOption {
	return func(i *instrumented) {
		i.tracer = t
	}
}

// WithLatencyObserver registers a hook for stage latencies, typically
// feeding a Prometheus histogram.
func WithLatencyObserver(obs LatencyObserver) InstrumentOption {
	return func(i *instrumented) {
		i.observe = obs
	}
}

// Instrument wraps a backend so every pipeline stage runs inside an
// OpenTelemetry span and reports its latency. The wrapped backend's
// behavior is otherwise unchanged.
func Instrument(next Backend, opts ...InstrumentOption) Backend {
	i := &instrumented{next: next}
	for _, opt := range opts {
		opt(i)
	}
	if i.tracer == nil {
		i.tracer = otel.Tracer("zkp-gpa-verification/zkbackend")
	}
	return i
}

type instrumented struct {
	next    Backend
	tracer  trace.Tracer
	observe LatencyObserver
}

func (i *instrumented) span(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	ctx, span := i.tracer.Start(ctx, "zkbackend."+stage, trace.WithAttributes(attrs...))
	return ctx, span, time.Now()
}

func (i *instrumented) end(span trace.Span, stage string, started time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	if i.observe != nil {
		i.observe(stage, time.Since(started))
	}
}

func (i *instrumented) Compile(ctx context.Context, circuitPath, outDir string) (*CircuitArtifact, error) {
	ctx, span, started := i.span(ctx, StageCompile, attribute.String("circuit", circuitPath))
	artifact, err := i.next.Compile(ctx, circuitPath, outDir)
	i.end(span, StageCompile, started, err)
	return artifact, err
}

func (i *instrumented) Setup(ctx context.Context, artifact *CircuitArtifact, crsPath string) (*Keys, error) {
	ctx, span, started := i.span(ctx, StageSetup)
	keys, err := i.next.Setup(ctx, artifact, crsPath)
	i.end(span, StageSetup, started, err)
	return keys, err
}

func (i *instrumented) ComputeWitness(ctx context.Context, artifact *CircuitArtifact, private, public Inputs) (*Witness, error) {
	ctx, span, started := i.span(ctx, StageWitness)
	witness, err := i.next.ComputeWitness(ctx, artifact, private, public)
	i.end(span, StageWitness, started, err)
	return witness, err
}

func (i *instrumented) Prove(ctx context.Context, keys *Keys, witness *Witness) (*Proof, error) {
	ctx, span, started := i.span(ctx, StageProve)
	proof, err := i.next.Prove(ctx, keys, witness)
	i.end(span, StageProve, started, err)
	return proof, err
}

func (i *instrumented) Verify(ctx context.Context, verificationKey string, proof, publicSignals json.RawMessage) (bool, error) {
	ctx, span, started := i.span(ctx, StageVerify)
	ok, err := i.next.Verify(ctx, verificationKey, proof, publicSignals)
	span.SetAttributes(attribute.Bool("valid", ok))
	i.end(span, StageVerify, started, err)
	return ok, err
}

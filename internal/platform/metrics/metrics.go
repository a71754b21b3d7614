package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	CredentialsIssued prometheus.Counter
	IssuanceFailures  *prometheus.CounterVec

	CredentialsStored prometheus.Counter
	ProofsGenerated   prometheus.Counter
	ProofFailures     *prometheus.CounterVec

	Verifications *prometheus.CounterVec

	BackendStageLatency *prometheus.HistogramVec

	RegisteredStudents prometheus.Gauge
	TrustedIssuers     prometheus.Gauge
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkpgpa_credentials_issued_total",
			Help: "Total number of credentials issued",
		}),
		IssuanceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkpgpa_issuance_failures_total",
			Help: "Total number of failed issuance requests by reason",
		}, []string{"reason"}),
		CredentialsStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkpgpa_credentials_stored_total",
			Help: "Total number of credentials stored by holders",
		}),
		ProofsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkpgpa_proofs_generated_total",
			Help: "Total number of proof bundles generated",
		}),
		ProofFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkpgpa_proof_failures_total",
			Help: "Total number of failed proof generations by reason",
		}, []string{"reason"}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkpgpa_verifications_total",
			Help: "Total number of proof verifications by outcome",
		}, []string{"outcome"}),
		BackendStageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zkpgpa_backend_stage_latency_seconds",
			Help:    "Latency of ZK backend pipeline stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		RegisteredStudents: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "zkpgpa_registered_students",
			Help: "Current number of students in the score registry",
		}),
		TrustedIssuers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "zkpgpa_trusted_issuers",
			Help: "Current number of trusted issuers in the verifier registry",
		}),
	}
}

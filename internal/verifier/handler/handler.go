// Package handler exposes proof verification and trust registry management
// over HTTP.
package handler

import (
	"context"
	"crypto/rsa"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/credential"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/models"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/metrics"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/signing"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/verifier/service"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
	"github.com/AshutoshFreak/zkp-gpa-verification/pkg/platform/httputil"
)

// Service defines the verifier operations the handler delegates to.
type Service interface {
	VerifyProof(ctx context.Context, bundle models.ProofBundle, verificationKey string, expect service.Expectation) (service.Result, error)
	VerifyWithIssuer(ctx context.Context, bundle models.ProofBundle, issuerName string, cred *credential.SignedCredential) (service.Result, error)
	AddTrustedIssuer(name string, pub *rsa.PublicKey) error
	TrustedIssuers() []string
}

// VerificationKeySource resolves the verification key handle proofs are
// checked against.
type VerificationKeySource interface {
	VerificationKeyPath(ctx context.Context) (string, error)
}

// Handler handles verification endpoints.
type Handler struct {
	logger   *slog.Logger
	verifier Service
	keys     VerificationKeySource
	metrics  *metrics.Metrics
}

// New creates a new verifier Handler.
func New(verifier Service, keys VerificationKeySource, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{logger: logger, verifier: verifier, keys: keys, metrics: metrics}
}

// Register registers the verifier routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verifier/verify", h.handleVerify)
	r.Post("/verifier/verify-with-issuer", h.handleVerifyWithIssuer)
	r.Post("/verifier/trusted-issuers", h.handleAddTrustedIssuer)
	r.Get("/verifier/trusted-issuers", h.handleListTrustedIssuers)
}

type verifyRequest struct {
	Bundle      models.ProofBundle `json:"bundle"`
	Threshold   *float64           `json:"threshold,omitempty"`
	ScaleFactor int                `json:"scale_factor,omitempty"`
}

func (req verifyRequest) Validate() error {
	return req.Bundle.Validate()
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndValidate[verifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	vk, err := h.keys.VerificationKeyPath(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.verifier.VerifyProof(ctx, req.Bundle, vk, service.Expectation{
		Threshold:   req.Threshold,
		ScaleFactor: req.ScaleFactor,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.observe(result)
	httputil.WriteJSON(w, http.StatusOK, result)
}

type verifyWithIssuerRequest struct {
	Bundle     models.ProofBundle           `json:"bundle"`
	IssuerName string                       `json:"issuer_name"`
	Credential *credential.SignedCredential `json:"credential,omitempty"`
}

func (req verifyWithIssuerRequest) Validate() error {
	if req.IssuerName == "" {
		return dErrors.New(dErrors.CodeValidation, "issuer_name is required")
	}
	return req.Bundle.Validate()
}

func (h *Handler) handleVerifyWithIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndValidate[verifyWithIssuerRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.verifier.VerifyWithIssuer(ctx, req.Bundle, req.IssuerName, req.Credential)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.observe(result)
	httputil.WriteJSON(w, http.StatusOK, result)
}

type addTrustedIssuerRequest struct {
	Name         string `json:"name"`
	PublicKeyPEM string `json:"public_key"`
}

func (req addTrustedIssuerRequest) Validate() error {
	if req.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if req.PublicKeyPEM == "" {
		return dErrors.New(dErrors.CodeValidation, "public_key is required")
	}
	return nil
}

func (h *Handler) handleAddTrustedIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndValidate[addTrustedIssuerRequest](w, r, h.logger)
	if !ok {
		return
	}

	pub, err := signing.ParsePublicKey([]byte(req.PublicKeyPEM))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.verifier.AddTrustedIssuer(req.Name, pub); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.TrustedIssuers.Set(float64(len(h.verifier.TrustedIssuers())))
	}
	h.logger.InfoContext(ctx, "trusted issuer registered", "issuer", req.Name)
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"trusted_issuers": h.verifier.TrustedIssuers(),
	})
}

func (h *Handler) handleListTrustedIssuers(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"trusted_issuers": h.verifier.TrustedIssuers(),
	})
}

func (h *Handler) observe(result service.Result) {
	if h.metrics == nil {
		return
	}
	outcome := "valid"
	if !result.Valid {
		outcome = string(result.Reason)
	}
	h.metrics.Verifications.WithLabelValues(outcome).Inc()
}

// Package handler exposes the holder wallet over HTTP: storing credentials,
// generating proofs, and retrieving both.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/credential"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/holder/models"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/metrics"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
	"github.com/AshutoshFreak/zkp-gpa-verification/pkg/platform/httputil"
)

// Service defines the wallet operations the handler delegates to.
type Service interface {
	StoreCredential(ctx context.Context, cred credential.SignedCredential) (bool, error)
	GetCredential(ctx context.Context, credentialID string) (credential.SignedCredential, error)
	ListCredentials(ctx context.Context) ([]credential.SignedCredential, error)
	DeleteCredential(ctx context.Context, credentialID string) error
	GenerateProof(ctx context.Context, credentialID string, threshold float64, scaleFactor int) (models.ProofBundle, error)
	GetProof(ctx context.Context, credentialID string) (models.ProofBundle, error)
}

// Handler handles holder wallet endpoints.
type Handler struct {
	logger  *slog.Logger
	holder  Service
	metrics *metrics.Metrics
}

// New creates a new holder Handler.
func New(holder Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{logger: logger, holder: holder, metrics: metrics}
}

// Register registers the holder routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/holder/credentials", h.handleStoreCredential)
	r.Get("/holder/credentials", h.handleListCredentials)
	r.Get("/holder/credentials/{credentialID}", h.handleGetCredential)
	r.Delete("/holder/credentials/{credentialID}", h.handleDeleteCredential)
	r.Post("/holder/proofs", h.handleGenerateProof)
	r.Get("/holder/proofs/{credentialID}", h.handleGetProof)
}

func (h *Handler) handleStoreCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[credential.SignedCredential](w, r, h.logger)
	if !ok {
		return
	}

	stored, err := h.holder.StoreCredential(ctx, *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !stored {
		// A conflicting credential under a held ID is refused.
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict,
			"a different credential with this ID is already held"))
		return
	}
	if h.metrics != nil {
		h.metrics.CredentialsStored.Inc()
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"credential_id": req.Credential.CredentialID,
		"stored":        true,
	})
}

func (h *Handler) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := h.holder.ListCredentials(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"credentials": creds})
}

func (h *Handler) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	cred, err := h.holder.GetCredential(r.Context(), chi.URLParam(r, "credentialID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cred)
}

func (h *Handler) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.holder.DeleteCredential(r.Context(), chi.URLParam(r, "credentialID")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateProofRequest struct {
	CredentialID string  `json:"credential_id"`
	Threshold    float64 `json:"threshold"`
	ScaleFactor  int     `json:"scale_factor"`
}

func (req generateProofRequest) Validate() error {
	if req.CredentialID == "" {
		return dErrors.New(dErrors.CodeValidation, "credential_id is required")
	}
	if req.ScaleFactor < 0 {
		return dErrors.New(dErrors.CodeValidation, "scale_factor cannot be negative")
	}
	return nil
}

func (h *Handler) handleGenerateProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndValidate[generateProofRequest](w, r, h.logger)
	if !ok {
		return
	}

	bundle, err := h.holder.GenerateProof(ctx, req.CredentialID, req.Threshold, req.ScaleFactor)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to generate proof",
			"credential_id", req.CredentialID,
			"error", err)
		if h.metrics != nil {
			h.metrics.ProofFailures.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
		}
		httputil.WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ProofsGenerated.Inc()
	}
	httputil.WriteJSON(w, http.StatusCreated, bundle)
}

func (h *Handler) handleGetProof(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.holder.GetProof(r.Context(), chi.URLParam(r, "credentialID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, bundle)
}

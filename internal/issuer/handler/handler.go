// Package handler exposes credential issuance over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/credential"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/metrics"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
	"github.com/AshutoshFreak/zkp-gpa-verification/pkg/platform/httputil"
)

// Service defines the issuer operations the handler delegates to.
type Service interface {
	IssueCredential(ctx context.Context, studentID, scoreType string) (credential.SignedCredential, error)
	PublicKeyPEM() ([]byte, error)
	Name() string
}

// Handler handles issuance endpoints.
type Handler struct {
	logger  *slog.Logger
	issuer  Service
	metrics *metrics.Metrics
}

// New creates a new issuer Handler.
func New(issuer Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{logger: logger, issuer: issuer, metrics: metrics}
}

// Register registers the issuer routes with the chi router. Issuance is
// bearer-guarded; the public key endpoint is open so verifiers can fetch it.
func (h *Handler) Register(guarded, open chi.Router) {
	guarded.Post("/issuer/credentials", h.handleIssueCredential)
	open.Get("/issuer/public-key", h.handlePublicKey)
}

type issueRequest struct {
	StudentID string `json:"student_id"`
	ScoreType string `json:"score_type"`
}

func (req issueRequest) Validate() error {
	if req.StudentID == "" {
		return dErrors.New(dErrors.CodeValidation, "student_id is required")
	}
	if req.ScoreType == "" {
		return dErrors.New(dErrors.CodeValidation, "score_type is required")
	}
	return nil
}

func (h *Handler) handleIssueCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndValidate[issueRequest](w, r, h.logger)
	if !ok {
		return
	}

	signed, err := h.issuer.IssueCredential(ctx, req.StudentID, req.ScoreType)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to issue credential",
			"student_id", req.StudentID,
			"score_type", req.ScoreType,
			"error", err)
		if h.metrics != nil {
			h.metrics.IssuanceFailures.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
		}
		httputil.WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.CredentialsIssued.Inc()
	}
	httputil.WriteJSON(w, http.StatusCreated, signed)
}

func (h *Handler) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	pemBytes, err := h.issuer.PublicKeyPEM()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"issuer":     h.issuer.Name(),
		"public_key": string(pemBytes),
	})
}

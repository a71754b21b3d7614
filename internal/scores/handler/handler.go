// Package handler exposes the score registry over HTTP. All mutating routes
// sit behind bearer authentication; wiring happens in the router.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AshutoshFreak/zkp-gpa-verification/internal/platform/metrics"
	"github.com/AshutoshFreak/zkp-gpa-verification/internal/scores/models"
	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
	"github.com/AshutoshFreak/zkp-gpa-verification/pkg/platform/httputil"
)

// Service defines the registry operations the handler delegates to.
type Service interface {
	AddStudent(ctx context.Context, studentID string, scores models.ScoreSet) error
	UpdateScores(ctx context.Context, studentID string, scores models.ScoreSet) error
	Scores(ctx context.Context, studentID string) (models.ScoreSet, error)
	DeleteStudent(ctx context.Context, studentID string) error
	ListStudents(ctx context.Context) ([]string, error)
}

// Handler handles score registry endpoints.
type Handler struct {
	logger   *slog.Logger
	registry Service
	metrics  *metrics.Metrics
}

// New creates a new registry Handler.
func New(registry Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{logger: logger, registry: registry, metrics: metrics}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registry/students", h.handleAddStudent)
	r.Get("/registry/students", h.handleListStudents)
	r.Get("/registry/students/{studentID}/scores", h.handleGetScores)
	r.Patch("/registry/students/{studentID}/scores", h.handleUpdateScores)
	r.Delete("/registry/students/{studentID}", h.handleDeleteStudent)
}

type addStudentRequest struct {
	StudentID string          `json:"student_id"`
	Scores    models.ScoreSet `json:"scores"`
}

func (req addStudentRequest) Validate() error {
	if req.StudentID == "" {
		return dErrors.New(dErrors.CodeValidation, "student_id is required")
	}
	return req.Scores.Validate()
}

type updateScoresRequest struct {
	Scores models.ScoreSet `json:"scores"`
}

func (req updateScoresRequest) Validate() error {
	if len(req.Scores) == 0 {
		return dErrors.New(dErrors.CodeValidation, "scores are required")
	}
	return req.Scores.Validate()
}

func (h *Handler) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndValidate[addStudentRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.registry.AddStudent(ctx, req.StudentID, req.Scores); err != nil {
		h.logger.WarnContext(ctx, "failed to add student", "student_id", req.StudentID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RegisteredStudents.Inc()
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"student_id": req.StudentID})
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.registry.ListStudents(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"students": students})
}

func (h *Handler) handleGetScores(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	scores, err := h.registry.Scores(r.Context(), studentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"student_id": studentID,
		"scores":     scores,
	})
}

func (h *Handler) handleUpdateScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := chi.URLParam(r, "studentID")
	req, ok := httputil.DecodeAndValidate[updateScoresRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.registry.UpdateScores(ctx, studentID, req.Scores); err != nil {
		h.logger.WarnContext(ctx, "failed to update scores", "student_id", studentID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	scores, err := h.registry.Scores(ctx, studentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"student_id": studentID,
		"scores":     scores,
	})
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	if err := h.registry.DeleteStudent(r.Context(), studentID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RegisteredStudents.Dec()
	}
	w.WriteHeader(http.StatusNoContent)
}

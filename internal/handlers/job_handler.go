package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/worklane/backend/internal/apperrors"
	"github.com/worklane/backend/internal/models"
	"github.com/worklane/backend/internal/services"
)

// JobPoster is the subset of the job service the handler needs.
type JobPoster interface {
	Create(ctx context.Context, principal models.Principal, in services.CreateJobInput) (*models.Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListOpen(ctx context.Context) ([]*models.Job, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Job, error)
}

// JobHandler serves /v1/jobs endpoints.
type JobHandler struct {
	Svc JobPoster
	Log *slog.Logger
}

type createJobRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	BudgetCents int64  `json:"budget_cents"`
	BudgetType  string `json:"budget_type"`
}

// Create handles POST /v1/jobs. Client role only.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if p.Role != models.RoleClient {
		writeError(w, h.Log, apperrors.Forbidden("only clients can post jobs"))
		return
	}
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	job, err := h.Svc.Create(r.Context(), p, services.CreateJobInput{
		Title:       req.Title,
		Description: req.Description,
		BudgetCents: req.BudgetCents,
		BudgetType:  req.BudgetType,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// Get handles GET /v1/jobs/{id}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	job, err := h.Svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// List handles GET /v1/jobs: open jobs, or the caller's own postings
// with ?mine=true.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var (
		jobs []*models.Job
		err  error
	)
	if r.URL.Query().Get("mine") == "true" {
		jobs, err = h.Svc.ListByClient(r.Context(), p.ID)
	} else {
		jobs, err = h.Svc.ListOpen(r.Context())
	}
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/worklane/backend/internal/models"
	"github.com/worklane/backend/internal/services"
)

// ProposalService is the subset of the proposal service the handler
// needs.
type ProposalService interface {
	Submit(ctx context.Context, principal models.Principal, in services.SubmitProposalInput) (*models.Proposal, error)
	Edit(ctx context.Context, principal models.Principal, proposalID uuid.UUID, in services.EditProposalInput) (*models.Proposal, error)
	Withdraw(ctx context.Context, principal models.Principal, proposalID uuid.UUID, reason string) (*models.Proposal, error)
	MarkViewed(ctx context.Context, principal models.Principal, proposalID uuid.UUID) (*models.Proposal, error)
	Delete(ctx context.Context, principal models.Principal, proposalID uuid.UUID) error
	GetByID(ctx context.Context, principal models.Principal, proposalID uuid.UUID) (*models.Proposal, error)
	ListByJob(ctx context.Context, principal models.Principal, jobID uuid.UUID) ([]*models.Proposal, error)
	ListMine(ctx context.Context, principal models.Principal) ([]*models.Proposal, error)
}

// HiringCoordinator executes the exclusive hire transition.
type HiringCoordinator interface {
	Hire(ctx context.Context, principal models.Principal, proposalID uuid.UUID) (*models.Proposal, *models.Contract, error)
}

// ProposalHandler serves /v1/proposals endpoints.
type ProposalHandler struct {
	Svc    ProposalService
	Hiring HiringCoordinator
	Log    *slog.Logger
}

type submitProposalRequest struct {
	JobID          string          `json:"job_id"`
	BidAmountCents int64           `json:"bid_amount_cents"`
	DeliveryDays   int             `json:"delivery_days"`
	CoverLetter    string          `json:"cover_letter"`
	Message        string          `json:"message,omitempty"`
	Attachments    json.RawMessage `json:"attachments,omitempty"`
}

// Submit handles POST /v1/proposals.
func (h *ProposalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req submitProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job_id"})
		return
	}
	proposal, err := h.Svc.Submit(r.Context(), p, services.SubmitProposalInput{
		JobID:          jobID,
		BidAmountCents: req.BidAmountCents,
		DeliveryDays:   req.DeliveryDays,
		CoverLetter:    req.CoverLetter,
		Message:        req.Message,
		Attachments:    req.Attachments,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, proposal)
}

type editProposalRequest struct {
	BidAmountCents *int64  `json:"bid_amount_cents,omitempty"`
	DeliveryDays   *int    `json:"delivery_days,omitempty"`
	CoverLetter    *string `json:"cover_letter,omitempty"`
	Message        *string `json:"message,omitempty"`
}

// Edit handles PATCH /v1/proposals/{id}.
func (h *ProposalHandler) Edit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req editProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	proposal, err := h.Svc.Edit(r.Context(), p, id, services.EditProposalInput{
		BidAmountCents: req.BidAmountCents,
		DeliveryDays:   req.DeliveryDays,
		CoverLetter:    req.CoverLetter,
		Message:        req.Message,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

type hireResponse struct {
	Proposal *models.Proposal `json:"proposal"`
	Contract *models.Contract `json:"contract"`
}

// Hire handles PATCH /v1/proposals/{id}/hire.
func (h *ProposalHandler) Hire(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	proposal, contract, err := h.Hiring.Hire(r.Context(), p, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, hireResponse{Proposal: proposal, Contract: contract})
}

type withdrawRequest struct {
	WithdrawReason string `json:"withdraw_reason,omitempty"`
}

// Withdraw handles PATCH /v1/proposals/{id}/withdraw.
func (h *ProposalHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req withdrawRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	proposal, err := h.Svc.Withdraw(r.Context(), p, id, req.WithdrawReason)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

// MarkViewed handles PATCH /v1/proposals/{id}/viewed.
func (h *ProposalHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	proposal, err := h.Svc.MarkViewed(r.Context(), p, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

// Delete handles DELETE /v1/proposals/{id}.
func (h *ProposalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), p, id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /v1/proposals/{id}.
func (h *ProposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	proposal, err := h.Svc.GetByID(r.Context(), p, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

// ListForJob handles GET /v1/jobs/{id}/proposals.
func (h *ProposalHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	proposals, err := h.Svc.ListByJob(r.Context(), p, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, proposals)
}

// ListMine handles GET /v1/proposals.
func (h *ProposalHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	proposals, err := h.Svc.ListMine(r.Context(), p)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, proposals)
}

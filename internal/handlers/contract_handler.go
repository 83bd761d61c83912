package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/worklane/backend/internal/models"
)

// ContractFormation is the subset of the contract service the handler
// needs.
type ContractFormation interface {
	GetByID(ctx context.Context, principal models.Principal, contractID uuid.UUID) (*models.Contract, error)
	ListMine(ctx context.Context, principal models.Principal) ([]*models.Contract, error)
	SubmitWork(ctx context.Context, principal models.Principal, contractID uuid.UUID) (*models.Contract, error)
	Complete(ctx context.Context, principal models.Principal, contractID uuid.UUID) (*models.Contract, error)
}

// ContractHandler serves /v1/contracts endpoints.
type ContractHandler struct {
	Svc ContractFormation
	Log *slog.Logger
}

// Get handles GET /v1/contracts/{id}.
func (h *ContractHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	contract, err := h.Svc.GetByID(r.Context(), p, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

// ListMine handles GET /v1/contracts.
func (h *ContractHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	contracts, err := h.Svc.ListMine(r.Context(), p)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, contracts)
}

// SubmitWork handles POST /v1/contracts/{id}/submit-work.
func (h *ContractHandler) SubmitWork(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	contract, err := h.Svc.SubmitWork(r.Context(), p, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

// Complete handles POST /v1/contracts/{id}/complete.
func (h *ContractHandler) Complete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	contract, err := h.Svc.Complete(r.Context(), p, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

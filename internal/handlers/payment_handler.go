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

// EscrowLedger is the subset of the escrow service the handler needs.
type EscrowLedger interface {
	CreatePayment(ctx context.Context, principal models.Principal, in services.CreatePaymentInput) (*models.Payment, error)
	ProcessPayment(ctx context.Context, principal models.Principal, paymentID uuid.UUID) (*models.Payment, error)
	Refund(ctx context.Context, principal models.Principal, paymentID uuid.UUID) (*models.Payment, error)
	GetByID(ctx context.Context, principal models.Principal, paymentID uuid.UUID) (*models.Payment, error)
	ListMine(ctx context.Context, principal models.Principal, direction string) ([]*models.Payment, error)
}

// PaymentHandler serves /v1/payments endpoints.
type PaymentHandler struct {
	Svc EscrowLedger
	Log *slog.Logger
}

type createPaymentRequest struct {
	ContractID    string `json:"contract_id"`
	AmountCents   int64  `json:"amount_cents"`
	PaymentMethod string `json:"payment_method"`
	Description   string `json:"description,omitempty"`
}

// Create handles POST /v1/payments.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid contract_id"})
		return
	}
	payment, err := h.Svc.CreatePayment(r.Context(), p, services.CreatePaymentInput{
		ContractID:    contractID,
		AmountCents:   req.AmountCents,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// Process handles POST /v1/payments/{id}/process. The response carries
// the payment's final state, completed or failed.
func (h *PaymentHandler) Process(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payment, err := h.Svc.ProcessPayment(r.Context(), p, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// Refund handles POST /v1/payments/{id}/refund.
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payment, err := h.Svc.Refund(r.Context(), p, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// Get handles GET /v1/payments/{id}.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payment, err := h.Svc.GetByID(r.Context(), p, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// ListMine handles GET /v1/payments?type=sent|received.
func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	payments, err := h.Svc.ListMine(r.Context(), p, r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/worklane/backend/internal/apperrors"
	"github.com/worklane/backend/internal/models"
	"github.com/worklane/backend/internal/services"
)

type stubEscrow struct {
	payment *models.Payment
	list    []*models.Payment
	err     error
}

func (s *stubEscrow) CreatePayment(context.Context, models.Principal, services.CreatePaymentInput) (*models.Payment, error) {
	return s.payment, s.err
}
func (s *stubEscrow) ProcessPayment(context.Context, models.Principal, uuid.UUID) (*models.Payment, error) {
	return s.payment, s.err
}
func (s *stubEscrow) Refund(context.Context, models.Principal, uuid.UUID) (*models.Payment, error) {
	return s.payment, s.err
}
func (s *stubEscrow) GetByID(context.Context, models.Principal, uuid.UUID) (*models.Payment, error) {
	return s.payment, s.err
}
func (s *stubEscrow) ListMine(context.Context, models.Principal, string) ([]*models.Payment, error) {
	return s.list, s.err
}

func samplePayment(status string) *models.Payment {
	return &models.Payment{
		ID:               uuid.New(),
		ContractID:       uuid.New(),
		PayerID:          uuid.New(),
		PayeeID:          uuid.New(),
		AmountCents:      10000,
		PlatformFeeCents: 1000,
		PaymentMethod:    "card",
		Status:           status,
	}
}

func TestCreatePayment_Created(t *testing.T) {
	p := samplePayment(models.PaymentStatusPending)
	h := &PaymentHandler{Svc: &stubEscrow{payment: p}, Log: slog.Default()}

	body := fmt.Sprintf(`{"contract_id": %q, "amount_cents": 10000, "payment_method": "card"}`, p.ContractID)
	req := authedRequest(http.MethodPost, "/v1/payments", body, models.Principal{ID: p.PayerID, Role: models.RoleClient}, nil)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.Payment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.PlatformFeeCents != 1000 {
		t.Errorf("platform fee in response: got %d, want 1000", got.PlatformFeeCents)
	}
}

func TestCreatePayment_BadContractID(t *testing.T) {
	h := &PaymentHandler{Svc: &stubEscrow{}, Log: slog.Default()}

	req := authedRequest(http.MethodPost, "/v1/payments", `{"contract_id": "nope"}`, models.Principal{ID: uuid.New()}, nil)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProcessPayment_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"already processed", apperrors.InvalidState("payment is completed, only pending payments can be processed"), http.StatusBadRequest},
		{"not payer", apperrors.Forbidden("only the payer can process this payment"), http.StatusForbidden},
		{"missing", apperrors.NotFound("payment not found"), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := uuid.New()
			h := &PaymentHandler{Svc: &stubEscrow{err: tc.err}, Log: slog.Default()}
			req := authedRequest(http.MethodPost, "/v1/payments/"+id.String()+"/process", "", models.Principal{ID: uuid.New()}, &id)
			rec := httptest.NewRecorder()

			h.Process(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestProcessPayment_ReturnsFinalState(t *testing.T) {
	p := samplePayment(models.PaymentStatusFailed)
	reason := "payment declined by gateway"
	p.FailureReason = &reason
	h := &PaymentHandler{Svc: &stubEscrow{payment: p}, Log: slog.Default()}

	req := authedRequest(http.MethodPost, "/v1/payments/"+p.ID.String()+"/process", "", models.Principal{ID: p.PayerID}, &p.ID)
	rec := httptest.NewRecorder()

	h.Process(rec, req)

	// A declined charge is still a 200; the body carries the failure.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got models.Payment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != models.PaymentStatusFailed || got.FailureReason == nil {
		t.Error("response should carry the failed state and reason")
	}
}

func TestRefundPayment_DoubleRefund(t *testing.T) {
	id := uuid.New()
	h := &PaymentHandler{Svc: &stubEscrow{err: apperrors.InvalidState("payment is refunded, only completed payments can be refunded")}, Log: slog.Default()}

	req := authedRequest(http.MethodPost, "/v1/payments/"+id.String()+"/refund", "", models.Principal{ID: uuid.New()}, &id)
	rec := httptest.NewRecorder()

	h.Refund(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListPayments_BadType(t *testing.T) {
	h := &PaymentHandler{Svc: &stubEscrow{err: apperrors.Validation("type must be sent or received")}, Log: slog.Default()}

	req := authedRequest(http.MethodGet, "/v1/payments?type=bogus", "", models.Principal{ID: uuid.New()}, nil)
	rec := httptest.NewRecorder()

	h.ListMine(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/worklane/backend/internal/apperrors"
	"github.com/worklane/backend/internal/middleware"
	"github.com/worklane/backend/internal/models"
	"github.com/worklane/backend/internal/services"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// stubProposalSvc returns canned results; err wins when set.
type stubProposalSvc struct {
	proposal *models.Proposal
	list     []*models.Proposal
	err      error
}

func (s *stubProposalSvc) Submit(context.Context, models.Principal, services.SubmitProposalInput) (*models.Proposal, error) {
	return s.proposal, s.err
}
func (s *stubProposalSvc) Edit(context.Context, models.Principal, uuid.UUID, services.EditProposalInput) (*models.Proposal, error) {
	return s.proposal, s.err
}
func (s *stubProposalSvc) Withdraw(context.Context, models.Principal, uuid.UUID, string) (*models.Proposal, error) {
	return s.proposal, s.err
}
func (s *stubProposalSvc) MarkViewed(context.Context, models.Principal, uuid.UUID) (*models.Proposal, error) {
	return s.proposal, s.err
}
func (s *stubProposalSvc) Delete(context.Context, models.Principal, uuid.UUID) error {
	return s.err
}
func (s *stubProposalSvc) GetByID(context.Context, models.Principal, uuid.UUID) (*models.Proposal, error) {
	return s.proposal, s.err
}
func (s *stubProposalSvc) ListByJob(context.Context, models.Principal, uuid.UUID) ([]*models.Proposal, error) {
	return s.list, s.err
}
func (s *stubProposalSvc) ListMine(context.Context, models.Principal) ([]*models.Proposal, error) {
	return s.list, s.err
}

type stubHiring struct {
	proposal *models.Proposal
	contract *models.Contract
	err      error
}

func (s *stubHiring) Hire(context.Context, models.Principal, uuid.UUID) (*models.Proposal, *models.Contract, error) {
	return s.proposal, s.contract, s.err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// authedRequest builds a request with the given principal in context and
// {id} bound as a path value when id is non-nil.
func authedRequest(method, target string, body string, p models.Principal, id *uuid.UUID) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(middleware.WithPrincipal(req.Context(), p))
	if id != nil {
		req.SetPathValue("id", id.String())
	}
	return req
}

func sampleProposal() *models.Proposal {
	return &models.Proposal{
		ID:             uuid.New(),
		JobID:          uuid.New(),
		FreelancerID:   uuid.New(),
		BidAmountCents: 40000,
		DeliveryDays:   7,
		CoverLetter:    "I can do this.",
		Status:         models.ProposalStatusSubmitted,
	}
}

func newProposalHandler(svc *stubProposalSvc, hiring *stubHiring) *ProposalHandler {
	if hiring == nil {
		hiring = &stubHiring{}
	}
	return &ProposalHandler{Svc: svc, Hiring: hiring, Log: slog.Default()}
}

// ---------------------------------------------------------------------------
// POST /v1/proposals
// ---------------------------------------------------------------------------

func TestSubmitProposal_Created(t *testing.T) {
	p := sampleProposal()
	h := newProposalHandler(&stubProposalSvc{proposal: p}, nil)

	body := fmt.Sprintf(`{"job_id": %q, "bid_amount_cents": 40000, "delivery_days": 7, "cover_letter": "I can do this."}`, p.JobID)
	req := authedRequest(http.MethodPost, "/v1/proposals", body, models.Principal{ID: p.FreelancerID, Role: models.RoleFreelancer}, nil)
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.Proposal
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != p.ID {
		t.Error("response does not carry the created proposal")
	}
}

func TestSubmitProposal_BadJobID(t *testing.T) {
	h := newProposalHandler(&stubProposalSvc{}, nil)

	req := authedRequest(http.MethodPost, "/v1/proposals", `{"job_id": "nope"}`, models.Principal{ID: uuid.New()}, nil)
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitProposal_ErrorMapping(t *testing.T) {
	jobID := uuid.New()
	body := fmt.Sprintf(`{"job_id": %q, "bid_amount_cents": 1, "delivery_days": 1, "cover_letter": "x"}`, jobID)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"duplicate", apperrors.Conflict("an active proposal for this job already exists"), http.StatusConflict},
		{"own job", apperrors.Forbidden("cannot submit a proposal to your own job"), http.StatusForbidden},
		{"closed job", apperrors.InvalidState("job is in_progress"), http.StatusBadRequest},
		{"missing job", apperrors.NotFound("job not found"), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newProposalHandler(&stubProposalSvc{err: tc.err}, nil)
			req := authedRequest(http.MethodPost, "/v1/proposals", body, models.Principal{ID: uuid.New()}, nil)
			rec := httptest.NewRecorder()

			h.Submit(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if resp["error"] == "" {
				t.Error("error body missing message")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// PATCH /v1/proposals/{id}/hire
// ---------------------------------------------------------------------------

func TestHireProposal(t *testing.T) {
	p := sampleProposal()
	p.Status = models.ProposalStatusAccepted
	contract := &models.Contract{
		ID:           uuid.New(),
		JobID:        p.JobID,
		FreelancerID: p.FreelancerID,
		ProposalID:   p.ID,
		AmountCents:  p.BidAmountCents,
		Status:       models.ContractStatusActive,
	}
	h := newProposalHandler(&stubProposalSvc{}, &stubHiring{proposal: p, contract: contract})

	req := authedRequest(http.MethodPatch, "/v1/proposals/"+p.ID.String()+"/hire", "", models.Principal{ID: uuid.New(), Role: models.RoleClient}, &p.ID)
	rec := httptest.NewRecorder()

	h.Hire(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp hireResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Proposal == nil || resp.Proposal.Status != models.ProposalStatusAccepted {
		t.Error("response missing accepted proposal")
	}
	if resp.Contract == nil || resp.Contract.ProposalID != p.ID {
		t.Error("response missing the formed contract")
	}
}

func TestHireProposal_NotOwner(t *testing.T) {
	id := uuid.New()
	h := newProposalHandler(&stubProposalSvc{}, &stubHiring{err: apperrors.Forbidden("only the job owner can hire")})

	req := authedRequest(http.MethodPatch, "/v1/proposals/"+id.String()+"/hire", "", models.Principal{ID: uuid.New()}, &id)
	rec := httptest.NewRecorder()

	h.Hire(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHireProposal_AlreadyHired(t *testing.T) {
	id := uuid.New()
	h := newProposalHandler(&stubProposalSvc{}, &stubHiring{err: apperrors.InvalidState("job is in_progress, hiring requires an open job")})

	req := authedRequest(http.MethodPatch, "/v1/proposals/"+id.String()+"/hire", "", models.Principal{ID: uuid.New()}, &id)
	rec := httptest.NewRecorder()

	h.Hire(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Remaining endpoints
// ---------------------------------------------------------------------------

func TestWithdrawProposal_OK(t *testing.T) {
	p := sampleProposal()
	p.Status = models.ProposalStatusWithdrawn
	h := newProposalHandler(&stubProposalSvc{proposal: p}, nil)

	req := authedRequest(http.MethodPatch, "/v1/proposals/"+p.ID.String()+"/withdraw", `{"withdraw_reason": "busy"}`, models.Principal{ID: p.FreelancerID}, &p.ID)
	rec := httptest.NewRecorder()

	h.Withdraw(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteProposal_NoContent(t *testing.T) {
	id := uuid.New()
	h := newProposalHandler(&stubProposalSvc{}, nil)

	req := authedRequest(http.MethodDelete, "/v1/proposals/"+id.String(), "", models.Principal{ID: uuid.New()}, &id)
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestGetProposal_InvalidID(t *testing.T) {
	h := newProposalHandler(&stubProposalSvc{}, nil)

	req := authedRequest(http.MethodGet, "/v1/proposals/abc", "", models.Principal{ID: uuid.New()}, nil)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetProposal_Unauthenticated(t *testing.T) {
	id := uuid.New()
	h := newProposalHandler(&stubProposalSvc{}, nil)

	// No principal in context.
	req := httptest.NewRequest(http.MethodGet, "/v1/proposals/"+id.String(), nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestListMineProposals(t *testing.T) {
	p := sampleProposal()
	h := newProposalHandler(&stubProposalSvc{list: []*models.Proposal{p}}, nil)

	req := authedRequest(http.MethodGet, "/v1/proposals", "", models.Principal{ID: p.FreelancerID}, nil)
	rec := httptest.NewRecorder()

	h.ListMine(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []*models.Proposal
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 proposal, got %d", len(got))
	}
}

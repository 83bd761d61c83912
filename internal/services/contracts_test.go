package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/worklane/backend/internal/apperrors"
	"github.com/worklane/backend/internal/models"
)

func newContractFixture(job *models.Job, contract *models.Contract) (*ContractService, *mockContractStore, *mockJobStore) {
	jobs := newMockJobStore(job)
	cs := newMockContractStore(contract)
	return NewContractService(mockPool{}, cs, jobs), cs, jobs
}

func TestSubmitWork(t *testing.T) {
	client := uuid.New()
	freelancer := uuid.New()
	job := openJob(client)
	job.Status = models.JobStatusInProgress
	contract := activeContract(client, freelancer)
	contract.JobID = job.ID

	svc, _, _ := newContractFixture(job, contract)

	got, err := svc.SubmitWork(context.Background(), asFreelancer(freelancer), contract.ID)
	if err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}
	if got.Status != models.ContractStatusWorkSubmitted {
		t.Errorf("status: got %s, want work_submitted", got.Status)
	}

	// Submitting twice is rejected.
	if _, err := svc.SubmitWork(context.Background(), asFreelancer(freelancer), contract.ID); !apperrors.Is(err, apperrors.CodeInvalidState) {
		t.Errorf("second submit: expected invalid_state, got %v", err)
	}
}

func TestSubmitWork_ClientCannot(t *testing.T) {
	client := uuid.New()
	job := openJob(client)
	contract := activeContract(client, uuid.New())
	contract.JobID = job.ID

	svc, _, _ := newContractFixture(job, contract)

	_, err := svc.SubmitWork(context.Background(), asClient(client), contract.ID)
	if !apperrors.Is(err, apperrors.CodeForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestCompleteContract(t *testing.T) {
	client := uuid.New()
	freelancer := uuid.New()
	job := openJob(client)
	job.Status = models.JobStatusInProgress
	contract := activeContract(client, freelancer)
	contract.JobID = job.ID

	svc, _, jobs := newContractFixture(job, contract)
	ctx := context.Background()

	if _, err := svc.SubmitWork(ctx, asFreelancer(freelancer), contract.ID); err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}
	got, err := svc.Complete(ctx, asClient(client), contract.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Status != models.ContractStatusCompleted {
		t.Errorf("contract status: got %s, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	// The job closes out with the contract.
	if status := jobs.get(job.ID).Status; status != models.JobStatusCompleted {
		t.Errorf("job status: got %s, want completed", status)
	}
}

func TestCompleteContract_RequiresSubmittedWork(t *testing.T) {
	client := uuid.New()
	job := openJob(client)
	job.Status = models.JobStatusInProgress
	contract := activeContract(client, uuid.New())
	contract.JobID = job.ID

	svc, _, _ := newContractFixture(job, contract)

	_, err := svc.Complete(context.Background(), asClient(client), contract.ID)
	if !apperrors.Is(err, apperrors.CodeInvalidState) {
		t.Errorf("expected invalid_state, got %v", err)
	}
}

func TestCompleteContract_FreelancerCannot(t *testing.T) {
	client := uuid.New()
	freelancer := uuid.New()
	job := openJob(client)
	job.Status = models.JobStatusInProgress
	contract := activeContract(client, freelancer)
	contract.JobID = job.ID

	svc, _, _ := newContractFixture(job, contract)
	ctx := context.Background()

	if _, err := svc.SubmitWork(ctx, asFreelancer(freelancer), contract.ID); err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}
	if _, err := svc.Complete(ctx, asFreelancer(freelancer), contract.ID); !apperrors.Is(err, apperrors.CodeForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestGetContract_PartiesOnly(t *testing.T) {
	client := uuid.New()
	freelancer := uuid.New()
	job := openJob(client)
	contract := activeContract(client, freelancer)
	contract.JobID = job.ID

	svc, _, _ := newContractFixture(job, contract)
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, asClient(client), contract.ID); err != nil {
		t.Errorf("client read: %v", err)
	}
	if _, err := svc.GetByID(ctx, asFreelancer(freelancer), contract.ID); err != nil {
		t.Errorf("freelancer read: %v", err)
	}
	if _, err := svc.GetByID(ctx, asClient(uuid.New()), contract.ID); !apperrors.Is(err, apperrors.CodeForbidden) {
		t.Error("stranger read should be forbidden")
	}
}

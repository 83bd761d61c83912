package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/worklane/backend/internal/apperrors"
	"github.com/worklane/backend/internal/models"
)

func TestCreateJob(t *testing.T) {
	client := uuid.New()
	jobs := newMockJobStore()
	svc := NewJobService(jobs)

	j, err := svc.Create(context.Background(), asClient(client), CreateJobInput{
		Title:       "API integration",
		Description: "Hook up the billing provider.",
		BudgetCents: 120000,
		BudgetType:  models.BudgetTypeFixed,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if j.Status != models.JobStatusOpen {
		t.Errorf("status: got %s, want open", j.Status)
	}
	if j.ClientID != client {
		t.Error("client id not taken from principal")
	}

	if j.ProposalsCount != 0 {
		t.Errorf("proposals_count: got %d, want 0", j.ProposalsCount)
	}

	stored, err := svc.GetByID(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Title != "API integration" {
		t.Errorf("stored title: %q", stored.Title)
	}
}

func TestCreateJob_Validation(t *testing.T) {
	svc := NewJobService(newMockJobStore())
	ctx := context.Background()
	client := asClient(uuid.New())

	cases := []struct {
		name string
		in   CreateJobInput
	}{
		{"missing title", CreateJobInput{Description: "d", BudgetCents: 100, BudgetType: models.BudgetTypeFixed}},
		{"missing description", CreateJobInput{Title: "t", BudgetCents: 100, BudgetType: models.BudgetTypeFixed}},
		{"zero budget", CreateJobInput{Title: "t", Description: "d", BudgetCents: 0, BudgetType: models.BudgetTypeFixed}},
		{"bad budget type", CreateJobInput{Title: "t", Description: "d", BudgetCents: 100, BudgetType: "retainer"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, client, tc.in); !apperrors.Is(err, apperrors.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

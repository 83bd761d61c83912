package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/worklane/backend/internal/apperrors"
	"github.com/worklane/backend/internal/models"
)

// JobRepo is the job persistence contract for posting and browsing.
type JobRepo interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListOpen(ctx context.Context) ([]*models.Job, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Job, error)
}

// JobService covers the thin job surface the engagement core hangs off:
// posting, and reading back by id or listing.
type JobService struct {
	jobs JobRepo
}

func NewJobService(jobs JobRepo) *JobService {
	return &JobService{jobs: jobs}
}

type CreateJobInput struct {
	Title       string
	Description string
	BudgetCents int64
	BudgetType  string
}

func (s *JobService) Create(ctx context.Context, principal models.Principal, in CreateJobInput) (*models.Job, error) {
	if in.Title == "" || in.Description == "" {
		return nil, apperrors.Validation("title and description are required")
	}
	if in.BudgetCents <= 0 {
		return nil, apperrors.Validation("budget_cents must be > 0")
	}
	if in.BudgetType != models.BudgetTypeFixed && in.BudgetType != models.BudgetTypeHourly {
		return nil, apperrors.Validation("budget_type must be fixed or hourly")
	}
	j := &models.Job{
		ID:          uuid.New(),
		ClientID:    principal.ID,
		Title:       in.Title,
		Description: in.Description,
		BudgetCents: in.BudgetCents,
		BudgetType:  in.BudgetType,
		Status:      models.JobStatusOpen,
	}
	if err := s.jobs.Create(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *JobService) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

func (s *JobService) ListOpen(ctx context.Context) ([]*models.Job, error) {
	return s.jobs.ListOpen(ctx)
}

func (s *JobService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Job, error) {
	return s.jobs.ListByClient(ctx, clientID)
}

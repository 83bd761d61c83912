package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/worklane/backend/internal/apperrors"
	"github.com/worklane/backend/internal/models"
)

// ContractRepo is the contract persistence contract for the service.
type ContractRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	ListByParty(ctx context.Context, userID uuid.UUID) ([]*models.Contract, error)
	MarkWorkSubmitted(ctx context.Context, id uuid.UUID) (bool, error)
	MarkCompletedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, completedAt time.Time) (bool, error)
}

// ContractJobRepo closes out the job when its contract completes.
type ContractJobRepo interface {
	MarkCompletedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// ContractService owns contract status after formation: work
// submission by the freelancer and completion by the client. Contract
// rows are never mutated outside these operations.
type ContractService struct {
	pool      TxBeginner
	contracts ContractRepo
	jobs      ContractJobRepo
	now       func() time.Time
}

func NewContractService(pool TxBeginner, contracts ContractRepo, jobs ContractJobRepo) *ContractService {
	return &ContractService{pool: pool, contracts: contracts, jobs: jobs, now: time.Now}
}

// GetByID returns a contract to either party or an admin.
func (s *ContractService) GetByID(ctx context.Context, principal models.Principal, contractID uuid.UUID) (*models.Contract, error) {
	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.ClientID != principal.ID && c.FreelancerID != principal.ID && !principal.IsAdmin() {
		return nil, apperrors.Forbidden("contract belongs to other parties")
	}
	return c, nil
}

// ListMine returns every contract the principal is a party to.
func (s *ContractService) ListMine(ctx context.Context, principal models.Principal) ([]*models.Contract, error) {
	return s.contracts.ListByParty(ctx, principal.ID)
}

// SubmitWork moves an active contract to work_submitted. Freelancer
// only.
func (s *ContractService) SubmitWork(ctx context.Context, principal models.Principal, contractID uuid.UUID) (*models.Contract, error) {
	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.FreelancerID != principal.ID {
		return nil, apperrors.Forbidden("only the contract freelancer can submit work")
	}
	ok, err := s.contracts.MarkWorkSubmitted(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.InvalidState("contract is %s, work can only be submitted on an active contract", c.Status)
	}
	return s.contracts.GetByID(ctx, contractID)
}

// Complete accepts submitted work: the contract moves to completed and
// the job closes out, in one transaction. Client only.
func (s *ContractService) Complete(ctx context.Context, principal models.Principal, contractID uuid.UUID) (*models.Contract, error) {
	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.ClientID != principal.ID {
		return nil, apperrors.Forbidden("only the contract client can complete it")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.contracts.MarkCompletedTx(ctx, tx, contractID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.InvalidState("contract is %s, only submitted work can be accepted", c.Status)
	}
	// The job may already be closed by an earlier path; that is fine.
	if _, err := s.jobs.MarkCompletedTx(ctx, tx, c.JobID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.contracts.GetByID(ctx, contractID)
}

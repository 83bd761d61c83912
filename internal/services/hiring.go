package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/worklane/backend/internal/apperrors"
	"github.com/worklane/backend/internal/models"
	"github.com/worklane/backend/internal/notify"
)

// HiringJobRepo is the slice of the job repository hiring needs. Both
// methods run inside the hire transaction.
type HiringJobRepo interface {
	LockForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Job, error)
	MarkInProgressTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// HiringProposalRepo is the slice of the proposal repository hiring
// needs.
type HiringProposalRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	AcceptTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	ExcludeSiblingsTx(ctx context.Context, tx pgx.Tx, jobID, acceptedID uuid.UUID) ([]models.ProposalRef, error)
}

// HiringContractRepo creates the contract inside the hire transaction.
type HiringContractRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, c *models.Contract) error
}

// EnqueueNotifyTxFunc enqueues a notification delivery within the given
// transaction, typically a closure over river.Client.InsertTx.
type EnqueueNotifyTxFunc func(ctx context.Context, tx pgx.Tx, args notify.Args) error

// HiringService executes the exclusive accept-one-exclude-the-rest
// transition. Everything a hire implies commits in one transaction:
// the job status flip, the winning proposal's acceptance, sibling
// exclusion, contract creation, and the notification enqueues. No
// reader can ever observe the job in_progress while a sibling still
// reads submitted, or two accepted proposals on one job.
type HiringService struct {
	pool          TxBeginner
	jobs          HiringJobRepo
	proposals     HiringProposalRepo
	contracts     HiringContractRepo
	enqueueNotify EnqueueNotifyTxFunc
	log           *slog.Logger
}

func NewHiringService(pool TxBeginner, jobs HiringJobRepo, proposals HiringProposalRepo, contracts HiringContractRepo, enqueueNotify EnqueueNotifyTxFunc, log *slog.Logger) *HiringService {
	if log == nil {
		log = slog.Default()
	}
	return &HiringService{pool: pool, jobs: jobs, proposals: proposals, contracts: contracts, enqueueNotify: enqueueNotify, log: log}
}

// Hire accepts the proposal for the caller's job. Only a submitted
// proposal can be hired. Two concurrent hires on the same job serialize
// on the locked job row and the loser gets InvalidState from the
// open -> in_progress guard.
func (s *HiringService) Hire(ctx context.Context, principal models.Principal, proposalID uuid.UUID) (*models.Proposal, *models.Contract, error) {
	p, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	job, err := s.jobs.LockForUpdateTx(ctx, tx, p.JobID)
	if err != nil {
		return nil, nil, err
	}
	if job.ClientID != principal.ID {
		return nil, nil, apperrors.Forbidden("only the job owner can hire")
	}

	ok, err := s.jobs.MarkInProgressTx(ctx, tx, job.ID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, apperrors.InvalidState("job is %s, hiring requires an open job", job.Status)
	}

	ok, err = s.proposals.AcceptTx(ctx, tx, proposalID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, apperrors.InvalidState("proposal is %s, only submitted proposals can be hired", p.Status)
	}

	excluded, err := s.proposals.ExcludeSiblingsTx(ctx, tx, job.ID, proposalID)
	if err != nil {
		return nil, nil, err
	}

	contract := &models.Contract{
		ID:           uuid.New(),
		JobID:        job.ID,
		ClientID:     job.ClientID,
		FreelancerID: p.FreelancerID,
		ProposalID:   p.ID,
		AmountCents:  p.BidAmountCents,
		BudgetType:   job.BudgetType,
		Status:       models.ContractStatusActive,
	}
	if err := s.contracts.CreateTx(ctx, tx, contract); err != nil {
		return nil, nil, err
	}

	if s.enqueueNotify != nil {
		payload, _ := json.Marshal(map[string]string{"job_id": job.ID.String(), "proposal_id": p.ID.String()})
		if err := s.enqueueNotify(ctx, tx, notify.Args{UserID: p.FreelancerID, Event: notify.EventProposalHired, Payload: payload}); err != nil {
			return nil, nil, err
		}
		for _, ref := range excluded {
			refPayload, _ := json.Marshal(map[string]string{"job_id": job.ID.String(), "proposal_id": ref.ID.String()})
			if err := s.enqueueNotify(ctx, tx, notify.Args{UserID: ref.FreelancerID, Event: notify.EventProposalExcluded, Payload: refPayload}); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	s.log.Info("proposal hired", "job_id", job.ID, "proposal_id", p.ID, "excluded", len(excluded))

	hired, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}
	return hired, contract, nil
}

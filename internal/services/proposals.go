package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/worklane/backend/internal/apperrors"
	"github.com/worklane/backend/internal/models"
)

// TxBeginner abstracts transaction creation so tests don't need a
// pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ProposalRepo is the proposal persistence contract for the service.
type ProposalRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, p *models.Proposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	UpdateTerms(ctx context.Context, p *models.Proposal) error
	MarkViewed(ctx context.Context, id uuid.UUID, viewedAt time.Time) (bool, error)
	WithdrawTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) (bool, error)
	DeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Proposal, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*models.Proposal, error)
}

// ProposalJobRepo is the slice of the job repository proposals need.
type ProposalJobRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	AdjustProposalsCountTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int) error
}

// ProposalService implements the proposal state machine: submission
// against open jobs, freelancer edits, withdrawal, owner viewing, and
// deletion. Acceptance and exclusion belong to HiringService.
type ProposalService struct {
	pool      TxBeginner
	proposals ProposalRepo
	jobs      ProposalJobRepo
	now       func() time.Time
}

func NewProposalService(pool TxBeginner, proposals ProposalRepo, jobs ProposalJobRepo) *ProposalService {
	return &ProposalService{pool: pool, proposals: proposals, jobs: jobs, now: time.Now}
}

type SubmitProposalInput struct {
	JobID          uuid.UUID
	BidAmountCents int64
	DeliveryDays   int
	CoverLetter    string
	Message        string
	Attachments    json.RawMessage
}

// Submit creates a proposal for an open job. The insert and the
// proposals_count increment commit together; the partial unique index
// turns a duplicate active proposal into Conflict regardless of timing.
func (s *ProposalService) Submit(ctx context.Context, principal models.Principal, in SubmitProposalInput) (*models.Proposal, error) {
	if in.BidAmountCents < 0 {
		return nil, apperrors.Validation("bid_amount_cents must be >= 0")
	}
	if in.DeliveryDays <= 0 {
		return nil, apperrors.Validation("delivery_days must be > 0")
	}
	if in.CoverLetter == "" {
		return nil, apperrors.Validation("cover_letter is required")
	}

	job, err := s.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusOpen {
		return nil, apperrors.InvalidState("job is %s, proposals are only accepted while it is open", job.Status)
	}
	if job.ClientID == principal.ID {
		return nil, apperrors.Forbidden("cannot submit a proposal to your own job")
	}

	p := &models.Proposal{
		ID:             uuid.New(),
		JobID:          job.ID,
		FreelancerID:   principal.ID,
		BidAmountCents: in.BidAmountCents,
		DeliveryDays:   in.DeliveryDays,
		CoverLetter:    in.CoverLetter,
		Message:        in.Message,
		Attachments:    in.Attachments,
		Status:         models.ProposalStatusSubmitted,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.proposals.CreateTx(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := s.jobs.AdjustProposalsCountTx(ctx, tx, job.ID, 1); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

type EditProposalInput struct {
	BidAmountCents *int64
	DeliveryDays   *int
	CoverLetter    *string
	Message        *string
}

// Edit updates a proposal's negotiable terms while it is still
// submitted or viewed. Only the owning freelancer may edit.
func (s *ProposalService) Edit(ctx context.Context, principal models.Principal, proposalID uuid.UUID, in EditProposalInput) (*models.Proposal, error) {
	p, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.FreelancerID != principal.ID {
		return nil, apperrors.Forbidden("proposal belongs to another freelancer")
	}
	if models.ProposalStatusTerminal(p.Status) {
		return nil, apperrors.InvalidState("proposal is %s and can no longer be edited", p.Status)
	}

	if in.BidAmountCents != nil {
		if *in.BidAmountCents < 0 {
			return nil, apperrors.Validation("bid_amount_cents must be >= 0")
		}
		p.BidAmountCents = *in.BidAmountCents
	}
	if in.DeliveryDays != nil {
		if *in.DeliveryDays <= 0 {
			return nil, apperrors.Validation("delivery_days must be > 0")
		}
		p.DeliveryDays = *in.DeliveryDays
	}
	if in.CoverLetter != nil {
		if *in.CoverLetter == "" {
			return nil, apperrors.Validation("cover_letter cannot be empty")
		}
		p.CoverLetter = *in.CoverLetter
	}
	if in.Message != nil {
		p.Message = *in.Message
	}

	if err := s.proposals.UpdateTerms(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Withdraw moves a submitted or viewed proposal to withdrawn and gives
// back its slot in the job's proposal count, in one transaction.
func (s *ProposalService) Withdraw(ctx context.Context, principal models.Principal, proposalID uuid.UUID, reason string) (*models.Proposal, error) {
	p, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.FreelancerID != principal.ID && !principal.IsAdmin() {
		return nil, apperrors.Forbidden("proposal belongs to another freelancer")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.proposals.WithdrawTx(ctx, tx, proposalID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.InvalidState("proposal is %s, only submitted or viewed proposals can be withdrawn", p.Status)
	}
	if err := s.jobs.AdjustProposalsCountTx(ctx, tx, p.JobID, -1); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.proposals.GetByID(ctx, proposalID)
}

// MarkViewed records that the job owner looked at a submitted proposal.
// Idempotent: a proposal already viewed or past viewed is returned
// unchanged, never downgraded.
func (s *ProposalService) MarkViewed(ctx context.Context, principal models.Principal, proposalID uuid.UUID) (*models.Proposal, error) {
	p, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.GetByID(ctx, p.JobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != principal.ID {
		return nil, apperrors.Forbidden("only the job owner can mark proposals as viewed")
	}
	if p.Status != models.ProposalStatusSubmitted {
		return p, nil
	}
	if _, err := s.proposals.MarkViewed(ctx, proposalID, s.now()); err != nil {
		return nil, err
	}
	return s.proposals.GetByID(ctx, proposalID)
}

// Delete removes a proposal. Admins may delete any; the owning
// freelancer only while it is still submitted. A deleted non-terminal
// proposal releases its slot in the job's count.
func (s *ProposalService) Delete(ctx context.Context, principal models.Principal, proposalID uuid.UUID) error {
	p, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return err
	}
	if !principal.IsAdmin() {
		if p.FreelancerID != principal.ID {
			return apperrors.Forbidden("proposal belongs to another freelancer")
		}
		if p.Status != models.ProposalStatusSubmitted {
			return apperrors.InvalidState("proposal is %s, only submitted proposals can be deleted by their owner", p.Status)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.proposals.DeleteTx(ctx, tx, proposalID); err != nil {
		return err
	}
	if !models.ProposalStatusTerminal(p.Status) {
		if err := s.jobs.AdjustProposalsCountTx(ctx, tx, p.JobID, -1); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetByID returns a proposal to its freelancer, the job owner, or an
// admin.
func (s *ProposalService) GetByID(ctx context.Context, principal models.Principal, proposalID uuid.UUID) (*models.Proposal, error) {
	p, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.FreelancerID == principal.ID || principal.IsAdmin() {
		return p, nil
	}
	job, err := s.jobs.GetByID(ctx, p.JobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != principal.ID {
		return nil, apperrors.Forbidden("proposal belongs to another user")
	}
	return p, nil
}

// ListByJob returns a job's proposals to its owner or an admin.
func (s *ProposalService) ListByJob(ctx context.Context, principal models.Principal, jobID uuid.UUID) ([]*models.Proposal, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != principal.ID && !principal.IsAdmin() {
		return nil, apperrors.Forbidden("only the job owner can list its proposals")
	}
	return s.proposals.ListByJob(ctx, jobID)
}

// ListMine returns the principal's own proposals.
func (s *ProposalService) ListMine(ctx context.Context, principal models.Principal) ([]*models.Proposal, error) {
	return s.proposals.ListByFreelancer(ctx, principal.ID)
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worklane/backend/internal/apperrors"
	"github.com/worklane/backend/internal/models"
)

const proposalColumns = `id, job_id, freelancer_id, bid_amount_cents, delivery_days, cover_letter, message, attachments, status, viewed_at, withdraw_reason, created_at, updated_at`

type ProposalRepo struct {
	pool *pgxpool.Pool
}

func NewProposalRepo(pool *pgxpool.Pool) *ProposalRepo {
	return &ProposalRepo{pool: pool}
}

// CreateTx inserts a proposal inside the caller's transaction. A
// unique-index violation (a non-terminal proposal already exists for
// this job and freelancer) comes back as Conflict.
func (r *ProposalRepo) CreateTx(ctx context.Context, tx pgx.Tx, p *models.Proposal) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO proposals (id, job_id, freelancer_id, bid_amount_cents, delivery_days, cover_letter, message, attachments, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, p.ID, p.JobID, p.FreelancerID, p.BidAmountCents, p.DeliveryDays, p.CoverLetter, p.Message, p.Attachments, p.Status).Scan(&p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.Conflict("an active proposal for this job already exists")
	}
	return err
}

func (r *ProposalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	return scanProposal(r.pool.QueryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = $1`, id))
}

// UpdateTerms persists freelancer edits to a proposal's negotiable
// fields. Status is deliberately not written here.
func (r *ProposalRepo) UpdateTerms(ctx context.Context, p *models.Proposal) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE proposals
		SET bid_amount_cents = $2, delivery_days = $3, cover_letter = $4, message = $5, updated_at = now()
		WHERE id = $1
	`, p.ID, p.BidAmountCents, p.DeliveryDays, p.CoverLetter, p.Message)
	return err
}

// MarkViewed transitions submitted -> viewed. Returns false when the
// proposal is past submitted, so a later state is never downgraded.
func (r *ProposalRepo) MarkViewed(ctx context.Context, id uuid.UUID, viewedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE proposals SET status = 'viewed', viewed_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'submitted'
	`, id, viewedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// WithdrawTx transitions {submitted, viewed} -> withdrawn inside the
// caller's transaction (paired with the proposals_count decrement).
func (r *ProposalRepo) WithdrawTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE proposals SET status = 'withdrawn', withdraw_reason = $2, updated_at = now()
		WHERE id = $1 AND status IN ('submitted', 'viewed')
	`, id, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AcceptTx transitions submitted -> accepted. The status condition makes
// a second concurrent hire of the same proposal a no-op the service
// reports as InvalidState.
func (r *ProposalRepo) AcceptTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE proposals SET status = 'accepted', updated_at = now()
		WHERE id = $1 AND status = 'submitted'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExcludeSiblingsTx moves every other still-submitted proposal on the
// job to excluded, returning the affected (proposal, freelancer) pairs.
// Proposals already viewed, withdrawn, or rejected are left untouched.
func (r *ProposalRepo) ExcludeSiblingsTx(ctx context.Context, tx pgx.Tx, jobID, acceptedID uuid.UUID) ([]models.ProposalRef, error) {
	rows, err := tx.Query(ctx, `
		UPDATE proposals SET status = 'excluded', updated_at = now()
		WHERE job_id = $1 AND id <> $2 AND status = 'submitted'
		RETURNING id, freelancer_id
	`, jobID, acceptedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []models.ProposalRef
	for rows.Next() {
		var ref models.ProposalRef
		if err := rows.Scan(&ref.ID, &ref.FreelancerID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *ProposalRepo) DeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM proposals WHERE id = $1`, id)
	return err
}

func (r *ProposalRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*models.Proposal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+proposalColumns+` FROM proposals WHERE job_id = $1 ORDER BY created_at ASC
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProposals(rows)
}

func (r *ProposalRepo) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*models.Proposal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+proposalColumns+` FROM proposals WHERE freelancer_id = $1 ORDER BY created_at DESC
	`, freelancerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProposals(rows)
}

func collectProposals(rows pgx.Rows) ([]*models.Proposal, error) {
	var list []*models.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanProposal(row pgx.Row) (*models.Proposal, error) {
	var p models.Proposal
	err := row.Scan(&p.ID, &p.JobID, &p.FreelancerID, &p.BidAmountCents, &p.DeliveryDays, &p.CoverLetter, &p.Message, &p.Attachments, &p.Status, &p.ViewedAt, &p.WithdrawReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "proposal not found")
	}
	return &p, nil
}

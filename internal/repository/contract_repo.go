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

const contractColumns = `id, job_id, client_id, freelancer_id, proposal_id, amount_cents, budget_type, status, completed_at, created_at, updated_at`

type ContractRepo struct {
	pool *pgxpool.Pool
}

func NewContractRepo(pool *pgxpool.Pool) *ContractRepo {
	return &ContractRepo{pool: pool}
}

// CreateTx inserts the contract in the hire transaction. The unique
// proposal_id constraint keeps contracts 1:1 with accepted proposals.
func (r *ContractRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *models.Contract) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO contracts (id, job_id, client_id, freelancer_id, proposal_id, amount_cents, budget_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, c.ID, c.JobID, c.ClientID, c.FreelancerID, c.ProposalID, c.AmountCents, c.BudgetType, c.Status).Scan(&c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.Conflict("a contract for this proposal already exists")
	}
	return err
}

func (r *ContractRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	return scanContract(r.pool.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id))
}

// ListByParty returns contracts where the user is either side.
func (r *ContractRepo) ListByParty(ctx context.Context, userID uuid.UUID) ([]*models.Contract, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+contractColumns+` FROM contracts
		WHERE client_id = $1 OR freelancer_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// MarkWorkSubmitted transitions active -> work_submitted.
func (r *ContractRepo) MarkWorkSubmitted(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contracts SET status = 'work_submitted', updated_at = now()
		WHERE id = $1 AND status = 'active'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCompletedTx transitions work_submitted -> completed in the same
// transaction that closes out the job.
func (r *ContractRepo) MarkCompletedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, completedAt time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE contracts SET status = 'completed', completed_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'work_submitted'
	`, id, completedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanContract(row pgx.Row) (*models.Contract, error) {
	var c models.Contract
	err := row.Scan(&c.ID, &c.JobID, &c.ClientID, &c.FreelancerID, &c.ProposalID, &c.AmountCents, &c.BudgetType, &c.Status, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "contract not found")
	}
	return &c, nil
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worklane/backend/internal/models"
)

const jobColumns = `id, client_id, title, description, budget_cents, budget_type, status, proposals_count, created_at, updated_at`

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func (r *JobRepo) Create(ctx context.Context, j *models.Job) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO jobs (id, client_id, title, description, budget_cents, budget_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, j.ID, j.ClientID, j.Title, j.Description, j.BudgetCents, j.BudgetType, j.Status).Scan(&j.CreatedAt, &j.UpdatedAt)
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
}

func (r *JobRepo) ListOpen(ctx context.Context) ([]*models.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'open' ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

func (r *JobRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE client_id = $1 ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

// LockForUpdateTx locks the job row so concurrent hires on the same job
// serialize on it. Call within a transaction.
func (r *JobRepo) LockForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Job, error) {
	return scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id))
}

// MarkInProgressTx transitions the job open -> in_progress. Returns
// false when the job is no longer open (the caller reports the current
// status); the conditional UPDATE is what makes double-hiring impossible.
func (r *JobRepo) MarkInProgressTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE jobs SET status = 'in_progress', updated_at = now()
		WHERE id = $1 AND status = 'open'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCompletedTx transitions the job in_progress -> completed.
func (r *JobRepo) MarkCompletedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE jobs SET status = 'completed', updated_at = now()
		WHERE id = $1 AND status = 'in_progress'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AdjustProposalsCountTx moves proposals_count by delta atomically.
// Runs in the same transaction as the proposal write so the count can
// never drift from the rows it summarizes.
func (r *JobRepo) AdjustProposalsCountTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int) error {
	_, err := tx.Exec(ctx, `
		UPDATE jobs SET proposals_count = proposals_count + $2, updated_at = now()
		WHERE id = $1
	`, id, delta)
	return err
}

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.ClientID, &j.Title, &j.Description, &j.BudgetCents, &j.BudgetType, &j.Status, &j.ProposalsCount, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "job not found")
	}
	return &j, nil
}

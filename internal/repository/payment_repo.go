package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worklane/backend/internal/models"
)

const paymentColumns = `id, contract_id, payer_id, payee_id, amount_cents, platform_fee_cents, payment_method, description, status, transaction_id, failure_reason, processed_at, created_at`

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

func (r *PaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO payments (id, contract_id, payer_id, payee_id, amount_cents, platform_fee_cents, payment_method, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, p.ID, p.ContractID, p.PayerID, p.PayeeID, p.AmountCents, p.PlatformFeeCents, p.PaymentMethod, p.Description, p.Status).Scan(&p.CreatedAt)
}

func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

// MarkProcessing claims the payment for processing: pending ->
// processing. Exactly one of any number of concurrent callers gets true,
// so the gateway is invoked at most once per payment.
func (r *PaymentRepo) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = 'processing'
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FinalizeCompleted records a successful charge: processing -> completed.
func (r *PaymentRepo) FinalizeCompleted(ctx context.Context, id uuid.UUID, transactionID string, processedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = 'completed', transaction_id = $2, processed_at = $3
		WHERE id = $1 AND status = 'processing'
	`, id, transactionID, processedAt)
	return err
}

// FinalizeFailed records a declined charge: processing -> failed.
// Failure is terminal for this payment record; retrying means creating
// a new payment.
func (r *PaymentRepo) FinalizeFailed(ctx context.Context, id uuid.UUID, reason string, processedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = 'failed', failure_reason = $2, processed_at = $3
		WHERE id = $1 AND status = 'processing'
	`, id, reason, processedAt)
	return err
}

// MarkRefunded transitions completed -> refunded, the only legal path
// to refunded.
func (r *PaymentRepo) MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = 'refunded'
		WHERE id = $1 AND status = 'completed'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PaymentRepo) ListByPayer(ctx context.Context, payerID uuid.UUID) ([]*models.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE payer_id = $1 ORDER BY created_at DESC
	`, payerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (r *PaymentRepo) ListByPayee(ctx context.Context, payeeID uuid.UUID) ([]*models.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE payee_id = $1 ORDER BY created_at DESC
	`, payeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]*models.Payment, error) {
	var list []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.ContractID, &p.PayerID, &p.PayeeID, &p.AmountCents, &p.PlatformFeeCents, &p.PaymentMethod, &p.Description, &p.Status, &p.TransactionID, &p.FailureReason, &p.ProcessedAt, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, "payment not found")
	}
	return &p, nil
}

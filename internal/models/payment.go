package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment status transitions: pending → processing → {completed, failed};
// refunded is reachable only from completed. No other edge is legal.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

type Payment struct {
	ID               uuid.UUID  `json:"id"`
	ContractID       uuid.UUID  `json:"contract_id"`
	PayerID          uuid.UUID  `json:"payer_id"`
	PayeeID          uuid.UUID  `json:"payee_id"`
	AmountCents      int64      `json:"amount_cents"`
	PlatformFeeCents int64      `json:"platform_fee_cents"`
	PaymentMethod    string     `json:"payment_method"`
	Description      string     `json:"description,omitempty"`
	Status           string     `json:"status"`
	TransactionID    *string    `json:"transaction_id,omitempty"`
	FailureReason    *string    `json:"failure_reason,omitempty"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

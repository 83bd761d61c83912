package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ContractStatusActive        = "active"
	ContractStatusWorkSubmitted = "work_submitted"
	ContractStatusCompleted     = "completed"
)

// Contract is created exactly once per hire, 1:1 with the accepted
// proposal. Its status moves only through ContractService operations.
type Contract struct {
	ID           uuid.UUID  `json:"id"`
	JobID        uuid.UUID  `json:"job_id"`
	ClientID     uuid.UUID  `json:"client_id"`
	FreelancerID uuid.UUID  `json:"freelancer_id"`
	ProposalID   uuid.UUID  `json:"proposal_id"`
	AmountCents  int64      `json:"amount_cents"`
	BudgetType   string     `json:"budget_type"`
	Status       string     `json:"status"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

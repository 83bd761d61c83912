package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ProposalStatusSubmitted = "submitted"
	ProposalStatusViewed    = "viewed"
	ProposalStatusAccepted  = "accepted"
	ProposalStatusRejected  = "rejected"
	ProposalStatusWithdrawn = "withdrawn"
	ProposalStatusExcluded  = "excluded"
)

// ProposalStatusTerminal reports whether no further transition is
// permitted from the given status.
func ProposalStatusTerminal(status string) bool {
	switch status {
	case ProposalStatusAccepted, ProposalStatusRejected, ProposalStatusWithdrawn, ProposalStatusExcluded:
		return true
	}
	return false
}

type Proposal struct {
	ID             uuid.UUID       `json:"id"`
	JobID          uuid.UUID       `json:"job_id"`
	FreelancerID   uuid.UUID       `json:"freelancer_id"`
	BidAmountCents int64           `json:"bid_amount_cents"`
	DeliveryDays   int             `json:"delivery_days"`
	CoverLetter    string          `json:"cover_letter"`
	Message        string          `json:"message,omitempty"`
	Attachments    json.RawMessage `json:"attachments,omitempty"`
	Status         string          `json:"status"`
	ViewedAt       *time.Time      `json:"viewed_at,omitempty"`
	WithdrawReason *string         `json:"withdraw_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProposalRef is the minimal (proposal, freelancer) pair returned by the
// bulk sibling-exclusion update, enough to fan out notifications.
type ProposalRef struct {
	ID           uuid.UUID
	FreelancerID uuid.UUID
}

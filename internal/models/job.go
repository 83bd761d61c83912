package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusOpen       = "open"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

const (
	BudgetTypeFixed  = "fixed"
	BudgetTypeHourly = "hourly"
)

type Job struct {
	ID             uuid.UUID `json:"id"`
	ClientID       uuid.UUID `json:"client_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	BudgetCents    int64     `json:"budget_cents"`
	BudgetType     string    `json:"budget_type"`
	Status         string    `json:"status"`
	ProposalsCount int       `json:"proposals_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

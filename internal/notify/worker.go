package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/worklane/backend/internal/models"
)

// Event kinds recorded for marketplace participants.
const (
	EventProposalHired    = "proposal.hired"
	EventProposalExcluded = "proposal.excluded"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventPaymentRefunded  = "payment.refunded"
)

// Args is the river job payload for a single notification delivery.
type Args struct {
	UserID  uuid.UUID       `json:"user_id"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (Args) Kind() string { return "notification" }

// NotificationRepo is the persistence contract the worker needs.
type NotificationRepo interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Worker persists notification rows for events enqueued by the hiring
// and escrow services. Hire-time events are inserted transactionally
// with the hire itself, so a committed hire always fans out.
type Worker struct {
	river.WorkerDefaults[Args]
	repo NotificationRepo
	log  *slog.Logger
}

func NewWorker(repo NotificationRepo, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{repo: repo, log: log}
}

func (w *Worker) Work(ctx context.Context, job *river.Job[Args]) error {
	args := job.Args
	n := &models.Notification{
		ID:      uuid.New(),
		UserID:  args.UserID,
		Kind:    args.Event,
		Payload: args.Payload,
	}
	if err := w.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("persist notification %s for %s: %w", args.Event, args.UserID, err)
	}
	w.log.Info("notification recorded", "user_id", args.UserID, "event", args.Event)
	return nil
}

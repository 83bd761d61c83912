package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/worklane/backend/internal/apperrors"
	"github.com/worklane/backend/internal/models"
	"github.com/worklane/backend/internal/notify"
)

// The platform fee is a fixed 10% of the payment amount, computed once
// at creation.
const platformFeePercent = 10

// EscrowPaymentRepo is the payment persistence contract. The Mark*
// methods are conditional status transitions that return false when the
// record was not in the required state.
type EscrowPaymentRepo interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	FinalizeCompleted(ctx context.Context, id uuid.UUID, transactionID string, processedAt time.Time) error
	FinalizeFailed(ctx context.Context, id uuid.UUID, reason string, processedAt time.Time) error
	MarkRefunded(ctx context.Context, id uuid.UUID) (bool, error)
	ListByPayer(ctx context.Context, payerID uuid.UUID) ([]*models.Payment, error)
	ListByPayee(ctx context.Context, payeeID uuid.UUID) ([]*models.Payment, error)
}

// EscrowContractRepo resolves the contract a payment is held against.
type EscrowContractRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
}

// EnqueueNotifyFunc enqueues a notification delivery. Settlement events
// are best-effort: a failed enqueue is logged, never surfaced.
type EnqueueNotifyFunc func(ctx context.Context, args notify.Args) error

// EscrowService owns payment state against contracts: hold (pending),
// settle through the gateway (completed/failed), and refund.
type EscrowService struct {
	payments       EscrowPaymentRepo
	contracts      EscrowContractRepo
	gateway        PaymentGateway
	gatewayTimeout time.Duration
	enqueueNotify  EnqueueNotifyFunc
	log            *slog.Logger
	now            func() time.Time
}

func NewEscrowService(payments EscrowPaymentRepo, contracts EscrowContractRepo, gateway PaymentGateway, gatewayTimeout time.Duration, enqueueNotify EnqueueNotifyFunc, log *slog.Logger) *EscrowService {
	if log == nil {
		log = slog.Default()
	}
	if gatewayTimeout <= 0 {
		gatewayTimeout = 30 * time.Second
	}
	return &EscrowService{
		payments:       payments,
		contracts:      contracts,
		gateway:        gateway,
		gatewayTimeout: gatewayTimeout,
		enqueueNotify:  enqueueNotify,
		log:            log,
		now:            time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (s *EscrowService) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

type CreatePaymentInput struct {
	ContractID    uuid.UUID
	AmountCents   int64
	PaymentMethod string
	Description   string
}

// CreatePayment persists a pending payment against a contract the
// principal owns as client. The platform fee is derived here and never
// recomputed.
func (s *EscrowService) CreatePayment(ctx context.Context, principal models.Principal, in CreatePaymentInput) (*models.Payment, error) {
	if in.AmountCents <= 0 {
		return nil, apperrors.Validation("amount_cents must be > 0")
	}
	if in.PaymentMethod == "" {
		return nil, apperrors.Validation("payment_method is required")
	}
	contract, err := s.contracts.GetByID(ctx, in.ContractID)
	if err != nil {
		return nil, err
	}
	if contract.ClientID != principal.ID {
		return nil, apperrors.Forbidden("only the contract client can create payments")
	}
	p := &models.Payment{
		ID:               uuid.New(),
		ContractID:       contract.ID,
		PayerID:          contract.ClientID,
		PayeeID:          contract.FreelancerID,
		AmountCents:      in.AmountCents,
		PlatformFeeCents: in.AmountCents * platformFeePercent / 100,
		PaymentMethod:    in.PaymentMethod,
		Description:      in.Description,
		Status:           models.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProcessPayment settles a pending payment through the gateway. The
// pending -> processing transition is persisted before the gateway is
// invoked, so a crash mid-charge leaves an inspectable processing
// record instead of silently losing the attempt. Concurrent calls on
// the same payment result in exactly one gateway invocation.
func (s *EscrowService) ProcessPayment(ctx context.Context, principal models.Principal, paymentID uuid.UUID) (*models.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.PayerID != principal.ID {
		return nil, apperrors.Forbidden("only the payer can process this payment")
	}

	claimed, err := s.payments.MarkProcessing(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		current, err := s.payments.GetByID(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidState("payment is %s, only pending payments can be processed", current.Status)
	}

	chargeCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	transactionID, chargeErr := s.gateway.Charge(chargeCtx, p.AmountCents, p.PaymentMethod)
	processedAt := s.now()
	if chargeErr != nil {
		// No automatic retry: failure is terminal for this record.
		if err := s.payments.FinalizeFailed(ctx, paymentID, chargeErr.Error(), processedAt); err != nil {
			return nil, err
		}
		s.notifyPayment(ctx, p.PayerID, notify.EventPaymentFailed, paymentID)
	} else {
		if err := s.payments.FinalizeCompleted(ctx, paymentID, transactionID, processedAt); err != nil {
			return nil, err
		}
		s.notifyPayment(ctx, p.PayerID, notify.EventPaymentCompleted, paymentID)
		s.notifyPayment(ctx, p.PayeeID, notify.EventPaymentCompleted, paymentID)
	}

	return s.payments.GetByID(ctx, paymentID)
}

// Refund flips a completed payment to refunded. Pure status change:
// settlement with the processor is delegated to the gateway boundary.
func (s *EscrowService) Refund(ctx context.Context, principal models.Principal, paymentID uuid.UUID) (*models.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.PayerID != principal.ID {
		return nil, apperrors.Forbidden("only the original payer can refund this payment")
	}
	ok, err := s.payments.MarkRefunded(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.payments.GetByID(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidState("payment is %s, only completed payments can be refunded", current.Status)
	}
	s.notifyPayment(ctx, p.PayeeID, notify.EventPaymentRefunded, paymentID)
	return s.payments.GetByID(ctx, paymentID)
}

// GetByID returns a payment to its payer, payee, or an admin.
func (s *EscrowService) GetByID(ctx context.Context, principal models.Principal, paymentID uuid.UUID) (*models.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.PayerID != principal.ID && p.PayeeID != principal.ID && !principal.IsAdmin() {
		return nil, apperrors.Forbidden("payment belongs to another user")
	}
	return p, nil
}

// ListMine returns the principal's payments: direction "sent" (as
// payer) or "received" (as payee). Empty direction defaults to sent.
func (s *EscrowService) ListMine(ctx context.Context, principal models.Principal, direction string) ([]*models.Payment, error) {
	switch direction {
	case "sent", "":
		return s.payments.ListByPayer(ctx, principal.ID)
	case "received":
		return s.payments.ListByPayee(ctx, principal.ID)
	default:
		return nil, apperrors.Validation("type must be sent or received")
	}
}

func (s *EscrowService) notifyPayment(ctx context.Context, userID uuid.UUID, event string, paymentID uuid.UUID) {
	if s.enqueueNotify == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"payment_id": paymentID.String()})
	if err := s.enqueueNotify(ctx, notify.Args{UserID: userID, Event: event, Payload: payload}); err != nil {
		s.log.Error("enqueue payment notification", "event", event, "payment_id", paymentID, "error", err)
	}
}

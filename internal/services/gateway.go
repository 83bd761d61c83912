package services

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrGatewayDeclined is the fixed decline reason returned by the mock
// processor.
var ErrGatewayDeclined = errors.New("payment declined by gateway")

// PaymentGateway is the external-processor boundary. The escrow service
// only ever sees this interface; tests substitute deterministic stubs.
type PaymentGateway interface {
	Charge(ctx context.Context, amountCents int64, method string) (transactionID string, err error)
}

// MockGateway simulates a payment processor: it sleeps for a configured
// latency and then succeeds with a configured probability. The sleep is
// context-bounded so a cancelled request never leaves a goroutine
// waiting on a fake network call.
type MockGateway struct {
	latency        time.Duration
	successPercent int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewMockGateway(latency time.Duration, successPercent int) *MockGateway {
	return &MockGateway{
		latency:        latency,
		successPercent: successPercent,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *MockGateway) Charge(ctx context.Context, amountCents int64, method string) (string, error) {
	timer := time.NewTimer(g.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	g.mu.Lock()
	roll := g.rng.Intn(100)
	g.mu.Unlock()
	if roll >= g.successPercent {
		return "", ErrGatewayDeclined
	}
	return "txn_" + uuid.NewString(), nil
}

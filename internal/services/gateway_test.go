package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMockGateway_AlwaysSucceeds(t *testing.T) {
	g := NewMockGateway(0, 100)
	for i := 0; i < 20; i++ {
		txn, err := g.Charge(context.Background(), 1000, "card")
		if err != nil {
			t.Fatalf("Charge: %v", err)
		}
		if !strings.HasPrefix(txn, "txn_") {
			t.Fatalf("transaction id %q missing txn_ prefix", txn)
		}
	}
}

func TestMockGateway_AlwaysDeclines(t *testing.T) {
	g := NewMockGateway(0, 0)
	for i := 0; i < 20; i++ {
		if _, err := g.Charge(context.Background(), 1000, "card"); !errors.Is(err, ErrGatewayDeclined) {
			t.Fatalf("expected ErrGatewayDeclined, got %v", err)
		}
	}
}

func TestMockGateway_ContextCancelled(t *testing.T) {
	g := NewMockGateway(time.Minute, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := g.Charge(ctx, 1000, "card")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// The latency sleep must not run to completion.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Charge blocked for %v despite cancelled context", elapsed)
	}
}

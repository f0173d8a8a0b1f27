// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/loyaltylite/internal/metrics"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("test-consecutive")
	cfg.ConsecutiveFailures = 3
	cfg.Timeout = time.Hour
	b := New[int](cfg)

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		if _, err := b.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open", StateString(b.State()))
	}

	_, err := b.Execute(func() (int, error) { return 1, nil })
	if !IsRejected(err) {
		t.Fatalf("expected rejection while open, got %v", err)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-consecutive")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}
}

func TestBreakerIgnoresCanceledContext(t *testing.T) {
	cfg := DefaultConfig("test-canceled")
	cfg.ConsecutiveFailures = 1
	b := New[string](cfg)

	for i := 0; i < 5; i++ {
		_, _ = b.Execute(func() (string, error) { return "", context.Canceled })
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("canceled calls should not trip the breaker, state = %s", StateString(b.State()))
	}
}

func TestBreakerPassesResult(t *testing.T) {
	b := New[string](DefaultConfig("test-result"))
	got, err := b.Execute(func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Fatalf("Execute = %q, %v", got, err)
	}
	if b.Name() != "test-result" {
		t.Errorf("Name() = %q", b.Name())
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := map[gobreaker.State]string{
		gobreaker.StateClosed:   "closed",
		gobreaker.StateHalfOpen: "half-open",
		gobreaker.StateOpen:     "open",
		gobreaker.State(42):     "unknown",
	}
	for s, want := range tests {
		if got := StateString(s); got != want {
			t.Errorf("StateString(%d) = %q, want %q", s, got, want)
		}
	}
}

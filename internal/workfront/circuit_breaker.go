// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package workfront

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/loyaltylite/internal/breaker"
)

// errServerStatus marks a 5xx answer so the breaker counts it as a failure.
var errServerStatus = errors.New("workfront server error")

// CircuitBreakerClient wraps a SubscriptionAPI with a circuit breaker.
// 5xx answers and transport errors count as failures; 4xx answers do not,
// since they describe the request rather than the API's health.
type CircuitBreakerClient struct {
	api    SubscriptionAPI
	status *breaker.Breaker[int]
	list   *breaker.Breaker[[]Subscription]
}

var _ SubscriptionAPI = (*CircuitBreakerClient)(nil)

// NewCircuitBreakerClient wraps api. Both breakers share the name so a
// failing API trips them under one metric label.
func NewCircuitBreakerClient(api SubscriptionAPI) *CircuitBreakerClient {
	cfg := breaker.DefaultConfig("workfront-subscriptions")
	return &CircuitBreakerClient{
		api:    api,
		status: breaker.New[int](cfg),
		list:   breaker.New[[]Subscription](cfg),
	}
}

// Subscribe calls the wrapped Subscribe through the breaker.
func (c *CircuitBreakerClient) Subscribe(ctx context.Context, req SubscribeRequest) (int, error) {
	return c.statusCall(func() (int, error) { return c.api.Subscribe(ctx, req) })
}

// Unsubscribe calls the wrapped Unsubscribe through the breaker.
func (c *CircuitBreakerClient) Unsubscribe(ctx context.Context, id string) (int, error) {
	return c.statusCall(func() (int, error) { return c.api.Unsubscribe(ctx, id) })
}

// List calls the wrapped List through the breaker.
func (c *CircuitBreakerClient) List(ctx context.Context) ([]Subscription, error) {
	subs, err := c.list.Execute(func() ([]Subscription, error) { return c.api.List(ctx) })
	if err != nil {
		return nil, fmt.Errorf("circuit breaker: %w", err)
	}
	return subs, nil
}

func (c *CircuitBreakerClient) statusCall(fn func() (int, error)) (int, error) {
	status, err := c.status.Execute(func() (int, error) {
		status, err := fn()
		if err == nil && status >= 500 {
			return status, errServerStatus
		}
		return status, err
	})
	if errors.Is(err, errServerStatus) {
		return status, nil
	}
	if err != nil {
		return status, fmt.Errorf("circuit breaker: %w", err)
	}
	return status, nil
}

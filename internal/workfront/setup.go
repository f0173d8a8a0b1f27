// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package workfront

import "github.com/tomtom215/loyaltylite/internal/config"

// Setup is the wiring shared by the server and the subscriptions CLI.
type Setup struct {
	Reconciler *Reconciler
	Desired    *PairSet
	Tokens     *AuthTokens // nil when no auth token is configured
	Callback   string
}

// NewSetup builds the subscription client, reconciler and desired pair set
// from cfg. hasPayloadSchema filters the configured pairs; pass nil to keep
// every known object code.
func NewSetup(cfg *config.WorkfrontConfig, hasPayloadSchema func(objCode string) bool) (*Setup, error) {
	callback := cfg.Callback()

	var tokens *AuthTokens
	authToken := ""
	if cfg.AuthToken != "" || cfg.AuthTokenSecret != "" {
		t, err := NewAuthTokens(cfg.AuthTokenSecret, cfg.AuthToken, callback)
		if err != nil {
			return nil, err
		}
		tok, err := t.Token()
		if err != nil {
			return nil, err
		}
		tokens, authToken = t, tok
	}

	var api SubscriptionAPI = NewClient(cfg.SubscriptionsURL, cfg.APIKey, cfg.RequestTimeout)
	if cfg.CircuitBreaker {
		api = NewCircuitBreakerClient(api)
	}

	return &Setup{
		Reconciler: NewReconciler(api, ReconcilerConfig{
			AuthToken:         authToken,
			MaxConcurrency:    cfg.MaxConcurrency,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}),
		Desired:  ParsePairs(cfg.Pairs, hasPayloadSchema),
		Tokens:   tokens,
		Callback: callback,
	}, nil
}

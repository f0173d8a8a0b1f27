// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package services

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/loyaltylite/internal/logging"
	"github.com/tomtom215/loyaltylite/internal/workfront"
)

// Activator is satisfied by *workfront.Reconciler.
type Activator interface {
	Activate(ctx context.Context, url string, desired *workfront.PairSet) (*workfront.Report, error)
}

// ReconcileService registers the configured subscriptions once at startup.
//
// A list failure is returned so suture retries it with backoff, up to
// maxAttempts. Once Activate has run (even with per-pair failures, which
// are already logged) or the attempts are used up, the service returns
// suture.ErrDoNotRestart and leaves the tree.
type ReconcileService struct {
	activator   Activator
	url         string
	desired     *workfront.PairSet
	maxAttempts int
	attempts    int

	// done receives the final report; nil when no attempt succeeded.
	done chan *workfront.Report
}

// NewReconcileService creates the one-shot activation service.
// maxAttempts <= 0 means 5.
func NewReconcileService(activator Activator, url string, desired *workfront.PairSet, maxAttempts int) *ReconcileService {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &ReconcileService{
		activator:   activator,
		url:         url,
		desired:     desired,
		maxAttempts: maxAttempts,
		done:        make(chan *workfront.Report, 1),
	}
}

// Done receives once, when the service stops for good.
func (s *ReconcileService) Done() <-chan *workfront.Report {
	return s.done
}

// Serve implements suture.Service.
func (s *ReconcileService) Serve(ctx context.Context) error {
	log := logging.WithComponent("reconcile-service")
	s.attempts++

	report, err := s.activator.Activate(ctx, s.url, s.desired)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.attempts >= s.maxAttempts {
			log.Error().Err(err).Int("attempts", s.attempts).
				Msg("Giving up on subscription activation")
			s.done <- nil
			return suture.ErrDoNotRestart
		}
		return fmt.Errorf("activate subscriptions (attempt %d/%d): %w", s.attempts, s.maxAttempts, err)
	}

	log.Info().
		Int("existing", report.Existing).
		Int("skipped", len(report.Skipped)).
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Bool("no_endpoint", report.NoEndpoint).
		Msg("Subscription activation finished")
	s.done <- report
	return suture.ErrDoNotRestart
}

// String implements fmt.Stringer.
func (s *ReconcileService) String() string {
	return "subscription-reconcile"
}

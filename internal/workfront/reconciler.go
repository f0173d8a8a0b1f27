// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package workfront

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tomtom215/loyaltylite/internal/logging"
	"github.com/tomtom215/loyaltylite/internal/metrics"
)

// ReconcilerConfig configures a Reconciler.
type ReconcilerConfig struct {
	// AuthToken is registered with every new subscription.
	AuthToken string

	// MaxConcurrency bounds in-flight API calls (default 8).
	MaxConcurrency int

	// RequestsPerSecond throttles outbound calls (0 disables throttling).
	RequestsPerSecond float64
}

// Outcome is the result of one create or delete call.
type Outcome struct {
	Pair           Pair   `json:"pair"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Status         int    `json:"status,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Report summarizes one reconciliation pass.
type Report struct {
	URL        string    `json:"url"`
	NoEndpoint bool      `json:"no_endpoint,omitempty"`
	Existing   int       `json:"existing"`
	Skipped    []Pair    `json:"skipped,omitempty"`
	Succeeded  []Outcome `json:"succeeded,omitempty"`
	Failed     []Outcome `json:"failed,omitempty"`
}

// Attempted returns how many create or delete calls were issued.
func (r *Report) Attempted() int {
	return len(r.Succeeded) + len(r.Failed)
}

// Reconciler converges the subscriptions registered for a callback URL.
//
// Activate and Deactivate are safe to run repeatedly: activation only creates
// pairs that are missing, and each per-pair call is independent, so one
// failure neither blocks nor rolls back its siblings. Partial failure is
// reported in the Report and logged per pair; it is not returned as an error.
type Reconciler struct {
	api         SubscriptionAPI
	authToken   string
	concurrency int
	limiter     *rate.Limiter
}

// NewReconciler creates a Reconciler over api.
func NewReconciler(api SubscriptionAPI, cfg ReconcilerConfig) *Reconciler {
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), concurrency)
	}
	return &Reconciler{
		api:         api,
		authToken:   cfg.AuthToken,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// Existing returns the subscriptions whose callback URL equals url exactly.
func (r *Reconciler) Existing(ctx context.Context, url string) ([]Subscription, error) {
	all, err := r.api.List(ctx)
	if err != nil {
		metrics.RecordSubscriptionOperation("list", "failure")
		return nil, err
	}
	metrics.RecordSubscriptionOperation("list", "success")

	matching := make([]Subscription, 0, len(all))
	for _, s := range all {
		if s.URL == url {
			matching = append(matching, s)
		}
	}
	return matching, nil
}

// Activate subscribes url to every pair in desired that is not already
// registered for it.
//
// When url is empty nothing is attempted and Report.NoEndpoint is set. When
// the existing subscriptions cannot be listed, no subscription is created and
// the list error is returned: creating blindly would duplicate whatever is
// already registered.
func (r *Reconciler) Activate(ctx context.Context, url string, desired *PairSet) (*Report, error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx).With().Str("component", "reconciler").Str("url", url).Logger()
	report := &Report{URL: url}

	if url == "" {
		report.NoEndpoint = true
		log.Info().Msg("No endpoint found.  No subscriptions attempted.")
		return report, nil
	}

	log.Info().Msgf("Checking for existing subscriptions for %s.", url)
	existing, err := r.Existing(ctx, url)
	if err != nil {
		log.Error().Err(err).Msg("Error while retrieving subscriptions. No subscriptions attempted.")
		return report, fmt.Errorf("list subscriptions for %s: %w", url, err)
	}
	report.Existing = len(existing)

	registered := make(map[Pair]struct{}, len(existing))
	for _, s := range existing {
		registered[s.Pair()] = struct{}{}
	}

	var pending []Pair
	for _, p := range desired.Pairs() {
		if _, ok := registered[p]; ok {
			log.Info().Str("pair", p.String()).
				Msgf("Subscription for %s to Workfront %s events already exists.  Skipping.", url, p)
			report.Skipped = append(report.Skipped, p)
			continue
		}
		pending = append(pending, p)
	}

	log.Info().Int("pending", len(pending)).
		Msgf("Subscribing %s to remaining Workfront events, if any.", url)

	r.fanOut(len(pending), func(i int) Outcome {
		p := pending[i]
		out := Outcome{Pair: p}
		if err := r.limiter.Wait(ctx); err != nil {
			out.Error = err.Error()
			return out
		}
		status, err := r.api.Subscribe(ctx, SubscribeRequest{
			ObjCode:   p.ObjCode,
			EventType: p.EventType,
			URL:       url,
			AuthToken: r.authToken,
		})
		out.Status = status
		switch {
		case err != nil:
			out.Error = err.Error()
			log.Error().Err(err).Str("pair", p.String()).
				Msgf("Failure while subscribing to Workfront %s events.", p)
		case status < 300:
			log.Info().Str("pair", p.String()).Int("status", status).
				Msgf("Successfully subscribed to %s.", p)
		default:
			out.Error = fmt.Sprintf("status %d", status)
			log.Warn().Str("pair", p.String()).Int("status", status).
				Msgf("Subscription for %s was unsuccessful, with status %d.", p, status)
		}
		return out
	}, report)

	metricsFor("subscribe", report)
	return report, nil
}

// Deactivate deletes every subscription registered for url.
func (r *Reconciler) Deactivate(ctx context.Context, url string) (*Report, error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx).With().Str("component", "reconciler").Str("url", url).Logger()
	report := &Report{URL: url}

	if url == "" {
		report.NoEndpoint = true
		log.Info().Msg("No endpoint found.  No subscription removals attempted.")
		return report, nil
	}

	log.Info().Msgf("Retrieving subscription ids for %s.", url)
	existing, err := r.Existing(ctx, url)
	if err != nil {
		log.Error().Err(err).Msg("Error while retrieving subscriptions. No subscription removals attempted.")
		return report, fmt.Errorf("list subscriptions for %s: %w", url, err)
	}
	report.Existing = len(existing)

	ids := make([]string, len(existing))
	for i, s := range existing {
		ids[i] = s.ID
	}
	log.Info().Msgf("Unsubscribing %s from %s.", url, strings.Join(ids, ", "))

	r.fanOut(len(existing), func(i int) Outcome {
		s := existing[i]
		out := Outcome{Pair: s.Pair(), SubscriptionID: s.ID}
		if err := r.limiter.Wait(ctx); err != nil {
			out.Error = err.Error()
			return out
		}
		status, err := r.api.Unsubscribe(ctx, s.ID)
		out.Status = status
		switch {
		case err != nil:
			out.Error = err.Error()
			log.Error().Err(err).Str("subscription_id", s.ID).
				Msgf("Failure while unsubscribing from Workfront subscription %s.", s.ID)
		case status < 300:
			log.Info().Str("subscription_id", s.ID).Int("status", status).
				Msgf("Successfully unsubscribed %s.", s.ID)
		default:
			out.Error = fmt.Sprintf("status %d", status)
			log.Warn().Str("subscription_id", s.ID).Int("status", status).
				Msgf("Subscription removal for %s was unsuccessful, with status %d.", s.ID, status)
		}
		return out
	}, report)

	metricsFor("unsubscribe", report)
	return report, nil
}

// fanOut runs n independent calls with bounded concurrency and collects
// their outcomes into report. Calls never fail the group.
func (r *Reconciler) fanOut(n int, call func(i int) Outcome, report *Report) {
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(r.concurrency)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			out := call(i)

			mu.Lock()
			defer mu.Unlock()
			if out.Error == "" {
				report.Succeeded = append(report.Succeeded, out)
			} else {
				report.Failed = append(report.Failed, out)
			}
			return nil
		})
	}
	_ = g.Wait()

	sortOutcomes(report.Succeeded)
	sortOutcomes(report.Failed)
}

func sortOutcomes(outs []Outcome) {
	sort.Slice(outs, func(i, j int) bool {
		if outs[i].Pair != outs[j].Pair {
			return outs[i].Pair.String() < outs[j].Pair.String()
		}
		return outs[i].SubscriptionID < outs[j].SubscriptionID
	})
}

func metricsFor(operation string, report *Report) {
	for range report.Succeeded {
		metrics.RecordSubscriptionOperation(operation, "success")
	}
	for range report.Failed {
		metrics.RecordSubscriptionOperation(operation, "failure")
	}
}

// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package services

import (
	"context"
	"time"

	"github.com/tomtom215/loyaltylite/internal/logging"
)

// Resource is a connection-like dependency owned by the process: the stream
// publisher or the card store.
type Resource interface {
	Close() error
}

// HealthFunc probes a Resource. nil means healthy.
type HealthFunc func(ctx context.Context) error

// ResourceService ties a Resource's lifetime to the supervisor tree.
//
// While running it optionally probes the resource every interval and logs
// each healthy/unhealthy transition once. It never returns an error for an
// unhealthy probe: the resource reconnects on its own, and restarting the
// service could not rebuild it. On shutdown the resource is closed exactly
// once.
type ResourceService struct {
	name     string
	resource Resource
	health   HealthFunc
	interval time.Duration
	closed   bool
}

// NewResourceService creates a service that closes resource on shutdown.
// health may be nil; interval defaults to 30s.
func NewResourceService(name string, resource Resource, health HealthFunc, interval time.Duration) *ResourceService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ResourceService{
		name:     name,
		resource: resource,
		health:   health,
		interval: interval,
	}
}

// Serve implements suture.Service.
func (s *ResourceService) Serve(ctx context.Context) error {
	log := logging.WithComponent(s.name)

	var tick <-chan time.Time
	if s.health != nil {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	healthy := true
	for {
		select {
		case <-ctx.Done():
			s.close()
			return ctx.Err()
		case <-tick:
			probeCtx, cancel := context.WithTimeout(ctx, s.interval/2)
			err := s.health(probeCtx)
			cancel()
			switch {
			case err != nil && healthy:
				log.Warn().Err(err).Msg("Resource became unhealthy")
			case err == nil && !healthy:
				log.Info().Msg("Resource recovered")
			}
			healthy = err == nil
		}
	}
}

func (s *ResourceService) close() {
	if s.closed {
		return
	}
	s.closed = true
	log := logging.WithComponent(s.name)
	if err := s.resource.Close(); err != nil {
		log.Error().Err(err).Msg("Close failed")
		return
	}
	log.Info().Msg("Closed")
}

// String implements fmt.Stringer.
func (s *ResourceService) String() string {
	return s.name
}

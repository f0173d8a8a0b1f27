// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package api

import (
	"context"
	"time"

	"github.com/tomtom215/loyaltylite/internal/eventprocessor"
	"github.com/tomtom215/loyaltylite/internal/loyalty"
)

// ChangeEventIngester publishes one Workfront delivery.
type ChangeEventIngester interface {
	Ingest(ctx context.Context, raw []byte) (*eventprocessor.PutResult, error)
}

// SMSPipeline answers one inbound SMS.
type SMSPipeline interface {
	Handle(ctx context.Context, body []byte) (*loyalty.Reply, error)
}

// TokenVerifier checks the Authorization header of a delivery.
type TokenVerifier interface {
	Verify(header string) error
}

// HealthChecker reports whether a dependency can serve traffic.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// Handler holds the collaborators of every endpoint.
type Handler struct {
	ingest    ChangeEventIngester
	sms       SMSPipeline
	tokens    TokenVerifier
	readiness map[string]HealthChecker
	startTime time.Time
}

// HandlerOption configures optional collaborators.
type HandlerOption func(*Handler)

// WithSMSPipeline enables the Twilio webhook.
func WithSMSPipeline(p SMSPipeline) HandlerOption {
	return func(h *Handler) { h.sms = p }
}

// WithTokenVerifier rejects Workfront deliveries that do not carry the
// registered auth token.
func WithTokenVerifier(v TokenVerifier) HandlerOption {
	return func(h *Handler) { h.tokens = v }
}

// WithReadinessCheck adds a named dependency to /health/ready.
func WithReadinessCheck(name string, c HealthChecker) HandlerOption {
	return func(h *Handler) { h.readiness[name] = c }
}

// NewHandler creates a Handler.
func NewHandler(ingest ChangeEventIngester, opts ...HandlerOption) *Handler {
	h := &Handler{
		ingest:    ingest,
		readiness: make(map[string]HealthChecker),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

// Package apperror defines the tagged error kinds shared by the webhook
// pipelines. Handlers dispatch on Kind to pick the HTTP status; the cause
// chain stays available through errors.Is / errors.As.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure by who has to act on it.
type Kind int

const (
	// KindClient means the caller sent something we cannot accept.
	// Identity mismatches between old and new state are reported here too.
	KindClient Kind = iota + 1

	// KindIntegration means a downstream collaborator failed.
	KindIntegration

	// KindConfigAnomaly means operator configuration is malformed but the
	// process can continue. Such errors are logged, not returned to callers.
	KindConfigAnomaly
)

// String returns the kind name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindIntegration:
		return "integration"
	case KindConfigAnomaly:
		return "config_anomaly"
	default:
		return "unknown"
	}
}

// Error is a classified failure.
type Error struct {
	Kind Kind

	// Message is the diagnostic text returned to the caller.
	Message string

	// Component names the failing collaborator for integration errors.
	Component string

	// Echo is the offending payload, echoed back in client diagnostics.
	Echo []byte

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Cause != nil && e.Kind != KindClient {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Client creates a client error. echo may be nil.
func Client(message string, echo []byte) *Error {
	return &Error{Kind: KindClient, Message: message, Echo: echo}
}

// Clientf creates a client error with a formatted message.
func Clientf(format string, args ...any) *Error {
	return &Error{Kind: KindClient, Message: fmt.Sprintf(format, args...)}
}

// Integration creates an integration error for component. message is what
// the caller sees; cause is only logged.
func Integration(component, message string, cause error) *Error {
	return &Error{Kind: KindIntegration, Component: component, Message: message, Cause: cause}
}

// ConfigAnomaly creates a configuration anomaly.
func ConfigAnomaly(format string, args ...any) *Error {
	return &Error{Kind: KindConfigAnomaly, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain. Unclassified
// errors are treated as integration failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIntegration
}

// IsClient reports whether err is a client error.
func IsClient(err error) bool {
	return err != nil && KindOf(err) == KindClient
}

// HTTPStatus maps err to the response status code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if KindOf(err) == KindClient {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text safe to send to the caller.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return http.StatusText(http.StatusInternalServerError)
}

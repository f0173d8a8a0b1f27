// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package schema

import (
	"errors"
	"strings"
)

// ErrUnknownSchema is returned when validating against a ref that was never registered.
var ErrUnknownSchema = errors.New("unknown schema")

// Violation is one failed constraint.
type Violation struct {
	// Pointer is the JSON pointer of the offending instance ("" for the root).
	Pointer string

	// Message is the validator's description of the failure.
	Message string
}

// String renders the violation as "pointer: message".
func (v Violation) String() string {
	p := v.Pointer
	if p == "" {
		p = "/"
	}
	return p + ": " + v.Message
}

// ValidationError lists every constraint a payload violated.
type ValidationError struct {
	Ref        Ref
	Violations []Violation
}

// Error joins every violation so callers see all causes at once.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "payload does not match " + e.Ref.String() + ": " + strings.Join(parts, "; ")
}

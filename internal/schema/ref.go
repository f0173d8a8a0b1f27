// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package schema

import (
	"fmt"
	"strings"
)

// DefaultVersion is the version stamped on every schema this service emits.
const DefaultVersion = "1-0-0"

// Ref identifies a self-describing schema as vendor/name/version.
// Name may itself contain slashes (e.g. "workfront/TASK").
type Ref struct {
	Vendor  string
	Name    string
	Version string
}

// NewRef builds a Ref with DefaultVersion.
func NewRef(vendor, name string) Ref {
	return Ref{Vendor: vendor, Name: name, Version: DefaultVersion}
}

// String renders the ref as "vendor/name/version".
func (r Ref) String() string {
	return r.Vendor + "/" + r.Name + "/" + r.Version
}

// IsZero reports whether r is the zero Ref.
func (r Ref) IsZero() bool {
	return r == Ref{}
}

// ParseRef parses "vendor/name.../version". The vendor is the first
// segment, the version the last, everything in between is the name.
func ParseRef(s string) (Ref, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 3 {
		return Ref{}, fmt.Errorf("schema ref %q: want vendor/name/version", s)
	}
	for _, p := range parts {
		if p == "" {
			return Ref{}, fmt.Errorf("schema ref %q: empty segment", s)
		}
	}
	return Ref{
		Vendor:  parts[0],
		Name:    strings.Join(parts[1:len(parts)-1], "/"),
		Version: parts[len(parts)-1],
	}, nil
}

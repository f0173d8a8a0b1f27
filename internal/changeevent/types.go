// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package changeevent

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// EventType is the kind of change Workfront reports.
type EventType string

// Event types carried by a subscription envelope.
const (
	Create EventType = "CREATE"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// Field names promoted out of nested states on update.
const (
	fieldID         = "ID"
	fieldObjCode    = "objCode"
	fieldCategoryID = "categoryID"
	fieldSchema     = "schema"
)

// ObjectState is one validated Workfront object snapshot. It is read-only:
// With and Without return modified copies.
type ObjectState map[string]any

// IsEmpty reports whether the state is absent, null or {}.
func (s ObjectState) IsEmpty() bool {
	return len(s) == 0
}

// ID returns the object's identity field.
func (s ObjectState) ID() string {
	return s.str(fieldID)
}

// ObjCode returns the object code.
func (s ObjectState) ObjCode() string {
	return s.str(fieldObjCode)
}

// CategoryID returns the custom form category, or "" when unset.
func (s ObjectState) CategoryID() string {
	return s.str(fieldCategoryID)
}

func (s ObjectState) str(key string) string {
	switch v := s[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Without returns a copy of s lacking keys.
func (s ObjectState) Without(keys ...string) ObjectState {
	out := make(ObjectState, len(s))
	for k, v := range s {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// With returns a copy of s with key set to value.
func (s ObjectState) With(key string, value any) ObjectState {
	out := make(ObjectState, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[key] = value
	return out
}

// JSON renders the state for diagnostics. An empty state renders as {}.
func (s ObjectState) JSON() []byte {
	if s == nil {
		return []byte("{}")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return []byte("{}")
	}
	return b
}

// EnvelopeV1 is the subscription callback body after envelope validation.
type EnvelopeV1 struct {
	EventType EventType
	OldState  ObjectState
	NewState  ObjectState
}

// UpdatePayload is the data published for an update. ID and objCode are
// promoted to the top level and stripped from both nested states.
type UpdatePayload struct {
	Schema   string      `json:"schema"`
	ID       string      `json:"ID"`
	ObjCode  string      `json:"objCode"`
	OldState ObjectState `json:"oldState"`
	NewState ObjectState `json:"newState"`
}

// CanonicalEnvelope is the unit written to the stream. It is built once per
// change event and never stored locally.
type CanonicalEnvelope struct {
	Schema     string    `json:"schema"`
	TimeOrigin time.Time `json:"timeOrigin"`
	Data       any       `json:"data"`
	Origin     string    `json:"origin"`

	// PartitionKey is the identity of the object the event is about.
	PartitionKey string `json:"-"`

	// DataSchema is the schema id stamped on Data.
	DataSchema string    `json:"-"`
	EventType  EventType `json:"-"`
	ObjCode    string    `json:"-"`
}

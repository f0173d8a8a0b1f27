// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package changeevent

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/loyaltylite/internal/apperror"
	"github.com/tomtom215/loyaltylite/internal/schema"
)

const testVendor = "com.nordstrom"

var fixedTime = time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC)

func newTestNormalizer(t *testing.T, checked []string) *Normalizer {
	t.Helper()
	reg := schema.NewRegistry()
	if err := reg.LoadEmbedded(testVendor); err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	n, err := NewNormalizer(reg, NormalizerConfig{Vendor: testVendor, Source: "workfront", CheckedObjCodes: checked})
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	n.now = func() time.Time { return fixedTime }
	return n
}

func mustClientError(t *testing.T, err error) *apperror.Error {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	appErr, ok := err.(*apperror.Error)
	if !ok {
		t.Fatalf("expected *apperror.Error, got %T: %v", err, err)
	}
	if appErr.Kind != apperror.KindClient {
		t.Fatalf("expected client error, got %s: %v", appErr.Kind, err)
	}
	return appErr
}

func TestNewNormalizerRequiresSchemas(t *testing.T) {
	t.Parallel()

	if _, err := NewNormalizer(schema.NewRegistry(), NormalizerConfig{Vendor: testVendor, Source: "workfront"}); err == nil {
		t.Error("expected error for registry without envelope schemas")
	}
	if _, err := NewNormalizer(nil, NormalizerConfig{Vendor: testVendor, Source: "workfront"}); err == nil {
		t.Error("expected error for nil registry")
	}

	reg := schema.NewRegistry()
	if err := reg.LoadEmbedded(testVendor); err != nil {
		t.Fatal(err)
	}
	if _, err := NewNormalizer(reg, NormalizerConfig{Vendor: "com.acme", Source: "workfront"}); err == nil {
		t.Error("expected error when schemas are registered under another vendor")
	}
}

func TestNormalizeCreate(t *testing.T) {
	t.Parallel()
	n := newTestNormalizer(t, nil)

	raw := []byte(`{"eventType":"CREATE","newState":{"ID":"t1","objCode":"TASK","categoryID":"c1","name":"Stock shelves"}}`)
	env, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if env.Origin != "workfront/TASK/CREATE/c1" {
		t.Errorf("origin = %q", env.Origin)
	}
	if env.Schema != "com.nordstrom/workfront/stream-ingress/1-0-0" {
		t.Errorf("schema = %q", env.Schema)
	}
	if env.PartitionKey != "t1" {
		t.Errorf("partition key = %q", env.PartitionKey)
	}
	if !env.TimeOrigin.Equal(fixedTime.Truncate(time.Millisecond)) {
		t.Errorf("timeOrigin = %v", env.TimeOrigin)
	}

	data, ok := env.Data.(ObjectState)
	if !ok {
		t.Fatalf("data type = %T", env.Data)
	}
	if data["schema"] != "com.nordstrom/workfront/TASK/CREATE/c1/1-0-0" {
		t.Errorf("data.schema = %v", data["schema"])
	}
	if data["name"] != "Stock shelves" || data["ID"] != "t1" {
		t.Errorf("data lost fields: %v", data)
	}
	if env.EventType != Create || env.ObjCode != "TASK" {
		t.Errorf("event type %q obj code %q", env.EventType, env.ObjCode)
	}
}

func TestNormalizeCreateWithoutCategory(t *testing.T) {
	t.Parallel()
	n := newTestNormalizer(t, nil)

	env, err := n.Normalize([]byte(`{"eventType":"CREATE","newState":{"ID":"t1","objCode":"TASK","categoryID":null}}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if env.Origin != "workfront/TASK/CREATE/none" {
		t.Errorf("origin = %q", env.Origin)
	}
	if env.DataSchema != "com.nordstrom/workfront/TASK/CREATE/none/1-0-0" {
		t.Errorf("data schema = %q", env.DataSchema)
	}
}

func TestNormalizeUpdate(t *testing.T) {
	t.Parallel()
	n := newTestNormalizer(t, nil)

	raw := []byte(`{"eventType":"UPDATE",
		"oldState":{"ID":"t1","objCode":"TASK","categoryID":"c1","status":"NEW"},
		"newState":{"ID":"t1","objCode":"TASK","categoryID":"c1","status":"INP"}}`)
	env, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if env.Origin != "workfront/TASK/UPDATE/c1" {
		t.Errorf("origin = %q", env.Origin)
	}

	payload, ok := env.Data.(UpdatePayload)
	if !ok {
		t.Fatalf("data type = %T", env.Data)
	}
	if payload.Schema != "com.nordstrom/workfront/UPDATE-TASK/c1/1-0-0" {
		t.Errorf("schema = %q", payload.Schema)
	}
	if payload.ID != "t1" || payload.ObjCode != "TASK" {
		t.Errorf("promoted fields = %q %q", payload.ID, payload.ObjCode)
	}
	for name, state := range map[string]ObjectState{"old": payload.OldState, "new": payload.NewState} {
		if _, ok := state["ID"]; ok {
			t.Errorf("%s state still has ID", name)
		}
		if _, ok := state["objCode"]; ok {
			t.Errorf("%s state still has objCode", name)
		}
	}
	if payload.OldState["status"] != "NEW" || payload.NewState["status"] != "INP" {
		t.Errorf("states swapped or lost: %v %v", payload.OldState, payload.NewState)
	}
	if env.PartitionKey != "t1" {
		t.Errorf("partition key = %q", env.PartitionKey)
	}
}

func TestNormalizeCreateWithOldStateIsUpdateShaped(t *testing.T) {
	t.Parallel()
	n := newTestNormalizer(t, nil)

	env, err := n.Normalize([]byte(`{"eventType":"CREATE",
		"oldState":{"ID":"t1","objCode":"TASK"},
		"newState":{"ID":"t1","objCode":"TASK","name":"x"}}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if env.Origin != "workfront/TASK/CREATE/none" {
		t.Errorf("origin = %q", env.Origin)
	}
	if _, ok := env.Data.(UpdatePayload); !ok {
		t.Errorf("expected update payload, got %T", env.Data)
	}
}

func TestNormalizeDelete(t *testing.T) {
	t.Parallel()
	n := newTestNormalizer(t, nil)

	env, err := n.Normalize([]byte(`{"eventType":"DELETE","oldState":{"ID":"p9","objCode":"PROJ","categoryID":"c7"},"newState":null}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if env.Origin != "workfront/PROJ/DELETE/c7" {
		t.Errorf("origin = %q", env.Origin)
	}
	data := env.Data.(ObjectState)
	if data["schema"] != "com.nordstrom/workfront/PROJ/DELETE/c7/1-0-0" {
		t.Errorf("data.schema = %v", data["schema"])
	}
	if env.PartitionKey != "p9" {
		t.Errorf("partition key = %q", env.PartitionKey)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	n := newTestNormalizer(t, nil)

	state := ObjectState{"ID": "t1", "objCode": "TASK"}
	if _, err := n.create(state); err != nil {
		t.Fatal(err)
	}
	if _, ok := state["schema"]; ok {
		t.Error("create stamped schema onto the input state")
	}

	old := ObjectState{"ID": "t1", "objCode": "TASK"}
	if _, err := n.update(Update, old, state); err != nil {
		t.Fatal(err)
	}
	if old["ID"] != "t1" || state["objCode"] != "TASK" {
		t.Error("update stripped fields from the input states")
	}
}

func TestNormalizeRejections(t *testing.T) {
	t.Parallel()
	n := newTestNormalizer(t, nil)

	tests := []struct {
		name       string
		raw        string
		wantPrefix string
		wantEcho   string
	}{
		{
			name:       "not json",
			raw:        `{"eventType":`,
			wantPrefix: "Could not validate event as a Workfront subscription event.  Errors: ",
			wantEcho:   `{"eventType":`,
		},
		{
			name:       "unknown event type",
			raw:        `{"eventType":"SHARE","newState":{"ID":"t1","objCode":"TASK"}}`,
			wantPrefix: "Could not validate event as a Workfront subscription event.  Errors: ",
		},
		{
			name:       "delete without oldState key",
			raw:        `{"eventType":"DELETE","newState":{"ID":"t1","objCode":"TASK"}}`,
			wantPrefix: "Could not validate event as a Workfront subscription event.  Errors: ",
		},
		{
			name:       "invalid newState",
			raw:        `{"eventType":"CREATE","newState":{"ID":"t1","objCode":"TASK","percentComplete":150}}`,
			wantPrefix: "Could not validate the newState payload to the schema for TASK.  Errors: ",
			wantEcho:   "percentComplete",
		},
		{
			name:       "invalid oldState",
			raw:        `{"eventType":"UPDATE","oldState":{"ID":"","objCode":"TASK"},"newState":{"ID":"t1","objCode":"TASK"}}`,
			wantPrefix: "Could not validate the oldState payload to the schema for TASK.  Errors: ",
		},
		{
			name:       "identity changed",
			raw:        `{"eventType":"UPDATE","oldState":{"ID":"t1","objCode":"TASK"},"newState":{"ID":"t2","objCode":"TASK"}}`,
			wantPrefix: "Object code or ID has changed for t1, TASK.",
			wantEcho:   `"t2"`,
		},
		{
			name:       "object code changed",
			raw:        `{"eventType":"UPDATE","oldState":{"ID":"t1","objCode":"TASK"},"newState":{"ID":"t1","objCode":"OPTASK"}}`,
			wantPrefix: "Object code or ID has changed for t1, TASK.",
		},
		{
			name:       "update with null newState",
			raw:        `{"eventType":"UPDATE","oldState":{"ID":"t1","objCode":"TASK"},"newState":null}`,
			wantPrefix: "A UPDATE event requires a newState",
		},
		{
			name:       "delete with empty oldState",
			raw:        `{"eventType":"DELETE","oldState":{}}`,
			wantPrefix: "A DELETE event requires an oldState",
		},
		{
			name:       "unchecked object without ID",
			raw:        `{"eventType":"CREATE","newState":{"objCode":"USER"}}`,
			wantPrefix: "The newState has no ID.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := n.Normalize([]byte(tt.raw))
			appErr := mustClientError(t, err)
			if !strings.HasPrefix(appErr.Message, tt.wantPrefix) {
				t.Errorf("message = %q, want prefix %q", appErr.Message, tt.wantPrefix)
			}
			if tt.wantEcho != "" && !strings.Contains(string(appErr.Echo), tt.wantEcho) {
				t.Errorf("echo = %s, want it to contain %s", appErr.Echo, tt.wantEcho)
			}
		})
	}
}

func TestNormalizeUncheckedObjectCodes(t *testing.T) {
	t.Parallel()

	// USER has no registered schema, so any shape passes.
	n := newTestNormalizer(t, nil)
	if _, err := n.Normalize([]byte(`{"eventType":"CREATE","newState":{"ID":"u1","objCode":"USER","anything":[1,2]}}`)); err != nil {
		t.Errorf("unregistered object code rejected: %v", err)
	}

	// TASK has a schema but is outside the checked set.
	n = newTestNormalizer(t, []string{"PROJ"})
	if _, err := n.Normalize([]byte(`{"eventType":"CREATE","newState":{"ID":"t1","objCode":"TASK","percentComplete":150}}`)); err != nil {
		t.Errorf("unchecked object code rejected: %v", err)
	}
}

func TestEncodeMatchesIngressSchema(t *testing.T) {
	t.Parallel()
	n := newTestNormalizer(t, nil)

	env, err := n.Normalize([]byte(`{"eventType":"UPDATE","oldState":{"ID":"t1","objCode":"TASK"},"newState":{"ID":"t1","objCode":"TASK","percentComplete":50}}`))
	if err != nil {
		t.Fatal(err)
	}
	data, err := n.Encode(env)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["timeOrigin"] != "2026-03-14T15:09:26.535Z" {
		t.Errorf("timeOrigin = %v", decoded["timeOrigin"])
	}
	if _, ok := decoded["PartitionKey"]; ok {
		t.Error("partition key leaked into the envelope")
	}
	if len(decoded) != 4 {
		t.Errorf("envelope keys = %v", decoded)
	}
}

func TestEncodeRejectsBrokenEnvelope(t *testing.T) {
	t.Parallel()
	n := newTestNormalizer(t, nil)

	_, err := n.Encode(&CanonicalEnvelope{Schema: n.IngressRef().String(), TimeOrigin: fixedTime, Data: map[string]any{}, Origin: "x"})
	if apperror.KindOf(err) != apperror.KindIntegration {
		t.Errorf("expected integration error, got %v", err)
	}
}

func TestObjectStateHelpers(t *testing.T) {
	t.Parallel()

	var empty ObjectState
	if !empty.IsEmpty() || !(ObjectState{}).IsEmpty() {
		t.Error("nil and {} states should be empty")
	}
	if string(empty.JSON()) != "{}" {
		t.Errorf("empty JSON = %s", empty.JSON())
	}

	s := ObjectState{"ID": json.Number("42"), "objCode": "TASK"}
	if s.ID() != "42" {
		t.Errorf("numeric ID = %q", s.ID())
	}
	if s.CategoryID() != "" {
		t.Errorf("missing category = %q", s.CategoryID())
	}
	w := s.With("x", 1).Without("ID")
	if _, ok := w["ID"]; ok {
		t.Error("Without kept ID")
	}
	if _, ok := s["x"]; ok {
		t.Error("With mutated receiver")
	}
}

func TestNormalizeMissingFieldIsNamed(t *testing.T) {
	t.Parallel()
	n := newTestNormalizer(t, nil)

	tests := map[string]string{
		`{"newState":{"ID":"T-1","objCode":"TASK"}}`: "eventType",
		`{"eventType":"UPDATE","oldState":null}`:      "newState",
		`{"eventType":"DELETE"}`:                      "oldState",
	}
	for raw, field := range tests {
		_, err := n.Normalize([]byte(raw))
		appErr := mustClientError(t, err)
		if !strings.Contains(appErr.Message, field) {
			t.Errorf("Normalize(%s) message %q does not name %s", raw, appErr.Message, field)
		}
	}
}

func TestNormalizeTaskCreateInCategory7(t *testing.T) {
	t.Parallel()
	n := newTestNormalizer(t, nil)

	env, err := n.Normalize([]byte(`{"eventType":"CREATE","oldState":{},"newState":{"ID":"T-1","objCode":"TASK","categoryID":"7"}}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if env.Origin != "workfront/TASK/CREATE/7" {
		t.Errorf("origin = %q", env.Origin)
	}
	if env.PartitionKey != "T-1" {
		t.Errorf("partition key = %q", env.PartitionKey)
	}
}

// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package schema

import (
	"errors"
	"strings"
	"testing"
)

const vendor = "com.nordstrom"

func newLoadedRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	if err := reg.LoadEmbedded(""); err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	return reg
}

func mustDecode(t *testing.T, raw string) any {
	t.Helper()
	v, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode(%s): %v", raw, err)
	}
	return v
}

func TestLoadEmbedded(t *testing.T) {
	t.Parallel()

	reg := newLoadedRegistry(t)
	want := []string{
		"com.nordstrom/loyalty-lite/twilio-incoming-request/1-0-0",
		"com.nordstrom/workfront/OPTASK/1-0-0",
		"com.nordstrom/workfront/PROJ/1-0-0",
		"com.nordstrom/workfront/TASK/1-0-0",
		"com.nordstrom/workfront/stream-ingress/1-0-0",
		"com.nordstrom/workfront/subscription-envelope/1-0-0",
	}
	refs := reg.Refs()
	if len(refs) != len(want) {
		t.Fatalf("got %d refs (%v), want %d", len(refs), refs, len(want))
	}
	for i, ref := range refs {
		if ref.String() != want[i] {
			t.Errorf("ref %d = %s, want %s", i, ref, want[i])
		}
	}
}

func TestLoadEmbeddedVendorOverride(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if err := reg.LoadEmbedded("com.example"); err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	if !reg.Has(NewRef("com.example", ObjectName("TASK"))) {
		t.Error("expected TASK schema under overridden vendor")
	}
	if reg.Has(NewRef(vendor, ObjectName("TASK"))) {
		t.Error("original vendor should not be registered")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	reg := newLoadedRegistry(t)
	task := NewRef(vendor, ObjectName("TASK"))

	tests := []struct {
		name         string
		ref          Ref
		payload      string
		wantPointers []string
	}{
		{
			name:    "valid task",
			ref:     task,
			payload: `{"ID":"abc","objCode":"TASK","name":"Launch","percentComplete":40,"customField":true}`,
		},
		{
			name:         "missing ID and wrong objCode",
			ref:          task,
			payload:      `{"objCode":"OPTASK"}`,
			wantPointers: []string{"", "/objCode"},
		},
		{
			name:         "percent out of range",
			ref:          task,
			payload:      `{"ID":"abc","objCode":"TASK","percentComplete":140}`,
			wantPointers: []string{"/percentComplete"},
		},
		{
			name:         "envelope without eventType",
			ref:          NewRef(vendor, "workfront/subscription-envelope"),
			payload:      `{"newState":{}}`,
			wantPointers: []string{""},
		},
		{
			name:    "delete envelope without newState",
			ref:     NewRef(vendor, "workfront/subscription-envelope"),
			payload: `{"eventType":"DELETE","oldState":{"ID":"1"}}`,
		},
		{
			name:         "update envelope without newState",
			ref:          NewRef(vendor, "workfront/subscription-envelope"),
			payload:      `{"eventType":"UPDATE","oldState":{"ID":"1"}}`,
			wantPointers: []string{""},
		},
		{
			name:    "twilio request",
			ref:     NewRef(vendor, "loyalty-lite/twilio-incoming-request"),
			payload: `{"From":"+15555550123","Body":"card"}`,
		},
		{
			name:         "twilio request with bad phone",
			ref:          NewRef(vendor, "loyalty-lite/twilio-incoming-request"),
			payload:      `{"From":"not-a-phone","Body":"card"}`,
			wantPointers: []string{"/From"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := reg.Validate(tt.ref, mustDecode(t, tt.payload))
			if len(tt.wantPointers) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if len(verr.Violations) != len(tt.wantPointers) {
				t.Fatalf("got violations %v, want pointers %v", verr.Violations, tt.wantPointers)
			}
			for i, p := range tt.wantPointers {
				if verr.Violations[i].Pointer != p {
					t.Errorf("violation %d pointer = %q, want %q", i, verr.Violations[i].Pointer, p)
				}
			}
		})
	}
}

func TestValidateEnumeratesMissingField(t *testing.T) {
	t.Parallel()

	reg := newLoadedRegistry(t)
	err := reg.Validate(NewRef(vendor, "workfront/subscription-envelope"), mustDecode(t, `{}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "eventType") {
		t.Errorf("error should name the missing field: %v", err)
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	t.Parallel()

	reg := newLoadedRegistry(t)
	err := reg.Validate(NewRef(vendor, ObjectName("BOGUS")), map[string]any{})
	if !errors.Is(err, ErrUnknownSchema) {
		t.Fatalf("expected ErrUnknownSchema, got %v", err)
	}
}

func TestRegisterRejectsIncompleteSelf(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if _, err := reg.Register([]byte(`{"type":"object"}`)); err == nil {
		t.Fatal("expected error for document without self block")
	}
	ref, err := reg.Register([]byte(`{"self":{"vendor":"v","name":"n","format":"jsonschema","version":"2-0-0"},"type":"string"}`))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if ref.String() != "v/n/2-0-0" {
		t.Errorf("ref = %s", ref)
	}
	if err := reg.Validate(ref, "ok"); err != nil {
		t.Errorf("string should validate: %v", err)
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Error("expected trailing data error")
	}
	if _, err := Decode([]byte(`{"a":`)); err == nil {
		t.Error("expected syntax error")
	}
	v, err := Decode([]byte(`{"big":12345678901234567890}` + "\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m := v.(map[string]any)
	if got := m["big"]; got == nil || !strings.Contains(toString(got), "12345678901234567890") {
		t.Errorf("large number lost precision: %v", got)
	}
}

func toString(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

func TestParseRef(t *testing.T) {
	t.Parallel()

	ref, err := ParseRef("com.nordstrom/workfront/UPDATE-TASK/cat1/1-0-0")
	if err != nil {
		t.Fatalf("ParseRef: %v", err)
	}
	if ref.Vendor != "com.nordstrom" || ref.Name != "workfront/UPDATE-TASK/cat1" || ref.Version != "1-0-0" {
		t.Errorf("ParseRef = %+v", ref)
	}
	if ref.String() != "com.nordstrom/workfront/UPDATE-TASK/cat1/1-0-0" {
		t.Errorf("round trip = %s", ref)
	}
	for _, bad := range []string{"", "a/b", "a//c"} {
		if _, err := ParseRef(bad); err == nil {
			t.Errorf("ParseRef(%q) should fail", bad)
		}
	}
}

func TestPayloadSchemaCheck(t *testing.T) {
	t.Parallel()

	has := newLoadedRegistry(t).PayloadSchemaCheck(vendor)
	for _, code := range []string{"TASK", "OPTASK", "PROJ"} {
		if !has(code) {
			t.Errorf("expected payload schema for %s", code)
		}
	}
	if has("USER") {
		t.Error("USER has no payload schema")
	}
	if newLoadedRegistry(t).PayloadSchemaCheck("other.vendor")("TASK") {
		t.Error("vendor must be part of the lookup")
	}
}

// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

// Package schema validates JSON payloads against self-describing JSON
// schemas keyed by vendor/name/version.
//
// A Registry is built once at start-up and is read-only afterwards; it is
// passed explicitly to the components that need it.
//
//	reg := schema.NewRegistry()
//	if err := reg.LoadEmbedded(cfg.Workfront.SchemaVendor); err != nil { ... }
//	err := reg.Validate(schema.NewRef(vendor, "workfront/TASK"), payload)
package schema

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var embedded embed.FS

// resourcePrefix is the base URL compiled schemas are registered under.
// Nothing is ever fetched from it.
const resourcePrefix = "https://schemas.loyaltylite.invalid/"

// document is the part of a schema file read before compilation.
type document struct {
	Self struct {
		Vendor  string `json:"vendor"`
		Name    string `json:"name"`
		Format  string `json:"format"`
		Version string `json:"version"`
	} `json:"self"`
}

// Registry holds compiled schemas.
type Registry struct {
	mu      sync.RWMutex
	schemas map[Ref]*jsonschema.Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[Ref]*jsonschema.Schema)}
}

// LoadEmbedded registers every schema shipped with the binary. A non-empty
// vendor replaces the vendor in each document's self block.
func (r *Registry) LoadEmbedded(vendor string) error {
	return fs.WalkDir(embedded, "schemas", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}
		raw, err := embedded.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		if _, err := r.register(raw, vendor); err != nil {
			return fmt.Errorf("register %s: %w", p, err)
		}
		return nil
	})
}

// Register compiles doc and stores it under the ref in its self block.
func (r *Registry) Register(doc []byte) (Ref, error) {
	return r.register(doc, "")
}

func (r *Registry) register(doc []byte, vendorOverride string) (Ref, error) {
	var d document
	if err := json.Unmarshal(doc, &d); err != nil {
		return Ref{}, fmt.Errorf("decode schema document: %w", err)
	}
	ref := Ref{Vendor: d.Self.Vendor, Name: d.Self.Name, Version: d.Self.Version}
	if vendorOverride != "" {
		ref.Vendor = vendorOverride
	}
	if ref.Vendor == "" || ref.Name == "" || ref.Version == "" {
		return Ref{}, errors.New("schema document has no complete self block")
	}

	url := resourcePrefix + ref.String()
	c := jsonschema.NewCompiler()
	c.AssertFormat = true
	if err := c.AddResource(url, bytes.NewReader(doc)); err != nil {
		return Ref{}, fmt.Errorf("add resource %s: %w", ref, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return Ref{}, fmt.Errorf("compile %s: %w", ref, err)
	}

	r.mu.Lock()
	r.schemas[ref] = compiled
	r.mu.Unlock()
	return ref, nil
}

// Has reports whether ref is registered.
func (r *Registry) Has(ref Ref) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[ref]
	return ok
}

// Refs returns every registered ref, sorted by string form.
func (r *Registry) Refs() []Ref {
	r.mu.RLock()
	refs := make([]Ref, 0, len(r.schemas))
	for ref := range r.schemas {
		refs = append(refs, ref)
	}
	r.mu.RUnlock()
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })
	return refs
}

// Validate checks payload, a value produced by Decode, against ref. It
// returns nil, ErrUnknownSchema (wrapped), or a *ValidationError listing
// every violated constraint.
func (r *Registry) Validate(ref Ref, payload any) error {
	r.mu.RLock()
	compiled, ok := r.schemas[ref]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSchema, ref)
	}

	err := compiled.Validate(payload)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("validate %s: %w", ref, err)
	}
	return &ValidationError{Ref: ref, Violations: flatten(verr)}
}

// ValidateJSON decodes raw and validates it against ref.
func (r *Registry) ValidateJSON(ref Ref, raw []byte) (any, error) {
	payload, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return payload, r.Validate(ref, payload)
}

// flatten collects the leaf causes of a validation error tree.
func flatten(verr *jsonschema.ValidationError) []Violation {
	var out []Violation
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, Violation{Pointer: e.InstanceLocation, Message: e.Message})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pointer != out[j].Pointer {
			return out[i].Pointer < out[j].Pointer
		}
		return out[i].Message < out[j].Message
	})
	return out
}

// Decode parses a single JSON value keeping numbers as json.Number, the
// representation the validator expects.
func Decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode json: trailing data after value")
	}
	return v, nil
}

// ObjectName returns the schema name for a Workfront object payload,
// e.g. ObjectName("TASK") == "workfront/TASK".
func ObjectName(objCode string) string {
	return "workfront/" + objCode
}

// PayloadSchemaCheck returns a predicate reporting whether a payload schema
// for an object code is registered under vendor.
func (r *Registry) PayloadSchemaCheck(vendor string) func(objCode string) bool {
	return func(objCode string) bool {
		return r.Has(NewRef(vendor, ObjectName(objCode)))
	}
}

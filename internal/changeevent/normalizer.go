// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package changeevent

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/loyaltylite/internal/apperror"
	"github.com/tomtom215/loyaltylite/internal/schema"
)

// Schema names the normalizer depends on.
const (
	EnvelopeSchemaName = "workfront/subscription-envelope"
	IngressSchemaName  = "workfront/stream-ingress"
)

// noCategory stands in for a missing categoryID in origins and schema ids.
const noCategory = "none"

// NormalizerConfig holds the constants folded into origins and schema ids.
type NormalizerConfig struct {
	Vendor string
	Source string

	// CheckedObjCodes limits payload validation to these object codes.
	// Nil means every object code with a registered payload schema.
	CheckedObjCodes []string
}

// Normalizer turns a raw subscription delivery into a canonical envelope.
// It is stateless apart from its clock and safe for concurrent use.
type Normalizer struct {
	registry *schema.Registry
	vendor   string
	source   string
	checked  map[string]struct{}
	envelope schema.Ref
	ingress  schema.Ref
	now      func() time.Time
}

// NewNormalizer validates that the envelope and ingress schemas are
// registered under cfg.Vendor.
func NewNormalizer(registry *schema.Registry, cfg NormalizerConfig) (*Normalizer, error) {
	if registry == nil {
		return nil, errors.New("changeevent: schema registry is required")
	}
	if cfg.Vendor == "" || cfg.Source == "" {
		return nil, errors.New("changeevent: vendor and source are required")
	}
	n := &Normalizer{
		registry: registry,
		vendor:   cfg.Vendor,
		source:   cfg.Source,
		envelope: schema.NewRef(cfg.Vendor, EnvelopeSchemaName),
		ingress:  schema.NewRef(cfg.Vendor, IngressSchemaName),
		now:      time.Now,
	}
	for _, ref := range []schema.Ref{n.envelope, n.ingress} {
		if !registry.Has(ref) {
			return nil, fmt.Errorf("changeevent: %w: %s", schema.ErrUnknownSchema, ref)
		}
	}
	if cfg.CheckedObjCodes != nil {
		n.checked = make(map[string]struct{}, len(cfg.CheckedObjCodes))
		for _, code := range cfg.CheckedObjCodes {
			n.checked[code] = struct{}{}
		}
	}
	return n, nil
}

// IngressRef is the schema the canonical envelope is stamped with.
func (n *Normalizer) IngressRef() schema.Ref {
	return n.ingress
}

// Normalize validates raw and builds the canonical envelope. Every
// rejection is an apperror client error carrying the offending payload.
func (n *Normalizer) Normalize(raw []byte) (*CanonicalEnvelope, error) {
	env, err := n.decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}

	if env.EventType != Delete {
		if env.NewState.IsEmpty() {
			return nil, apperror.Client(
				fmt.Sprintf("A %s event requires a newState", env.EventType), raw)
		}
		if err := n.validateState("newState", env.NewState); err != nil {
			return nil, err
		}
	}

	if env.EventType == Create && env.OldState.IsEmpty() {
		return n.create(env.NewState)
	}

	if env.OldState.IsEmpty() {
		return nil, apperror.Client(
			fmt.Sprintf("A %s event requires an oldState", env.EventType), raw)
	}
	if err := n.validateState("oldState", env.OldState); err != nil {
		return nil, err
	}

	if env.EventType != Delete &&
		(env.OldState.ObjCode() != env.NewState.ObjCode() || env.OldState.ID() != env.NewState.ID()) {
		return nil, apperror.Client(
			fmt.Sprintf("Object code or ID has changed for %s, %s.", env.OldState.ID(), env.OldState.ObjCode()),
			env.NewState.JSON())
	}

	if env.EventType == Delete {
		return n.delete(env.OldState)
	}
	return n.update(env.EventType, env.OldState, env.NewState)
}

func (n *Normalizer) decodeEnvelope(raw []byte) (EnvelopeV1, error) {
	payload, err := schema.Decode(raw)
	if err != nil {
		return EnvelopeV1{}, apperror.Client(
			"Could not validate event as a Workfront subscription event.  Errors: "+err.Error(), raw)
	}
	if err := n.registry.Validate(n.envelope, payload); err != nil {
		return EnvelopeV1{}, apperror.Client(
			"Could not validate event as a Workfront subscription event.  Errors: "+violations(err), raw)
	}

	obj, _ := payload.(map[string]any)
	eventType, _ := obj["eventType"].(string)
	oldState, _ := obj["oldState"].(map[string]any)
	newState, _ := obj["newState"].(map[string]any)
	return EnvelopeV1{
		EventType: EventType(eventType),
		OldState:  ObjectState(oldState),
		NewState:  ObjectState(newState),
	}, nil
}

// validateState checks state against its payload schema when its object
// code is in the checked set. Unchecked codes pass through.
func (n *Normalizer) validateState(field string, state ObjectState) error {
	code := state.ObjCode()
	if !n.checks(code) {
		return nil
	}
	if err := n.registry.Validate(schema.NewRef(n.vendor, schema.ObjectName(code)), map[string]any(state)); err != nil {
		return apperror.Client(
			fmt.Sprintf("Could not validate the %s payload to the schema for %s.  Errors: %s", field, code, violations(err)),
			state.JSON())
	}
	return nil
}

func (n *Normalizer) checks(objCode string) bool {
	if objCode == "" {
		return false
	}
	if n.checked != nil {
		if _, ok := n.checked[objCode]; !ok {
			return false
		}
	}
	return n.registry.Has(schema.NewRef(n.vendor, schema.ObjectName(objCode)))
}

func (n *Normalizer) create(state ObjectState) (*CanonicalEnvelope, error) {
	if state.ID() == "" {
		return nil, apperror.Client("The newState has no ID.", state.JSON())
	}
	origin := n.origin(state.ObjCode(), Create, state.CategoryID())
	dataSchema := n.vendor + "/" + origin + "/" + schema.DefaultVersion
	return n.seal(Create, state, state.With(fieldSchema, dataSchema), dataSchema, origin), nil
}

func (n *Normalizer) delete(state ObjectState) (*CanonicalEnvelope, error) {
	if state.ID() == "" {
		return nil, apperror.Client("The oldState has no ID.", state.JSON())
	}
	origin := n.origin(state.ObjCode(), Delete, state.CategoryID())
	dataSchema := n.vendor + "/" + origin + "/" + schema.DefaultVersion
	return n.seal(Delete, state, state.With(fieldSchema, dataSchema), dataSchema, origin), nil
}

// update covers UPDATE and a CREATE that arrives with a prior state.
func (n *Normalizer) update(eventType EventType, oldState, newState ObjectState) (*CanonicalEnvelope, error) {
	if oldState.ID() == "" {
		return nil, apperror.Client("The oldState has no ID.", oldState.JSON())
	}
	cat := category(oldState.CategoryID())
	origin := n.origin(oldState.ObjCode(), eventType, oldState.CategoryID())
	dataSchema := strings.Join([]string{n.vendor, n.source, "UPDATE-" + oldState.ObjCode(), cat, schema.DefaultVersion}, "/")
	data := UpdatePayload{
		Schema:   dataSchema,
		ID:       oldState.ID(),
		ObjCode:  oldState.ObjCode(),
		OldState: oldState.Without(fieldID, fieldObjCode),
		NewState: newState.Without(fieldID, fieldObjCode),
	}
	return n.seal(eventType, oldState, data, dataSchema, origin), nil
}

func (n *Normalizer) origin(objCode string, eventType EventType, categoryID string) string {
	return strings.Join([]string{n.source, objCode, string(eventType), category(categoryID)}, "/")
}

func (n *Normalizer) seal(eventType EventType, keyState ObjectState, data any, dataSchema, origin string) *CanonicalEnvelope {
	return &CanonicalEnvelope{
		Schema:       n.ingress.String(),
		TimeOrigin:   n.now().UTC().Truncate(time.Millisecond),
		Data:         data,
		Origin:       origin,
		PartitionKey: keyState.ID(),
		DataSchema:   dataSchema,
		EventType:    eventType,
		ObjCode:      keyState.ObjCode(),
	}
}

// Encode serializes env and checks it against the ingress schema. A
// failure here is ours, not the caller's, so it is an integration error.
func (n *Normalizer) Encode(env *CanonicalEnvelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, apperror.Integration("normalizer", "could not serialize canonical envelope", err)
	}
	if _, err := n.registry.ValidateJSON(n.ingress, data); err != nil {
		return nil, apperror.Integration("normalizer",
			fmt.Sprintf("canonical envelope for '%s' does not match %s", env.DataSchema, n.ingress), err)
	}
	return data, nil
}

func category(categoryID string) string {
	if categoryID == "" {
		return noCategory
	}
	return categoryID
}

// violations renders every failed constraint of a validation error.
func violations(err error) string {
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	parts := make([]string, len(verr.Violations))
	for i, v := range verr.Violations {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

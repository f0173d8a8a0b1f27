// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package workfront

import (
	"sort"
	"strings"

	"github.com/tomtom215/loyaltylite/internal/apperror"
	"github.com/tomtom215/loyaltylite/internal/logging"
)

// Event types accepted by the subscription API that the ingress endpoint can
// also ingest.
const (
	EventCreate = "CREATE"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// KnownObjCodes are the object codes the event subscription API supports.
var KnownObjCodes = []string{
	"ASSGN", "CMPY", "DOCU", "EXPNS", "HOUR", "NOTE", "OPTASK", "PORT",
	"PRGM", "PROJ", "RPRT", "TASK", "TEAMOB", "TMPL", "USER",
}

// KnownEventTypes are the event types a pair may name.
var KnownEventTypes = []string{EventCreate, EventUpdate, EventDelete}

var (
	knownObjCodeSet   = toSet(KnownObjCodes)
	knownEventTypeSet = toSet(KnownEventTypes)
)

// IsKnownObjCode reports whether code is a supported object code.
func IsKnownObjCode(code string) bool {
	_, ok := knownObjCodeSet[code]
	return ok
}

// IsKnownEventType reports whether eventType is supported.
func IsKnownEventType(eventType string) bool {
	_, ok := knownEventTypeSet[eventType]
	return ok
}

// Pair is one subscribable change notification.
type Pair struct {
	ObjCode   string `json:"objCode"`
	EventType string `json:"eventType"`
}

// String renders the pair in configuration form, e.g. "TASK-CREATE".
func (p Pair) String() string {
	return p.ObjCode + "-" + p.EventType
}

// PairSet is the deduplicated desired subscription set. It is immutable once
// built and safe for concurrent reads.
type PairSet struct {
	pairs      []Pair
	index      map[Pair]struct{}
	objCodes   []string
	eventTypes []string
}

// ParsePairs parses a configuration string like "TASK-CREATE|PROJ-UPDATE".
// Pairs are separated by '|' (',' is accepted too) and each pair is
// "OBJCODE-EVENTTYPE". A pair is kept only when both parts are non-empty and
// known and hasPayloadSchema reports a schema for the object code. Anything
// else is logged as a configuration anomaly and dropped; an empty result is
// valid. hasPayloadSchema may be nil, in which case every known code passes.
func ParsePairs(config string, hasPayloadSchema func(objCode string) bool) *PairSet {
	set := &PairSet{index: make(map[Pair]struct{})}

	entries := strings.FieldsFunc(config, func(r rune) bool { return r == '|' || r == ',' })
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		pair, reason := parsePair(entry, hasPayloadSchema)
		if reason != "" {
			logging.Warn().
				Str("entry", logging.SanitizeValue(entry)).
				Str("kind", apperror.KindConfigAnomaly.String()).
				Err(apperror.ConfigAnomaly("subscription pair %q dropped: %s", entry, reason)).
				Msg("Ignoring subscription pair")
			continue
		}
		set.add(pair)
	}

	set.objCodes = set.distinct(func(p Pair) string { return p.ObjCode })
	set.eventTypes = set.distinct(func(p Pair) string { return p.EventType })
	return set
}

// NewPairSet builds a set from already validated pairs. Duplicates collapse.
func NewPairSet(pairs ...Pair) *PairSet {
	set := &PairSet{index: make(map[Pair]struct{})}
	for _, p := range pairs {
		set.add(p)
	}
	set.objCodes = set.distinct(func(p Pair) string { return p.ObjCode })
	set.eventTypes = set.distinct(func(p Pair) string { return p.EventType })
	return set
}

func parsePair(entry string, hasPayloadSchema func(string) bool) (Pair, string) {
	parts := strings.Split(entry, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, "expected OBJCODE-EVENTTYPE"
	}
	p := Pair{
		ObjCode:   strings.TrimSpace(parts[0]),
		EventType: strings.TrimSpace(parts[1]),
	}
	switch {
	case !IsKnownObjCode(p.ObjCode):
		return Pair{}, "unknown object code " + p.ObjCode
	case hasPayloadSchema != nil && !hasPayloadSchema(p.ObjCode):
		return Pair{}, "no payload schema registered for " + p.ObjCode
	case !IsKnownEventType(p.EventType):
		return Pair{}, "unknown event type " + p.EventType
	}
	return p, ""
}

func (s *PairSet) add(p Pair) {
	if _, dup := s.index[p]; dup {
		return
	}
	s.index[p] = struct{}{}
	s.pairs = append(s.pairs, p)
}

func (s *PairSet) distinct(field func(Pair) string) []string {
	seen := make(map[string]struct{}, len(s.pairs))
	out := make([]string, 0, len(s.pairs))
	for _, p := range s.pairs {
		v := field(p)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Pairs returns the pairs in first-seen order. The slice is a copy.
func (s *PairSet) Pairs() []Pair {
	if s == nil {
		return nil
	}
	out := make([]Pair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// Contains reports whether p is in the set.
func (s *PairSet) Contains(p Pair) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[p]
	return ok
}

// ObjCodes returns the distinct object codes referenced, sorted.
func (s *PairSet) ObjCodes() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.objCodes...)
}

// EventTypes returns the distinct event types referenced, sorted.
func (s *PairSet) EventTypes() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.eventTypes...)
}

// Len returns the number of pairs.
func (s *PairSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pairs)
}

// String renders the set back into configuration form.
func (s *PairSet) String() string {
	if s == nil {
		return ""
	}
	parts := make([]string, len(s.pairs))
	for i, p := range s.pairs {
		parts[i] = p.String()
	}
	return strings.Join(parts, "|")
}

func toSet(values []string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

package model

import (
	"regexp"
	"strings"
)

// Guard patterns for values that are template scaffolding rather than real
// content. An ALL-CAPS token may carry leftover wrapping brackets; field-id
// tokens match the ids this engine assigns plus the legacy placeholder_N
// shape seen in older aggregates.
var (
	allCapsToken  = regexp.MustCompile(`^\[?[A-Z_\s]+\]?$`)
	fieldIDToken  = regexp.MustCompile(`^(?:field|placeholder)_\d+$`)
	underscoreRun = regexp.MustCompile(`_{3,}`)
)

var scaffoldPrefixes = []string{"TODO", "TBD", "XXX", "FIXME", "CHANGEME", "PLACEHOLDER"}

// LooksLikePlaceholder reports whether a candidate value still looks like an
// unfilled template token: empty, bracket/brace content, an ALL-CAPS token, a
// field-id-shaped token, a leading scaffold marker, or an underscore run.
// Every write into the facts overlay passes through this guard.
func LooksLikePlaceholder(v string) bool {
	s := strings.TrimSpace(v)
	if s == "" {
		return true
	}
	if strings.ContainsAny(s, "[]{}") {
		return true
	}
	if allCapsToken.MatchString(s) {
		return true
	}
	if fieldIDToken.MatchString(s) {
		return true
	}
	if underscoreRun.MatchString(s) {
		return true
	}
	upper := strings.ToUpper(s)
	for _, p := range scaffoldPrefixes {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

// SetFact records a confirmed value under both overlay indexes. It returns
// false without touching either index when the value trips the placeholder
// guard.
func (r *Reference) SetFact(f *Field, value string) bool {
	if LooksLikePlaceholder(value) {
		return false
	}
	if r.FactsOverlay == nil {
		r.FactsOverlay = make(map[string]string)
	}
	if r.FactsOverlayByName == nil {
		r.FactsOverlayByName = make(map[string]string)
	}
	r.FactsOverlay[f.ID] = value
	if f.Name != "" {
		r.FactsOverlayByName[f.Name] = value
	}
	return true
}

// RemoveFact drops the by-id overlay entry unconditionally. The by-name entry
// is removed only when no other field with the same name remains filled or
// auto-filled, so a surviving sibling keeps the shared name resolvable.
func (r *Reference) RemoveFact(f *Field) {
	delete(r.FactsOverlay, f.ID)
	if f.Name == "" {
		return
	}
	for i := range r.Fields {
		s := &r.Fields[i]
		if s.ID == f.ID || s.Name != f.Name {
			continue
		}
		if s.Status == StatusFilled || s.Status == StatusAutoFilled {
			return
		}
	}
	delete(r.FactsOverlayByName, f.Name)
}

// Package patterns provides the attack signature registry for the challenge
// engine. All regex patterns are compiled once at package init and shared
// across the progression engine and any scanners built on top of it.
//
// Design principles:
// - COMPILE ONCE: All patterns compiled at init, not per-message
// - DRY: Single source of truth for all attack signatures
// - ORDERED: Declaration order is the tie-break order for reporting matches
// - DETERMINISTIC: Identical input text always yields the identical match set
package patterns

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Signature holds a compiled matcher with metadata. One signature represents
// one class of manipulation attempt (e.g. instruction override, roleplay).
type Signature struct {
	Name        string         // Stable identifier, unique within the registry
	Regex       *regexp.Regexp // Compiled alternation (never nil after init)
	Description string         // What this signature detects
}

// Registry holds all compiled signatures in declaration order.
type Registry struct {
	ordered []*Signature
	byName  map[string]*Signature
}

// global singleton - initialized once at package load
var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global signature registry (singleton).
// Thread-safe and guaranteed to be initialized.
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

// register adds a signature to the registry (internal use only)
func (r *Registry) register(name string, pattern string, description string) {
	s := &Signature{
		Name:        name,
		Regex:       regexp.MustCompile(pattern),
		Description: description,
	}
	r.ordered = append(r.ordered, s)
	r.byName[name] = s
}

// Normalize prepares raw message text for matching: NFKC fold to collapse
// Unicode lookalike forms, lower-case, and trim surrounding whitespace.
// Classification always runs over normalized text so "IGNORE previous
// instructions" and full-width variants match the same signatures.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(text)))
}

// Classify returns the names of all signatures matching the text, in
// declaration order. Every signature is evaluated independently; a message
// may match zero, one, or many. No side effects.
func (r *Registry) Classify(text string) []string {
	normalized := Normalize(text)
	var matched []string
	for _, s := range r.ordered {
		if s.Regex.MatchString(normalized) {
			matched = append(matched, s.Name)
		}
	}
	return matched
}

// ClassifyWithin is Classify restricted to the given signature names (a
// level's active detection set). Returns the first match in registry
// declaration order, or nil if none match.
func (r *Registry) ClassifyWithin(text string, names []string) *Signature {
	active := make(map[string]bool, len(names))
	for _, n := range names {
		active[n] = true
	}
	normalized := Normalize(text)
	for _, s := range r.ordered {
		if active[s.Name] && s.Regex.MatchString(normalized) {
			return s
		}
	}
	return nil
}

// Lookup returns the signature with the given name, or nil.
func (r *Registry) Lookup(name string) *Signature {
	return r.byName[name]
}

// Names returns all signature names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, s := range r.ordered {
		names = append(names, s.Name)
	}
	return names
}

// TotalSignatures returns the count of registered signatures.
func (r *Registry) TotalSignatures() int {
	return len(r.ordered)
}

// Package alias resolves free-text location names against the curated
// location alias table. Resolution is pure and the built resolver is
// read-only, so it is safely shared across all parallel workers.
package alias

import (
	"strings"

	"trip-delivery-correlation/internal/models"
)

// ResolveMethod tags how a name resolved, for explainability.
type ResolveMethod string

const (
	MethodCanonical ResolveMethod = "canonical"
	MethodAlias     ResolveMethod = "alias"
	MethodSubstring ResolveMethod = "substring"
	MethodNone      ResolveMethod = "none"
)

// Resolver indexes the alias table for lookup. It does not do fuzzy-distance
// matching; when no alias resolves, that is the text matcher's problem.
type Resolver struct {
	entries   []models.LocationAlias
	canonical map[string]*models.LocationAlias // normalized canonical -> entry
	aliases   map[string]*models.LocationAlias // normalized alias -> entry
}

// NewResolver builds the lookup indexes. Alias lists are best-effort curated
// and may overlap between entries; first entry wins on collision.
func NewResolver(entries []models.LocationAlias) *Resolver {
	r := &Resolver{
		entries:   entries,
		canonical: make(map[string]*models.LocationAlias, len(entries)),
		aliases:   make(map[string]*models.LocationAlias),
	}
	for i := range r.entries {
		e := &r.entries[i]
		key := Normalize(e.CanonicalName)
		if key == "" {
			continue
		}
		if _, exists := r.canonical[key]; !exists {
			r.canonical[key] = e
		}
		for _, a := range e.Aliases {
			ak := Normalize(a)
			if ak == "" {
				continue
			}
			if _, exists := r.aliases[ak]; !exists {
				r.aliases[ak] = e
			}
		}
	}
	return r
}

// Len returns the number of indexed entries.
func (r *Resolver) Len() int { return len(r.entries) }

// Resolve returns the best-matching entry for a free-text location name:
// exact case-normalized canonical match, then exact alias match, then
// substring containment in either direction, then no match.
func (r *Resolver) Resolve(name string) (*models.LocationAlias, ResolveMethod) {
	key := Normalize(name)
	if key == "" {
		return nil, MethodNone
	}

	if e, ok := r.canonical[key]; ok {
		return e, MethodCanonical
	}
	if e, ok := r.aliases[key]; ok {
		return e, MethodAlias
	}

	for i := range r.entries {
		e := &r.entries[i]
		ck := Normalize(e.CanonicalName)
		if strings.Contains(ck, key) || strings.Contains(key, ck) {
			return e, MethodSubstring
		}
		for _, a := range e.Aliases {
			ak := Normalize(a)
			if ak == "" {
				continue
			}
			if strings.Contains(ak, key) || strings.Contains(key, ak) {
				return e, MethodSubstring
			}
		}
	}

	return nil, MethodNone
}

// Matches reports whether a free-text name equals the entry's canonical name
// or one of its aliases after normalization.
func (r *Resolver) Matches(e *models.LocationAlias, name string) bool {
	key := Normalize(name)
	if key == "" || e == nil {
		return false
	}
	if Normalize(e.CanonicalName) == key {
		return true
	}
	for _, a := range e.Aliases {
		if Normalize(a) == key {
			return true
		}
	}
	return false
}

// Normalize lowercases, trims and collapses internal whitespace so that
// operator-entered spellings compare consistently.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

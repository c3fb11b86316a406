// Package match holds the three pure signal matchers: textual, geospatial
// and temporal. Each compares one trip against one delivery candidate along
// a single axis and returns an explainable 0-100 score. They are
// independent, order-free and CPU-only.
package match

import (
	"strings"

	"trip-delivery-correlation/internal/alias"
	"trip-delivery-correlation/internal/constants"
	"trip-delivery-correlation/internal/models"
)

// Text matcher method tags.
const (
	TextMethodExactAlias = "exact_alias"
	TextMethodSubstring  = "substring"
	TextMethodNone       = "none"
)

// TextResult carries the text score, the method that produced it and any
// quality flags raised along the way.
type TextResult struct {
	Score  int
	Method string
	Flags  []string
}

// Text compares the trip's recorded start/end place names against the
// delivery's terminal name. Location free text is the noisiest signal, so
// curated alias evidence wins outright over generic similarity; scores are
// the discrete set {0, 80, 100}, never blended. Rules in priority order:
//
//  1. delivery terminal resolves to a curated entry of type "terminal" and a
//     trip place name equals its canonical name or one of its aliases -> 100
//  2. same resolved terminal, trip name is a case-insensitive substring of
//     the terminal name (either direction) -> 80
//  3. anything else -> 0
func Text(trip models.Trip, delivery models.Delivery, r *alias.Resolver) TextResult {
	entry, _ := r.Resolve(delivery.Terminal)
	if entry == nil || entry.Type != models.LocationTerminal {
		return TextResult{Score: 0, Method: TextMethodNone, Flags: []string{models.FlagNoTerminalAlias}}
	}

	for _, name := range trip.PlaceNames() {
		if r.Matches(entry, name) {
			return TextResult{Score: constants.TextScoreExact, Method: TextMethodExactAlias}
		}
	}

	terminalKey := alias.Normalize(entry.CanonicalName)
	for _, name := range trip.PlaceNames() {
		key := alias.Normalize(name)
		if key == "" {
			continue
		}
		if strings.Contains(terminalKey, key) || strings.Contains(key, terminalKey) {
			return TextResult{
				Score:  constants.TextScoreSubstring,
				Method: TextMethodSubstring,
				Flags:  []string{models.FlagApproximateTextMatch},
			}
		}
	}

	return TextResult{Score: 0, Method: TextMethodNone}
}

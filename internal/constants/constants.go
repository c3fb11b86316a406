// Package constants centralizes fixed values used across the engine.
// These are not configuration knobs; use pkg/config for env-driven settings.
// Keep these stable; change deliberately and document why.
package constants

import "time"

const (
	// AlgorithmVersion is written on every correlation row so reruns with a
	// newer algorithm are distinguishable from stale results.
	AlgorithmVersion = "hybrid-v3"

	// Text matcher discrete scores. The matcher never blends: curated alias
	// evidence wins outright, substring evidence is a fixed step down.
	TextScoreExact     = 100
	TextScoreSubstring = 80

	// Temporal decay: same-day is the dominant expected case, so confidence
	// falls steeply per day of gap.
	TemporalDecayPerDay = 20

	// HighConfidenceThreshold marks correlations counted as "high" in run
	// summaries, independent of the configurable quality label boundaries.
	HighConfidenceThreshold = 80

	// EarthRadiusKm for great-circle distance.
	EarthRadiusKm = 6371.0

	// Database operation timeouts when config leaves them unset.
	DBReadTimeoutDefault  = 8 * time.Second
	DBWriteTimeoutDefault = 6 * time.Second
)

package models

import "time"

// Run lifecycle states. A run is Idle until started, Running while trips are
// being processed, and ends Completed or Failed.
const (
	RunStatusIdle      = "idle"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run outcome disambiguation: zero correlations can mean very different
// operational situations, so the summary states which one occurred.
const (
	RunOutcomeMatched      = "matched"       // at least one correlation persisted
	RunOutcomeNoCandidates = "no_candidates" // no delivery candidates existed at all
	RunOutcomeBelowFloor   = "below_floor"   // candidates existed but all scored below the floor
	RunOutcomeTruncated    = "truncated"     // a systemic error or timeout cut the run short
)

// RunParams are the inputs of one batch correlation invocation.
type RunParams struct {
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	FleetFilter   string    `json:"fleet_filter,omitempty"`
	MinConfidence int       `json:"min_confidence"`
	MaxTrips      int       `json:"max_trips"`
	ClearExisting bool      `json:"clear_existing"`
}

// RunSummary is the single structured record emitted per batch invocation.
type RunSummary struct {
	RunID  string    `json:"run_id"`
	Params RunParams `json:"params"`

	TripsProcessed    int `json:"trips_processed"`
	TripsFailed       int `json:"trips_failed"`
	TripsNoCandidates int `json:"trips_no_candidates"`
	TripsBelowFloor   int `json:"trips_below_floor"`

	CorrelationsCreated int     `json:"correlations_created"`
	HighConfidence      int     `json:"high_confidence"` // confidence >= 80
	ReviewNeeded        int     `json:"review_needed"`
	AvgConfidence       float64 `json:"avg_confidence"`

	Status      string        `json:"status"`  // completed | failed
	Outcome     string        `json:"outcome"` // matched | no_candidates | below_floor | truncated
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
}

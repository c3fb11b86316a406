package models

import "time"

// Quality flags recorded on a correlation to explain weak or missing signals.
const (
	FlagMissingCoordinates   = "missing_coordinates"
	FlagApproximateTextMatch = "approximate_text_match"
	FlagNoTerminalAlias      = "no_terminal_alias"
	FlagDateGap              = "date_gap"
	FlagOutsideServiceArea   = "outside_service_area"
	FlagGeocodedLocation     = "geocoded_location"
)

// Correlation is a scored, persisted link between one trip and one delivery
// candidate. Identity is (TripID, DeliveryKey); a trip may carry zero, one
// or many rows, and a delivery may appear against multiple trips.
type Correlation struct {
	TripID      int64  `json:"trip_id"`
	DeliveryKey string `json:"delivery_key"`

	Confidence int `json:"confidence"` // 0-100 weighted overall score

	TextScore     int      `json:"text_score"`
	TextMethod    string   `json:"text_method"`
	GeoScore      int      `json:"geo_score"`
	DistanceKm    *float64 `json:"distance_km,omitempty"` // endpoint-to-delivery-location distance, when computable
	TemporalScore int      `json:"temporal_score"`
	DateDiffDays  int      `json:"date_diff_days"`

	Quality          string   `json:"quality"` // deterministic label derived from Confidence
	RequiresReview   bool     `json:"requires_review"`
	QualityFlags     []string `json:"quality_flags,omitempty"`
	AlgorithmVersion string   `json:"algorithm_version"`

	// Verified is set by a human reviewer and is terminal: re-running the
	// engine never clears it.
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

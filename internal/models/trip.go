package models

import "time"

// Trip is one GPS-tracked movement leg of a vehicle. Trips are produced
// by upstream ingestion and are read-only to the correlation engine.
type Trip struct {
	ID          int64
	ExternalRef string
	StartName   *string
	EndName     *string
	StartLat    *float64
	StartLng    *float64
	EndLat      *float64
	EndLng      *float64
	TripDate    time.Time // calendar date derived from the start timestamp
	FleetID     string
	DistanceKm  float64
}

// HasEndCoordinates reports whether the trip carries a usable endpoint fix.
func (t Trip) HasEndCoordinates() bool {
	return t.EndLat != nil && t.EndLng != nil
}

// PlaceNames returns the non-empty start/end place names recorded for the trip.
func (t Trip) PlaceNames() []string {
	var names []string
	if t.StartName != nil && *t.StartName != "" {
		names = append(names, *t.StartName)
	}
	if t.EndName != nil && *t.EndName != "" {
		names = append(names, *t.EndName)
	}
	return names
}

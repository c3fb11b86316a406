package match

import (
	"time"

	"trip-delivery-correlation/internal/constants"
)

// TemporalResult carries the calendar-date proximity score.
type TemporalResult struct {
	Score           int
	DayDiff         int
	WithinTolerance bool
}

// Temporal compares the trip's computed calendar date against the delivery's
// recorded date. Same-day is the dominant expected case in this domain
// (deliveries are typically logged the day of the trip), so the decay is
// deliberately steep: 100 at zero days, minus 20 per day of gap, clamped at
// zero. Candidates beyond the tolerance are excluded entirely, not merely
// scored 0 — WithinTolerance is false and callers must drop them.
func Temporal(tripDate, deliveryDate time.Time, toleranceDays int) TemporalResult {
	diff := dayDiff(tripDate, deliveryDate)
	res := TemporalResult{DayDiff: diff}

	if diff > toleranceDays {
		return res
	}
	res.WithinTolerance = true

	score := 100 - diff*constants.TemporalDecayPerDay
	if score < 0 {
		score = 0
	}
	res.Score = score
	return res
}

// dayDiff returns the absolute whole-day difference between the calendar
// dates of a and b, ignoring time-of-day and normalizing to UTC so that two
// records captured against independent clocks compare on date alone.
func dayDiff(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(au.Sub(bu).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}

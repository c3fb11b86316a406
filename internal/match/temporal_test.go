package match

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTemporal_SameDay(t *testing.T) {
	res := Temporal(day(2026, 3, 10), day(2026, 3, 10), 3)
	if res.Score != 100 || res.DayDiff != 0 || !res.WithinTolerance {
		t.Fatalf("same day must score 100, got %+v", res)
	}
}

func TestTemporal_DecayPerDay(t *testing.T) {
	want := map[int]int{0: 100, 1: 80, 2: 60, 3: 40}
	for diff, score := range want {
		res := Temporal(day(2026, 3, 10), day(2026, 3, 10+diff), 3)
		if !res.WithinTolerance {
			t.Fatalf("diff %d within tolerance 3 must not be excluded: %+v", diff, res)
		}
		if res.Score != score || res.DayDiff != diff {
			t.Fatalf("diff %d: expected score %d, got %+v", diff, score, res)
		}
	}
}

func TestTemporal_SymmetricInDirection(t *testing.T) {
	before := Temporal(day(2026, 3, 10), day(2026, 3, 8), 3)
	after := Temporal(day(2026, 3, 10), day(2026, 3, 12), 3)
	if before.Score != after.Score || before.DayDiff != after.DayDiff {
		t.Fatalf("delivery before and after trip must score the same: %+v vs %+v", before, after)
	}
}

func TestTemporal_BeyondToleranceExcluded(t *testing.T) {
	res := Temporal(day(2026, 3, 10), day(2026, 3, 14), 3)
	if res.WithinTolerance {
		t.Fatalf("4 days apart with tolerance 3 must be excluded, got %+v", res)
	}
	if res.Score != 0 {
		t.Fatalf("excluded pairings carry no score, got %+v", res)
	}
}

func TestTemporal_ScoreNeverNegative(t *testing.T) {
	// Tolerance wider than the decay horizon: day 6 would be 100-120.
	res := Temporal(day(2026, 3, 10), day(2026, 3, 16), 10)
	if !res.WithinTolerance || res.Score != 0 {
		t.Fatalf("score must clamp at 0, got %+v", res)
	}
}

func TestTemporal_IgnoresTimeOfDayAndZone(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	trip := time.Date(2026, 3, 10, 23, 45, 0, 0, est)
	delivery := time.Date(2026, 3, 10, 1, 5, 0, 0, est)

	res := Temporal(trip, delivery, 3)
	if res.DayDiff != 0 || res.Score != 100 {
		t.Fatalf("same calendar day must compare equal regardless of time, got %+v", res)
	}
}

func TestTemporal_ScoreBounds(t *testing.T) {
	for diff := 0; diff <= 8; diff++ {
		res := Temporal(day(2026, 3, 1), day(2026, 3, 1+diff), 8)
		if res.Score < 0 || res.Score > 100 {
			t.Fatalf("score out of [0,100] at diff %d: %+v", diff, res)
		}
	}
}

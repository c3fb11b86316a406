package match

import (
	"math"
	"testing"

	"trip-delivery-correlation/internal/models"
)

func fp(v float64) *float64 { return &v }

func TestGeo_SameLocationScores100(t *testing.T) {
	res := Geo(fp(40.7), fp(-74.0), fp(40.7), fp(-74.0), 25)
	if res.Score != 100 {
		t.Fatalf("zero distance must score 100, got %+v", res)
	}
	if !res.WithinServiceArea || res.DistanceKm == nil || *res.DistanceKm != 0 {
		t.Fatalf("unexpected result for identical coordinates: %+v", res)
	}
}

func TestGeo_MissingCoordinates(t *testing.T) {
	cases := []struct {
		name                             string
		tripLat, tripLng, locLat, locLng *float64
	}{
		{"no trip coords", nil, nil, fp(40.7), fp(-74.0)},
		{"no location coords", fp(40.7), fp(-74.0), nil, nil},
		{"nothing at all", nil, nil, nil, nil},
	}
	for _, c := range cases {
		res := Geo(c.tripLat, c.tripLng, c.locLat, c.locLng, 25)
		if res.Score != 0 {
			t.Fatalf("%s: missing coordinates must score 0, got %+v", c.name, res)
		}
		if len(res.Flags) != 1 || res.Flags[0] != models.FlagMissingCoordinates {
			t.Fatalf("%s: expected missing_coordinates flag, got %+v", c.name, res)
		}
		if res.DistanceKm != nil {
			t.Fatalf("%s: distance must be absent, got %+v", c.name, res)
		}
	}
}

func TestGeo_OutsideServiceArea(t *testing.T) {
	// Roughly 111 km north, far beyond a 25 km radius.
	res := Geo(fp(40.0), fp(-74.0), fp(41.0), fp(-74.0), 25)
	if res.Score != 0 || res.WithinServiceArea {
		t.Fatalf("distance beyond radius must score 0, got %+v", res)
	}
	if len(res.Flags) != 1 || res.Flags[0] != models.FlagOutsideServiceArea {
		t.Fatalf("expected outside_service_area flag, got %+v", res)
	}
	if res.DistanceKm == nil || *res.DistanceKm < 100 {
		t.Fatalf("distance should still be reported, got %+v", res)
	}
}

func TestGeo_LinearDecayMidpoint(t *testing.T) {
	// ~0.1 degree latitude is ~11.1 km; with a 22.24 km radius that is close
	// to the midpoint, so the score should land near 50.
	res := Geo(fp(40.0), fp(-74.0), fp(40.1), fp(-74.0), 22.24)
	if res.Score < 45 || res.Score > 55 {
		t.Fatalf("expected roughly half score at half radius, got %+v", res)
	}
}

func TestGeo_MonotonicInDistance(t *testing.T) {
	radius := 50.0
	prev := 101
	for _, dLat := range []float64{0, 0.05, 0.1, 0.2, 0.3, 0.44} {
		res := Geo(fp(40.0), fp(-74.0), fp(40.0+dLat), fp(-74.0), radius)
		if res.Score > prev {
			t.Fatalf("score must not increase with distance: %d after %d at dLat %.2f", res.Score, prev, dLat)
		}
		prev = res.Score
	}
}

func TestGeo_ZeroRadiusNeverWithin(t *testing.T) {
	res := Geo(fp(40.0), fp(-74.0), fp(40.0), fp(-74.0), 0)
	if res.Score != 0 || res.WithinServiceArea {
		t.Fatalf("a non-positive radius can never contain a point, got %+v", res)
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// New York City to Philadelphia, roughly 130 km.
	d := Haversine(40.7128, -74.0060, 39.9526, -75.1652)
	if d < 120 || d < 0 || d > 140 {
		t.Fatalf("NYC-Philadelphia should be ~130 km, got %f", d)
	}
	if Haversine(40.0, -74.0, 40.0, -74.0) != 0 {
		t.Fatal("identical points must be 0 km apart")
	}
	if math.Abs(Haversine(40, -74, 41, -75)-Haversine(41, -75, 40, -74)) > 1e-9 {
		t.Fatal("haversine must be symmetric")
	}
}

package match

import (
	"math"

	"trip-delivery-correlation/internal/constants"
	"trip-delivery-correlation/internal/models"
)

// GeoResult carries the proximity score between the trip endpoint and the
// delivery location, when both positions are known.
type GeoResult struct {
	Score             int
	DistanceKm        *float64
	WithinServiceArea bool
	Flags             []string
}

// Geo scores the great-circle distance between the trip's endpoint and the
// delivery location against a service-radius threshold. The score decays
// linearly from 100 at distance zero to 0 at the radius, which keeps it
// monotonic non-increasing in distance. Geospatial evidence is optional:
// missing coordinates on either side yield score 0 with a quality flag,
// never an error.
func Geo(tripLat, tripLng, locLat, locLng *float64, serviceRadiusKm float64) GeoResult {
	if tripLat == nil || tripLng == nil || locLat == nil || locLng == nil {
		return GeoResult{Score: 0, Flags: []string{models.FlagMissingCoordinates}}
	}

	d := Haversine(*tripLat, *tripLng, *locLat, *locLng)
	res := GeoResult{DistanceKm: &d}

	if serviceRadiusKm <= 0 || d >= serviceRadiusKm {
		res.Flags = []string{models.FlagOutsideServiceArea}
		return res
	}

	res.WithinServiceArea = true
	res.Score = int(math.Round(100 * (1 - d/serviceRadiusKm)))
	if res.Score > 100 {
		res.Score = 100
	}
	if res.Score < 0 {
		res.Score = 0
	}
	return res
}

// Haversine returns the great-circle distance in kilometers between two
// WGS84 coordinate pairs.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const deg2rad = math.Pi / 180

	dLat := (lat2 - lat1) * deg2rad
	dLng := (lng2 - lng1) * deg2rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*deg2rad)*math.Cos(lat2*deg2rad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return constants.EarthRadiusKm * c
}

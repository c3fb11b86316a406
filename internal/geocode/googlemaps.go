// Package geocode provides optional coordinate backfill for curated alias
// entries that lack a position. Disabled by default: with geocoding on, run
// output depends on an external service and is no longer byte-deterministic.
package geocode

import (
	"context"
	"sync"

	"googlemaps.github.io/maps"

	errs "trip-delivery-correlation/pkg/errors"
)

// Point is a WGS84 position.
type Point struct {
	Lat float64
	Lng float64
}

// Geocoder resolves a free-text place name to coordinates. Implementations
// must tolerate unknown names by returning (nil, nil).
type Geocoder interface {
	Locate(ctx context.Context, name string) (*Point, error)
}

// GoogleMapsGeocoder uses the Google Maps Geocoding API with an in-memory
// cache so a batch run hits the API at most once per distinct name,
// including negative results.
type GoogleMapsGeocoder struct {
	client *maps.Client

	mu    sync.Mutex
	cache map[string]*Point // nil value = known miss
}

func NewGoogleMapsGeocoder(apiKey string) (*GoogleMapsGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, errs.NewExternal("geocode.NewGoogleMapsGeocoder", "googlemaps", "client init failed", err)
	}
	return &GoogleMapsGeocoder{
		client: client,
		cache:  make(map[string]*Point),
	}, nil
}

// Locate resolves name to a position, or (nil, nil) when the API has no
// result for it.
func (g *GoogleMapsGeocoder) Locate(ctx context.Context, name string) (*Point, error) {
	if name == "" {
		return nil, nil
	}

	g.mu.Lock()
	if p, ok := g.cache[name]; ok {
		g.mu.Unlock()
		return p, nil
	}
	g.mu.Unlock()

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: name})
	if err != nil {
		return nil, errs.NewExternal("geocode.Locate", "googlemaps", "geocode request failed", err)
	}

	var p *Point
	if len(results) > 0 {
		loc := results[0].Geometry.Location
		p = &Point{Lat: loc.Lat, Lng: loc.Lng}
	}

	g.mu.Lock()
	g.cache[name] = p
	g.mu.Unlock()
	return p, nil
}

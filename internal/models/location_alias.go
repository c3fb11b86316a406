package models

// LocationType classifies a curated location entry.
type LocationType string

const (
	LocationTerminal LocationType = "terminal"
	LocationDepot    LocationType = "depot"
	LocationCustomer LocationType = "customer"
	LocationOther    LocationType = "other"
)

// LocationAlias is a curated reference entry mapping a canonical place name
// to its type, organization and known alternate spellings. Curated
// out-of-band; the engine only reads it. Canonical names are unique, alias
// lists are best-effort and may overlap between entries.
type LocationAlias struct {
	CanonicalName   string       `yaml:"name"`
	Type            LocationType `yaml:"type"`
	Organization    string       `yaml:"organization,omitempty"`
	Aliases         []string     `yaml:"aliases,omitempty"`
	Lat             *float64     `yaml:"lat,omitempty"`
	Lng             *float64     `yaml:"lng,omitempty"`
	ServiceRadiusKm *float64     `yaml:"service_radius_km,omitempty"`
}

// HasCoordinates reports whether the entry carries a curated position.
func (a LocationAlias) HasCoordinates() bool {
	return a.Lat != nil && a.Lng != nil
}

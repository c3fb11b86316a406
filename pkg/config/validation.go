package config

import (
	"fmt"
	"math"
	"strings"

	errs "trip-delivery-correlation/pkg/errors"
)

// FieldError represents a single configuration validation failure.
type FieldError struct {
	Field   string
	Value   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("config validation error for field '%s' with value '%s': %s", e.Field, e.Value, e.Message)
}

// validator collects field errors so the operator sees everything wrong at
// once instead of fixing one knob per restart.
type validator struct {
	errors []FieldError
}

func (v *validator) add(field, value, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Value: value, Message: message})
}

func (v *validator) err() error {
	if len(v.errors) == 0 {
		return nil
	}
	msgs := make([]string, len(v.errors))
	for i, e := range v.errors {
		msgs[i] = e.Error()
	}
	return errs.NewValidation("config.Validate",
		fmt.Sprintf("configuration validation failed:\n%s", strings.Join(msgs, "\n")), nil)
}

// Validate checks the configuration invariants the engine depends on.
// Invalid configuration is a systemic failure: no run may start with it.
func (c *Config) Validate() error {
	v := &validator{}

	if c.DatabaseURL == "" {
		v.add("DATABASE_URL", "", "is required")
	}

	sum := c.TextWeight + c.GeoWeight + c.TemporalWeight
	if math.Abs(sum-1.0) > 0.001 {
		v.add("TEXT_WEIGHT/GEO_WEIGHT/TEMPORAL_WEIGHT", fmt.Sprintf("%.3f", sum), "weights must sum to 1.0")
	}
	for name, w := range map[string]float64{
		"TEXT_WEIGHT":     c.TextWeight,
		"GEO_WEIGHT":      c.GeoWeight,
		"TEMPORAL_WEIGHT": c.TemporalWeight,
	} {
		if w < 0 || w > 1 {
			v.add(name, fmt.Sprintf("%.3f", w), "must be in [0,1]")
		}
	}

	if c.ToleranceDays < 0 {
		v.add("TOLERANCE_DAYS", fmt.Sprintf("%d", c.ToleranceDays), "must be >= 0")
	}
	if c.DefaultServiceRadiusKm <= 0 {
		v.add("DEFAULT_SERVICE_RADIUS_KM", fmt.Sprintf("%.1f", c.DefaultServiceRadiusKm), "must be > 0")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		v.add("MIN_CONFIDENCE", fmt.Sprintf("%d", c.MinConfidence), "must be in [0,100]")
	}
	if c.MaxTrips <= 0 {
		v.add("MAX_TRIPS", fmt.Sprintf("%d", c.MaxTrips), "must be > 0")
	}
	if c.WorkerCount < 1 {
		v.add("WORKER_COUNT", fmt.Sprintf("%d", c.WorkerCount), "must be >= 1")
	}

	// Label boundaries must be strictly monotonic so every confidence value
	// maps to exactly one label.
	if !(c.VeryHighMin > c.HighMin && c.HighMin > c.MediumMin && c.MediumMin > 0 && c.VeryHighMin <= 100) {
		v.add("LABEL_*_MIN",
			fmt.Sprintf("very_high=%d high=%d medium=%d", c.VeryHighMin, c.HighMin, c.MediumMin),
			"boundaries must satisfy 0 < medium < high < very_high <= 100")
	}

	if c.CustomerBonus < 0 || c.CustomerBonus > 50 {
		v.add("CUSTOMER_BONUS", fmt.Sprintf("%d", c.CustomerBonus), "must be in [0,50]")
	}

	if c.GeocodeEnabled && c.GoogleMapsAPIKey == "" {
		v.add("GOOGLE_MAPS_API_KEY", "", "required when GEOCODE_ENABLED=true")
	}

	if c.CronSpec != "" && c.CronWindowDays <= 0 {
		v.add("CRON_WINDOW_DAYS", fmt.Sprintf("%d", c.CronWindowDays), "must be > 0 when CRON_SPEC is set")
	}

	return v.err()
}

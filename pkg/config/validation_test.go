package config

import (
	"strings"
	"testing"

	errs "trip-delivery-correlation/pkg/errors"
)

func validConfig() *Config {
	c := Load()
	c.DatabaseURL = "user:pass@tcp(localhost:3306)/fleet"
	return c
}

func TestValidate_DefaultsWithDatabaseURL(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config with a database URL must validate: %v", err)
	}
}

func TestValidate_RequiresDatabaseURL(t *testing.T) {
	c := validConfig()
	c.DatabaseURL = ""
	err := c.Validate()
	if err == nil {
		t.Fatal("missing DATABASE_URL must fail validation")
	}
	if !errs.Is(err, errs.ErrValidation) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("error should name the field: %v", err)
	}
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	c := validConfig()
	c.TextWeight, c.GeoWeight, c.TemporalWeight = 0.5, 0.5, 0.5
	if err := c.Validate(); err == nil {
		t.Fatal("weights summing to 1.5 must fail validation")
	}

	c = validConfig()
	c.TextWeight, c.GeoWeight, c.TemporalWeight = 0.3335, 0.3335, 0.333
	if err := c.Validate(); err != nil {
		t.Fatalf("sum within tolerance of 1.0 must pass: %v", err)
	}
}

func TestValidate_WeightRange(t *testing.T) {
	c := validConfig()
	c.TextWeight, c.GeoWeight, c.TemporalWeight = 1.5, -0.5, 0.0
	err := c.Validate()
	if err == nil {
		t.Fatal("weights outside [0,1] must fail even when they sum to 1.0")
	}
}

func TestValidate_LabelBoundaries(t *testing.T) {
	c := validConfig()
	c.VeryHighMin, c.HighMin, c.MediumMin = 80, 90, 70
	if err := c.Validate(); err == nil {
		t.Fatal("non-monotonic label boundaries must fail validation")
	}

	c = validConfig()
	c.VeryHighMin = 101
	if err := c.Validate(); err == nil {
		t.Fatal("very_high boundary above 100 must fail validation")
	}
}

func TestValidate_CustomerBonusRange(t *testing.T) {
	c := validConfig()
	c.CustomerBonus = 51
	if err := c.Validate(); err == nil {
		t.Fatal("bonus above 50 must fail validation")
	}
}

func TestValidate_GeocodeNeedsAPIKey(t *testing.T) {
	c := validConfig()
	c.GeocodeEnabled = true
	c.GoogleMapsAPIKey = ""
	if err := c.Validate(); err == nil {
		t.Fatal("geocoding without an API key must fail validation")
	}

	c.GoogleMapsAPIKey = "key"
	if err := c.Validate(); err != nil {
		t.Fatalf("geocoding with an API key must pass: %v", err)
	}
}

func TestValidate_CronWindow(t *testing.T) {
	c := validConfig()
	c.CronSpec = "0 3 * * *"
	c.CronWindowDays = 0
	if err := c.Validate(); err == nil {
		t.Fatal("a cron spec without a window must fail validation")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	c := validConfig()
	c.DatabaseURL = ""
	c.MaxTrips = 0
	c.WorkerCount = 0
	err := c.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, field := range []string{"DATABASE_URL", "MAX_TRIPS", "WORKER_COUNT"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("all failures should be reported at once, missing %s in: %v", field, err)
		}
	}
}

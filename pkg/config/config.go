package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config consolidates every tunable of the correlation engine: scoring
// weights, tolerance windows, thresholds and label boundaries, plus the
// infrastructure knobs. Loaded once from the environment and validated
// before any run starts.
type Config struct {
	DatabaseURL string
	Port        string
	Env         string // development, staging, production

	// Scoring weights. Must sum to 1.0; geo lowest by default because
	// coordinates are frequently absent in the trip source.
	TextWeight     float64
	GeoWeight      float64
	TemporalWeight float64

	// Matching windows and thresholds.
	ToleranceDays          int           // temporal candidate window, days
	DefaultServiceRadiusKm float64       // geo decay radius when an alias has none
	MinConfidence          int           // persistence floor, 0-100
	MaxTrips               int           // per-run safety cap
	RunTimeout             time.Duration // 0 = disabled

	// Quality label boundaries, must be strictly decreasing from very high
	// to medium; everything below medium is "low".
	VeryHighMin int
	HighMin     int
	MediumMin   int

	// Optional customer-tier bonus.
	PreferredCustomers []string
	CustomerBonus      int

	// Worker pool.
	WorkerCount int

	// Location alias sources.
	AliasFile string // optional YAML overriding/extending the DB table

	// Optional coordinate backfill via Google Maps geocoding. When enabled
	// the run is no longer byte-deterministic, so it defaults off.
	GeocodeEnabled   bool
	GoogleMapsAPIKey string

	// Scheduled runs: cron spec plus trailing window in days. Empty = no
	// scheduled runs.
	CronSpec       string
	CronWindowDays int

	// Database performance settings.
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime int // minutes
	DBConnMaxIdleTime int // minutes
	DBReadTimeout     time.Duration
	DBWriteTimeout    time.Duration

	// Logging and metrics.
	LogLevel       string
	LogFormat      string // "json" or "text"
	MetricsEnabled bool
	MetricsPath    string
}

func Load() *Config {
	textWeight, _ := strconv.ParseFloat(getEnv("TEXT_WEIGHT", "0.40"), 64)
	geoWeight, _ := strconv.ParseFloat(getEnv("GEO_WEIGHT", "0.25"), 64)
	temporalWeight, _ := strconv.ParseFloat(getEnv("TEMPORAL_WEIGHT", "0.35"), 64)

	toleranceDays, _ := strconv.Atoi(getEnv("TOLERANCE_DAYS", "3"))
	serviceRadius, _ := strconv.ParseFloat(getEnv("DEFAULT_SERVICE_RADIUS_KM", "25"), 64)
	minConfidence, _ := strconv.Atoi(getEnv("MIN_CONFIDENCE", "60"))
	maxTrips, _ := strconv.Atoi(getEnv("MAX_TRIPS", "10000"))
	runTimeout, _ := time.ParseDuration(getEnv("RUN_TIMEOUT", "0s"))

	veryHighMin, _ := strconv.Atoi(getEnv("LABEL_VERY_HIGH_MIN", "90"))
	highMin, _ := strconv.Atoi(getEnv("LABEL_HIGH_MIN", "80"))
	mediumMin, _ := strconv.Atoi(getEnv("LABEL_MEDIUM_MIN", "70"))

	customerBonus, _ := strconv.Atoi(getEnv("CUSTOMER_BONUS", "5"))
	var preferred []string
	if raw := getEnv("PREFERRED_CUSTOMERS", ""); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				preferred = append(preferred, p)
			}
		}
	}

	workerCount, _ := strconv.Atoi(getEnv("WORKER_COUNT", "8"))

	geocodeEnabled, _ := strconv.ParseBool(getEnv("GEOCODE_ENABLED", "false"))
	cronWindowDays, _ := strconv.Atoi(getEnv("CRON_WINDOW_DAYS", "7"))

	dbMaxOpenConns, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "50"))
	dbMaxIdleConns, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "15"))
	dbConnMaxLifetime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_LIFETIME_MINUTES", "10"))
	dbConnMaxIdleTime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_IDLE_TIME_MINUTES", "5"))
	dbReadTO, _ := time.ParseDuration(getEnv("DB_READ_TIMEOUT", "8s"))
	dbWriteTO, _ := time.ParseDuration(getEnv("DB_WRITE_TIMEOUT", "6s"))

	metricsEnabled, _ := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		Env:         strings.ToLower(getEnv("ENV", "development")),

		TextWeight:     textWeight,
		GeoWeight:      geoWeight,
		TemporalWeight: temporalWeight,

		ToleranceDays:          toleranceDays,
		DefaultServiceRadiusKm: serviceRadius,
		MinConfidence:          minConfidence,
		MaxTrips:               maxTrips,
		RunTimeout:             runTimeout,

		VeryHighMin: veryHighMin,
		HighMin:     highMin,
		MediumMin:   mediumMin,

		PreferredCustomers: preferred,
		CustomerBonus:      customerBonus,

		WorkerCount: workerCount,

		AliasFile: getEnv("ALIAS_FILE", ""),

		GeocodeEnabled:   geocodeEnabled,
		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),

		CronSpec:       getEnv("CRON_SPEC", ""),
		CronWindowDays: cronWindowDays,

		DBMaxOpenConns:    dbMaxOpenConns,
		DBMaxIdleConns:    dbMaxIdleConns,
		DBConnMaxLifetime: dbConnMaxLifetime,
		DBConnMaxIdleTime: dbConnMaxIdleTime,
		DBReadTimeout:     dbReadTO,
		DBWriteTimeout:    dbWriteTO,

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		MetricsEnabled: metricsEnabled,
		MetricsPath:    getEnv("METRICS_PATH", "/metrics"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

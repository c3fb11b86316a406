package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"
	"github.com/robfig/cron/v3"

	"trip-delivery-correlation/internal/alias"
	"trip-delivery-correlation/internal/correlator"
	"trip-delivery-correlation/internal/decision"
	"trip-delivery-correlation/internal/domain"
	"trip-delivery-correlation/internal/geocode"
	"trip-delivery-correlation/internal/infrastructure/repository"
	"trip-delivery-correlation/internal/models"
	"trip-delivery-correlation/pkg/config"
	"trip-delivery-correlation/pkg/database"
	errs "trip-delivery-correlation/pkg/errors"
	"trip-delivery-correlation/pkg/health"
	"trip-delivery-correlation/pkg/logging"
	"trip-delivery-correlation/pkg/metrics"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Info("starting trip-delivery correlation service", "env", cfg.Env, "port", cfg.Port)

	db, err := database.NewWithConfig(cfg.DatabaseURL, cfg)
	if err != nil {
		log.Error("database connection failed", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	repo := repository.NewSQLRepository(db)

	// Optional curated alias overrides from a local YAML file; the DB table is
	// always loaded per run, the file is merged on top.
	var fileAliases []models.LocationAlias
	if cfg.AliasFile != "" {
		fileAliases, err = alias.LoadFile(cfg.AliasFile)
		if err != nil {
			log.Error("failed to load alias file", "path", cfg.AliasFile, "error", err.Error())
			os.Exit(1)
		}
		log.Info("alias file loaded", "path", cfg.AliasFile, "entries", len(fileAliases))
	}

	var geocoder geocode.Geocoder
	if cfg.GeocodeEnabled {
		gm, err := geocode.NewGoogleMapsGeocoder(cfg.GoogleMapsAPIKey)
		if err != nil {
			log.Error("failed to init geocoder", "error", err.Error())
			os.Exit(1)
		}
		geocoder = gm
		log.Info("geocode backfill enabled")
	}

	reg := metrics.NewRegistry()

	aggCfg := decision.Config{
		TextWeight:     cfg.TextWeight,
		GeoWeight:      cfg.GeoWeight,
		TemporalWeight: cfg.TemporalWeight,
		VeryHighMin:    cfg.VeryHighMin,
		HighMin:        cfg.HighMin,
		MediumMin:      cfg.MediumMin,
		MinConfidence:  cfg.MinConfidence,
		Bonus:          decision.PreferredCustomerBonus(cfg.PreferredCustomers, cfg.CustomerBonus),
	}
	engCfg := correlator.Config{
		ToleranceDays:          cfg.ToleranceDays,
		DefaultServiceRadiusKm: cfg.DefaultServiceRadiusKm,
		WorkerCount:            cfg.WorkerCount,
		RunTimeout:             cfg.RunTimeout,
	}
	engine := correlator.NewEngine(repo, aggCfg, engCfg, geocoder, fileAliases, log, reg)

	checker := health.NewChecker(5 * time.Second)
	checker.Register("database", func(ctx context.Context) error {
		return db.Conn().PingContext(ctx)
	})

	app := &App{cfg: cfg, log: log, repo: repo, engine: engine}

	router := mux.NewRouter()
	router.HandleFunc("/runs", app.startRunHandler).Methods("POST")
	router.HandleFunc("/runs/latest", app.latestRunHandler).Methods("GET")
	router.HandleFunc("/trips/{id}/correlate", app.previewTripHandler).Methods("POST")
	router.Handle("/health", checker.Handler()).Methods("GET")
	if cfg.MetricsEnabled {
		router.Handle(cfg.MetricsPath, reg.Handler()).Methods("GET")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var scheduler *cron.Cron
	if cfg.CronSpec != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.CronSpec, func() {
			app.scheduledRun(ctx)
		})
		if err != nil {
			log.Error("invalid cron spec", "spec", cfg.CronSpec, "error", err.Error())
			os.Exit(1)
		}
		scheduler.Start()
		log.Info("scheduled runs enabled", "spec", cfg.CronSpec, "window_days", cfg.CronWindowDays)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err.Error())
			cancel()
		}
	}()

	<-ctx.Done()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", "error", err.Error())
	}
	log.Info("shutdown complete")
}

type App struct {
	cfg    *config.Config
	log    *logging.Logger
	repo   domain.Repository
	engine *correlator.Engine
}

// runRequest is the JSON body of POST /runs. Dates come as calendar days,
// not timestamps, because that is the granularity the matchers work at.
type runRequest struct {
	StartDate     string `json:"start_date"` // YYYY-MM-DD
	EndDate       string `json:"end_date"`   // YYYY-MM-DD
	FleetFilter   string `json:"fleet_filter,omitempty"`
	MinConfidence *int   `json:"min_confidence,omitempty"`
	MaxTrips      *int   `json:"max_trips,omitempty"`
	ClearExisting bool   `json:"clear_existing,omitempty"`
}

func (r runRequest) toParams(cfg *config.Config) (models.RunParams, error) {
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return models.RunParams{}, fmt.Errorf("invalid start_date %q: %w", r.StartDate, err)
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return models.RunParams{}, fmt.Errorf("invalid end_date %q: %w", r.EndDate, err)
	}

	params := models.RunParams{
		StartDate:     start,
		EndDate:       end,
		FleetFilter:   r.FleetFilter,
		MinConfidence: cfg.MinConfidence,
		MaxTrips:      cfg.MaxTrips,
		ClearExisting: r.ClearExisting,
	}
	if r.MinConfidence != nil {
		params.MinConfidence = *r.MinConfidence
	}
	if r.MaxTrips != nil {
		params.MaxTrips = *r.MaxTrips
	}
	return params, nil
}

// startRunHandler runs a batch synchronously and returns its summary.
// Correlation runs are operator-triggered and bounded by MaxTrips, so a
// blocking request keeps the API honest about what actually happened.
func (app *App) startRunHandler(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	params, err := req.toParams(app.cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := app.engine.Run(r.Context(), params)
	switch {
	case err != nil && summary == nil:
		// Rejected before starting: another run holds the lifecycle.
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil && errs.Is(err, errs.ErrValidation):
		writeJSON(w, http.StatusBadRequest, summary)
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, summary)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// previewTripHandler scores one trip synchronously without persisting,
// so operators can see how a trip would correlate before running a batch.
func (app *App) previewTripHandler(w http.ResponseWriter, r *http.Request) {
	idStr, ok := mux.Vars(r)["id"]
	if !ok {
		http.Error(w, "missing trip id", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid trip id", http.StatusBadRequest)
		return
	}

	minConfidence := app.cfg.MinConfidence
	if raw := r.URL.Query().Get("min_confidence"); raw != "" {
		mc, err := strconv.Atoi(raw)
		if err != nil || mc < 0 || mc > 100 {
			http.Error(w, "min_confidence must be an integer in [0,100]", http.StatusBadRequest)
			return
		}
		minConfidence = mc
	}

	corrs, err := app.engine.PreviewTrip(r.Context(), id, minConfidence)
	switch {
	case err != nil && errs.Is(err, errs.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"trip_id":      id,
		"correlations": corrs,
	})
}

func (app *App) latestRunHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := app.repo.GetLatestRunSummaryCtx(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if summary == nil {
		http.Error(w, "no runs recorded yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// scheduledRun correlates the trailing window ending today. A run already in
// progress is skipped, not queued; the next tick covers the same window.
func (app *App) scheduledRun(ctx context.Context) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -app.cfg.CronWindowDays)

	params := models.RunParams{
		StartDate:     start,
		EndDate:       end,
		MinConfidence: app.cfg.MinConfidence,
		MaxTrips:      app.cfg.MaxTrips,
	}
	summary, err := app.engine.Run(ctx, params)
	if err != nil && summary == nil {
		app.log.Warn("scheduled run skipped, another run in progress")
		return
	}
	if err != nil {
		app.log.Error("scheduled run failed", "error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

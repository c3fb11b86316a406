// Package correlator implements the batch orchestrator: it iterates trips in
// a date range, selects candidate deliveries, runs the three matchers
// against each candidate, aggregates the sub-scores and upserts the
// qualifying correlations.
//
// Per-trip matching is embarrassingly parallel, so trips fan out over a
// bounded worker pool; the store writes stay serialized in a single
// goroutine to keep the upsert path free of write races. Trips never depend
// on each other: results are commutative and idempotent.
package correlator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"trip-delivery-correlation/internal/alias"
	"trip-delivery-correlation/internal/constants"
	"trip-delivery-correlation/internal/decision"
	"trip-delivery-correlation/internal/domain"
	"trip-delivery-correlation/internal/geocode"
	"trip-delivery-correlation/internal/match"
	"trip-delivery-correlation/internal/models"
	errs "trip-delivery-correlation/pkg/errors"
	"trip-delivery-correlation/pkg/logging"
	"trip-delivery-correlation/pkg/metrics"
)

// Config holds the orchestration tunables not owned by the aggregator.
type Config struct {
	ToleranceDays          int
	DefaultServiceRadiusKm float64
	WorkerCount            int
	RunTimeout             time.Duration // 0 = no wall-clock limit
}

// DefaultConfig returns sensible batch defaults.
func DefaultConfig() Config {
	return Config{
		ToleranceDays:          3,
		DefaultServiceRadiusKm: 25,
		WorkerCount:            8,
		RunTimeout:             0,
	}
}

// Engine runs batch correlations. Construct once, call Run per batch;
// concurrent Run calls are rejected.
type Engine struct {
	repo     domain.Repository
	aggCfg   decision.Config
	cfg      Config
	geocoder geocode.Geocoder // optional; nil disables coordinate backfill
	log      *logging.Logger

	// fileAliases supplement the DB alias table, loaded once at startup.
	fileAliases []models.LocationAlias

	state *lifecycle

	mRuns         *metrics.Counter
	mRunsFailed   *metrics.Counter
	mTrips        *metrics.Counter
	mTripsFailed  *metrics.Counter
	mCorrelations *metrics.Counter
	mRunDuration  *metrics.Histogram
	mQueueSize    *metrics.Gauge
}

// NewEngine wires the orchestrator. reg may be nil when metrics are disabled.
func NewEngine(repo domain.Repository, aggCfg decision.Config, cfg Config,
	geocoder geocode.Geocoder, fileAliases []models.LocationAlias,
	log *logging.Logger, reg *metrics.Registry) *Engine {

	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}

	return &Engine{
		repo:        repo,
		aggCfg:      aggCfg,
		cfg:         cfg,
		geocoder:    geocoder,
		fileAliases: fileAliases,
		log:         log.Component("correlator"),
		state:       newLifecycle(),

		mRuns:         reg.Counter("correlation_runs_total", "Batch correlation runs started"),
		mRunsFailed:   reg.Counter("correlation_runs_failed_total", "Batch correlation runs that ended in failure"),
		mTrips:        reg.Counter("trips_processed_total", "Trips processed across all runs"),
		mTripsFailed:  reg.Counter("trips_failed_total", "Trips whose matching failed and was skipped"),
		mCorrelations: reg.Counter("correlations_upserted_total", "Correlation rows created or updated"),
		mRunDuration:  reg.Histogram("run_duration_seconds", "Wall-clock duration of batch runs", []float64{1, 5, 15, 60, 300, 900, 3600}),
		mQueueSize:    reg.Gauge("trips_queue_size", "Trips waiting for a worker in the current run"),
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() string { return e.state.current() }

// tripResult is what one worker hands back for one trip.
type tripResult struct {
	tripID     int64
	candidates int
	corrs      []models.Correlation
	err        error
}

// Run executes one batch over the given parameters and returns the run
// summary. Per-trip failures are logged and counted, never abort the run;
// systemic failures (datastore unreachable, invalid parameters) abort it and
// are returned alongside the partial summary collected so far.
func (e *Engine) Run(ctx context.Context, params models.RunParams) (*models.RunSummary, error) {
	if err := e.state.start(); err != nil {
		return nil, err
	}
	e.mRuns.Inc()

	started := time.Now()
	summary := &models.RunSummary{
		RunID:     uuid.NewString(),
		Params:    params,
		Status:    models.RunStatusRunning,
		StartedAt: started,
	}
	log := e.log.WithRun(summary.RunID)

	fail := func(err error) (*models.RunSummary, error) {
		e.finish(summary, started, err, log)
		return summary, err
	}

	if err := validateParams(params); err != nil {
		return fail(err)
	}
	aggCfg := e.aggCfg
	aggCfg.MinConfidence = params.MinConfidence
	if err := aggCfg.Validate(); err != nil {
		return fail(err)
	}
	agg := decision.NewAggregator(aggCfg)

	if e.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RunTimeout)
		defer cancel()
	}
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	log.Info("starting correlation run",
		"start_date", params.StartDate.Format("2006-01-02"),
		"end_date", params.EndDate.Format("2006-01-02"),
		"fleet", params.FleetFilter,
		"min_confidence", params.MinConfidence,
		"max_trips", params.MaxTrips,
		"clear_existing", params.ClearExisting)

	dbEntries, err := e.repo.GetLocationAliasesCtx(runCtx)
	if err != nil {
		return fail(err)
	}
	resolver := alias.NewResolver(alias.Merge(dbEntries, e.fileAliases))
	log.Info("alias table loaded", "entries", resolver.Len())

	if params.ClearExisting {
		deleted, err := e.repo.DeleteCorrelationsInRangeCtx(runCtx, params.StartDate, params.EndDate, params.FleetFilter)
		if err != nil {
			return fail(err)
		}
		log.Info("cleared existing correlations", "deleted", deleted)
	}

	trips, err := e.repo.GetTripsInRangeCtx(runCtx, params.StartDate, params.EndDate, params.FleetFilter, params.MaxTrips)
	if err != nil {
		return fail(err)
	}
	log.Info("trips selected", "count", len(trips))

	jobs := make(chan models.Trip)
	results := make(chan tripResult)

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(runCtx, resolver, agg, params, jobs, results)
		}()
	}

	go func() {
		defer close(jobs)
		for _, t := range trips {
			select {
			case jobs <- t:
			case <-runCtx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	e.mQueueSize.Set(float64(len(trips)))
	defer e.mQueueSize.Set(0)

	// Single writer: consume results and upsert serially. The store's upsert
	// is atomic per key anyway, but serializing here keeps write pressure
	// predictable and makes the run summary arithmetic trivial.
	var runErr error
	confidenceSum := 0
	for res := range results {
		e.mQueueSize.Add(-1)

		if res.err != nil {
			if errs.IsSystemic(res.err) {
				if runErr == nil {
					runErr = res.err
					cancelRun() // stop feeding workers, drain what is in flight
				}
				continue
			}
			summary.TripsFailed++
			e.mTripsFailed.Inc()
			log.Warn("trip matching failed, continuing", "trip_id", res.tripID, "error", res.err.Error())
			continue
		}

		summary.TripsProcessed++
		e.mTrips.Inc()
		switch {
		case res.candidates == 0:
			summary.TripsNoCandidates++
		case len(res.corrs) == 0:
			summary.TripsBelowFloor++
		}

		if runErr != nil {
			continue // truncated: count but stop writing
		}
		for i := range res.corrs {
			c := &res.corrs[i]
			if err := e.repo.UpsertCorrelationCtx(runCtx, c); err != nil {
				runErr = err
				cancelRun()
				break
			}
			summary.CorrelationsCreated++
			confidenceSum += c.Confidence
			if c.Confidence >= constants.HighConfidenceThreshold {
				summary.HighConfidence++
			}
			if c.RequiresReview {
				summary.ReviewNeeded++
			}
			e.mCorrelations.Inc()
		}
	}

	if runErr == nil && ctx.Err() != nil {
		runErr = errs.NewValidation("correlator.Run", "run cancelled or timed out", ctx.Err())
	}
	if summary.CorrelationsCreated > 0 {
		summary.AvgConfidence = float64(confidenceSum) / float64(summary.CorrelationsCreated)
	}

	e.finish(summary, started, runErr, log)
	return summary, runErr
}

// finish stamps the summary, persists it best-effort and settles the
// lifecycle state.
func (e *Engine) finish(s *models.RunSummary, started time.Time, runErr error, log *logging.Logger) {
	s.CompletedAt = time.Now()
	s.Duration = s.CompletedAt.Sub(started)
	e.mRunDuration.Observe(s.Duration.Seconds())

	switch {
	case runErr != nil:
		s.Status = models.RunStatusFailed
		s.Outcome = models.RunOutcomeTruncated
		s.Error = runErr.Error()
		e.mRunsFailed.Inc()
		e.state.fail()
	case s.CorrelationsCreated > 0:
		s.Status = models.RunStatusCompleted
		s.Outcome = models.RunOutcomeMatched
		e.state.complete()
	case s.TripsBelowFloor > 0:
		s.Status = models.RunStatusCompleted
		s.Outcome = models.RunOutcomeBelowFloor
		e.state.complete()
	default:
		s.Status = models.RunStatusCompleted
		s.Outcome = models.RunOutcomeNoCandidates
		e.state.complete()
	}

	// Persist with a fresh context: the run context may already be done.
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.repo.SaveRunSummaryCtx(saveCtx, s); err != nil {
		log.Error("failed to persist run summary", "error", err.Error())
	}

	log.Info("correlation run finished",
		"status", s.Status,
		"outcome", s.Outcome,
		"trips_processed", s.TripsProcessed,
		"trips_failed", s.TripsFailed,
		"correlations_created", s.CorrelationsCreated,
		"high_confidence", s.HighConfidence,
		"review_needed", s.ReviewNeeded,
		"avg_confidence", fmt.Sprintf("%.1f", s.AvgConfidence),
		"duration", s.Duration.String())
}

// PreviewTrip scores a single trip against its candidate deliveries and
// returns the pairings clearing the floor, without persisting anything.
// Read-only, so it runs regardless of the batch lifecycle state.
func (e *Engine) PreviewTrip(ctx context.Context, tripID int64, minConfidence int) ([]models.Correlation, error) {
	aggCfg := e.aggCfg
	aggCfg.MinConfidence = minConfidence
	if err := aggCfg.Validate(); err != nil {
		return nil, err
	}

	trip, err := e.repo.GetTripByIDCtx(ctx, tripID)
	if err != nil {
		return nil, err
	}
	dbEntries, err := e.repo.GetLocationAliasesCtx(ctx)
	if err != nil {
		return nil, err
	}
	resolver := alias.NewResolver(alias.Merge(dbEntries, e.fileAliases))

	corrs, _, err := e.correlateTrip(ctx, resolver, decision.NewAggregator(aggCfg),
		models.RunParams{MinConfidence: minConfidence}, *trip)
	return corrs, err
}

// worker drains trips from the queue. Cancellation is cooperative and
// checked at the top of each trip: a single trip's matching is cheap, so
// mid-trip interruption buys nothing.
func (e *Engine) worker(ctx context.Context, resolver *alias.Resolver, agg *decision.Aggregator,
	params models.RunParams, jobs <-chan models.Trip, results chan<- tripResult) {

	for {
		select {
		case trip, ok := <-jobs:
			if !ok {
				return
			}
			corrs, candidates, err := e.correlateTrip(ctx, resolver, agg, params, trip)
			select {
			case results <- tripResult{tripID: trip.ID, candidates: candidates, corrs: corrs, err: err}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// correlateTrip scores every candidate delivery against one trip and keeps
// the pairings that clear the run's confidence floor. Multiple qualifying
// candidates are a valid, expected outcome: all of them are returned.
func (e *Engine) correlateTrip(ctx context.Context, resolver *alias.Resolver, agg *decision.Aggregator,
	params models.RunParams, trip models.Trip) ([]models.Correlation, int, error) {

	candidates, err := e.repo.GetCandidateDeliveriesCtx(ctx, trip.TripDate, e.cfg.ToleranceDays, trip.FleetID)
	if err != nil {
		return nil, 0, err
	}

	var out []models.Correlation
	for _, d := range candidates {
		temporal := match.Temporal(trip.TripDate, d.DeliveryDate, e.cfg.ToleranceDays)
		if !temporal.WithinTolerance {
			continue // excluded entirely, not merely scored 0
		}

		text := match.Text(trip, d, resolver)
		geo := e.matchGeo(ctx, resolver, trip, d)

		outcome := agg.Aggregate(trip, d, text, geo, temporal)
		if outcome.Confidence < params.MinConfidence {
			continue
		}

		out = append(out, models.Correlation{
			TripID:           trip.ID,
			DeliveryKey:      d.Key,
			Confidence:       outcome.Confidence,
			TextScore:        text.Score,
			TextMethod:       text.Method,
			GeoScore:         geo.Score,
			DistanceKm:       geo.DistanceKm,
			TemporalScore:    temporal.Score,
			DateDiffDays:     temporal.DayDiff,
			Quality:          outcome.Quality,
			RequiresReview:   outcome.RequiresReview,
			QualityFlags:     outcome.QualityFlags,
			AlgorithmVersion: constants.AlgorithmVersion,
		})
	}
	return out, len(candidates), nil
}

// matchGeo locates the delivery side of the geospatial comparison: curated
// terminal coordinates first, then curated customer coordinates, then the
// optional geocoder. The trip side is always the trip endpoint.
func (e *Engine) matchGeo(ctx context.Context, resolver *alias.Resolver, trip models.Trip, d models.Delivery) match.GeoResult {
	var locLat, locLng *float64
	radius := e.cfg.DefaultServiceRadiusKm
	geocoded := false

	if entry, _ := resolver.Resolve(d.Terminal); entry != nil && entry.HasCoordinates() {
		locLat, locLng = entry.Lat, entry.Lng
		if entry.ServiceRadiusKm != nil {
			radius = *entry.ServiceRadiusKm
		}
	} else if entry, _ := resolver.Resolve(d.Customer); entry != nil && entry.HasCoordinates() {
		locLat, locLng = entry.Lat, entry.Lng
		if entry.ServiceRadiusKm != nil {
			radius = *entry.ServiceRadiusKm
		}
	} else if e.geocoder != nil {
		p, err := e.geocoder.Locate(ctx, d.Terminal)
		if err != nil {
			// Missing signal, not an error: geo evidence is optional.
			e.log.Debug("geocode lookup failed", "terminal", d.Terminal, "error", err.Error())
		} else if p != nil {
			locLat, locLng = &p.Lat, &p.Lng
			geocoded = true
		}
	}

	res := match.Geo(trip.EndLat, trip.EndLng, locLat, locLng, radius)
	if geocoded {
		res.Flags = append(res.Flags, models.FlagGeocodedLocation)
	}
	return res
}

func validateParams(p models.RunParams) error {
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return errs.NewValidation("correlator.validateParams", "start and end dates are required", nil)
	}
	if p.EndDate.Before(p.StartDate) {
		return errs.NewValidation("correlator.validateParams",
			fmt.Sprintf("end date %s precedes start date %s",
				p.EndDate.Format("2006-01-02"), p.StartDate.Format("2006-01-02")), nil)
	}
	if p.MinConfidence < 0 || p.MinConfidence > 100 {
		return errs.NewValidation("correlator.validateParams",
			fmt.Sprintf("min confidence must be in [0,100], got %d", p.MinConfidence), nil)
	}
	if p.MaxTrips <= 0 {
		return errs.NewValidation("correlator.validateParams",
			fmt.Sprintf("max trips must be > 0, got %d", p.MaxTrips), nil)
	}
	return nil
}

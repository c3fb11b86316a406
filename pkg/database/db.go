package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"trip-delivery-correlation/internal/constants"
	"trip-delivery-correlation/internal/models"
	"trip-delivery-correlation/pkg/config"
	errs "trip-delivery-correlation/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
)

// DB is the MySQL access layer. Reads serve the trip/delivery/alias sources;
// the only write paths are the correlation upsert, the range clear, and run
// summary persistence. The upsert is atomic per (trip_id, delivery_key), so
// concurrent writers on the same key are last-writer-wins, which is safe
// because scoring is deterministic for identical inputs.
type DB struct {
	conn         *sql.DB
	stmts        map[string]*sql.Stmt
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewWithConfig creates a database connection using the configured pool and
// timeout settings.
func NewWithConfig(databaseURL string, cfg *config.Config) (*DB, error) {
	conn, err := sql.Open("mysql", databaseURL)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(cfg.DBMaxOpenConns)
	conn.SetMaxIdleConns(cfg.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Minute)
	conn.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	rt := cfg.DBReadTimeout
	if rt == 0 {
		rt = constants.DBReadTimeoutDefault
	}
	wt := cfg.DBWriteTimeout
	if wt == 0 {
		wt = constants.DBWriteTimeoutDefault
	}

	db := &DB{
		conn:         conn,
		stmts:        make(map[string]*sql.Stmt),
		readTimeout:  rt,
		writeTimeout: wt,
	}

	if err := db.prepareStatements(); err != nil {
		return nil, errs.NewDB("database.NewWithConfig", "failed to prepare statements", err)
	}

	return db, nil
}

// prepareStatements prepares the hot-path statements. The correlation upsert
// updates every scoring field on conflict so re-running a date range is
// idempotent and reflects the latest algorithm version; it deliberately does
// not touch the reviewer-owned `verified` column.
func (db *DB) prepareStatements() error {
	statements := map[string]string{
		"upsertCorrelation": `INSERT INTO trip_delivery_correlations
			(trip_id, delivery_key, confidence, text_score, text_method, geo_score,
			 distance_km, temporal_score, date_diff_days, quality, requires_review,
			 quality_flags, algorithm_version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
			ON DUPLICATE KEY UPDATE
			 confidence = VALUES(confidence),
			 text_score = VALUES(text_score),
			 text_method = VALUES(text_method),
			 geo_score = VALUES(geo_score),
			 distance_km = VALUES(distance_km),
			 temporal_score = VALUES(temporal_score),
			 date_diff_days = VALUES(date_diff_days),
			 quality = VALUES(quality),
			 requires_review = VALUES(requires_review),
			 quality_flags = VALUES(quality_flags),
			 algorithm_version = VALUES(algorithm_version),
			 updated_at = NOW()`,
		"insertRunSummary": `INSERT INTO correlation_runs
			(run_id, start_date, end_date, fleet_filter, min_confidence, max_trips,
			 clear_existing, trips_processed, trips_failed, trips_no_candidates,
			 trips_below_floor, correlations_created, high_confidence, review_needed,
			 avg_confidence, status, outcome, error, started_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	}

	for name, query := range statements {
		stmt, err := db.conn.Prepare(query)
		if err != nil {
			return errs.NewDB("database.prepareStatements", fmt.Sprintf("failed to prepare statement %s", name), err)
		}
		db.stmts[name] = stmt
	}

	return nil
}

// Close closes the connection and prepared statements.
func (db *DB) Close() error {
	for _, stmt := range db.stmts {
		stmt.Close()
	}
	return db.conn.Close()
}

// Conn exposes the raw connection for health checks.
func (db *DB) Conn() *sql.DB { return db.conn }

func (db *DB) withReadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, db.readTimeout)
}

func (db *DB) withWriteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, db.writeTimeout)
}

// GetTripsInRangeCtx returns trips whose computed date lies in [start, end],
// optionally restricted to a fleet, capped at limit rows.
func (db *DB) GetTripsInRangeCtx(ctx context.Context, start, end time.Time, fleet string, limit int) ([]models.Trip, error) {
	query := `SELECT id, external_ref, start_name, end_name, start_lat, start_lng,
		end_lat, end_lng, trip_date, fleet_id, distance_km
		FROM trips
		WHERE trip_date >= ? AND trip_date <= ?`
	args := []interface{}{start, end}
	if fleet != "" {
		query += ` AND fleet_id = ?`
		args = append(args, fleet)
	}
	query += ` ORDER BY trip_date, id LIMIT ?`
	args = append(args, limit)

	cctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(cctx, query, args...)
	if err != nil {
		return nil, errs.NewDB("database.GetTripsInRangeCtx", "query failed", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, errs.NewDB("database.GetTripsInRangeCtx", "scan failed", err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// GetTripByIDCtx returns one trip or a NotFoundError.
func (db *DB) GetTripByIDCtx(ctx context.Context, tripID int64) (*models.Trip, error) {
	query := `SELECT id, external_ref, start_name, end_name, start_lat, start_lng,
		end_lat, end_lng, trip_date, fleet_id, distance_km
		FROM trips WHERE id = ?`

	cctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(cctx, query, tripID)
	t, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return nil, errs.NewNotFound("database.GetTripByIDCtx", "trip", fmt.Sprintf("%d", tripID))
	}
	if err != nil {
		return nil, errs.NewDB("database.GetTripByIDCtx", "scan failed", err)
	}
	return &t, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrip(r rowScanner) (models.Trip, error) {
	var t models.Trip
	var startName, endName sql.NullString
	var startLat, startLng, endLat, endLng sql.NullFloat64
	err := r.Scan(&t.ID, &t.ExternalRef, &startName, &endName,
		&startLat, &startLng, &endLat, &endLng,
		&t.TripDate, &t.FleetID, &t.DistanceKm)
	if err != nil {
		return t, err
	}
	if startName.Valid {
		t.StartName = &startName.String
	}
	if endName.Valid {
		t.EndName = &endName.String
	}
	if startLat.Valid && startLng.Valid {
		t.StartLat, t.StartLng = &startLat.Float64, &startLng.Float64
	}
	if endLat.Valid && endLng.Valid {
		t.EndLat, t.EndLng = &endLat.Float64, &endLng.Float64
	}
	return t, nil
}

// GetCandidateDeliveriesCtx aggregates raw payment line items into delivery
// records keyed by (bill-of-lading, date, customer), restricted to the
// tolerance window around the trip date and, when non-empty, to a carrier.
// This mirrors the upstream aggregation view definition.
func (db *DB) GetCandidateDeliveriesCtx(ctx context.Context, date time.Time, toleranceDays int, carrier string) ([]models.Delivery, error) {
	from := date.AddDate(0, 0, -toleranceDays)
	to := date.AddDate(0, 0, toleranceDays)

	query := `SELECT bol_number, customer_name, terminal_name, carrier,
		delivery_date, SUM(volume) AS total_volume,
		GROUP_CONCAT(DISTINCT product ORDER BY product SEPARATOR ',') AS products
		FROM payment_records
		WHERE delivery_date >= ? AND delivery_date <= ?`
	args := []interface{}{from, to}
	if carrier != "" {
		query += ` AND carrier = ?`
		args = append(args, carrier)
	}
	query += ` GROUP BY bol_number, customer_name, terminal_name, carrier, delivery_date
		ORDER BY delivery_date, bol_number`

	cctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(cctx, query, args...)
	if err != nil {
		return nil, errs.NewDB("database.GetCandidateDeliveriesCtx", "query failed", err)
	}
	defer rows.Close()

	var deliveries []models.Delivery
	for rows.Next() {
		var d models.Delivery
		var products sql.NullString
		if err := rows.Scan(&d.BOLNumber, &d.Customer, &d.Terminal, &d.Carrier,
			&d.DeliveryDate, &d.TotalVolume, &products); err != nil {
			return nil, errs.NewDB("database.GetCandidateDeliveriesCtx", "scan failed", err)
		}
		if products.Valid && products.String != "" {
			d.Products = strings.Split(products.String, ",")
		}
		d.Key = models.DeliveryKey(d.BOLNumber, d.DeliveryDate, d.Customer)
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// GetLocationAliasesCtx loads the full curated alias table. The alias list is
// stored as a JSON array column.
func (db *DB) GetLocationAliasesCtx(ctx context.Context) ([]models.LocationAlias, error) {
	query := `SELECT canonical_name, type, organization, aliases, lat, lng, service_radius_km
		FROM location_aliases ORDER BY canonical_name`

	cctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(cctx, query)
	if err != nil {
		return nil, errs.NewDB("database.GetLocationAliasesCtx", "query failed", err)
	}
	defer rows.Close()

	var entries []models.LocationAlias
	for rows.Next() {
		var a models.LocationAlias
		var org, aliasesJSON sql.NullString
		var lat, lng, radius sql.NullFloat64
		if err := rows.Scan(&a.CanonicalName, &a.Type, &org, &aliasesJSON, &lat, &lng, &radius); err != nil {
			return nil, errs.NewDB("database.GetLocationAliasesCtx", "scan failed", err)
		}
		if org.Valid {
			a.Organization = org.String
		}
		if aliasesJSON.Valid && aliasesJSON.String != "" {
			if err := json.Unmarshal([]byte(aliasesJSON.String), &a.Aliases); err != nil {
				return nil, errs.NewDB("database.GetLocationAliasesCtx",
					fmt.Sprintf("bad aliases JSON for %s", a.CanonicalName), err)
			}
		}
		if lat.Valid && lng.Valid {
			a.Lat, a.Lng = &lat.Float64, &lng.Float64
		}
		if radius.Valid {
			a.ServiceRadiusKm = &radius.Float64
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

// UpsertCorrelationCtx persists one scored (trip, delivery) pairing.
func (db *DB) UpsertCorrelationCtx(ctx context.Context, c *models.Correlation) error {
	flags, err := json.Marshal(c.QualityFlags)
	if err != nil {
		return errs.NewDB("database.UpsertCorrelationCtx", "marshal quality flags", err)
	}

	var distance interface{}
	if c.DistanceKm != nil {
		distance = *c.DistanceKm
	}

	cctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	_, err = db.stmts["upsertCorrelation"].ExecContext(cctx,
		c.TripID, c.DeliveryKey, c.Confidence, c.TextScore, c.TextMethod,
		c.GeoScore, distance, c.TemporalScore, c.DateDiffDays, c.Quality,
		c.RequiresReview, string(flags), c.AlgorithmVersion)
	if err != nil {
		return errs.NewDB("database.UpsertCorrelationCtx",
			fmt.Sprintf("upsert failed for trip %d delivery %s", c.TripID, c.DeliveryKey), err)
	}
	return nil
}

// DeleteCorrelationsInRangeCtx removes correlations for trips dated in
// [start, end] (optionally one fleet) ahead of a clear-existing rerun.
// Reviewer-verified rows are kept: verification is terminal.
func (db *DB) DeleteCorrelationsInRangeCtx(ctx context.Context, start, end time.Time, fleet string) (int64, error) {
	query := `DELETE c FROM trip_delivery_correlations c
		JOIN trips t ON t.id = c.trip_id
		WHERE t.trip_date >= ? AND t.trip_date <= ? AND c.verified = 0`
	args := []interface{}{start, end}
	if fleet != "" {
		query += ` AND t.fleet_id = ?`
		args = append(args, fleet)
	}

	cctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(cctx, query, args...)
	if err != nil {
		return 0, errs.NewDB("database.DeleteCorrelationsInRangeCtx", "delete failed", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SaveRunSummaryCtx persists the run record so operators can tell apart the
// zero-correlation situations after the fact.
func (db *DB) SaveRunSummaryCtx(ctx context.Context, s *models.RunSummary) error {
	cctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	_, err := db.stmts["insertRunSummary"].ExecContext(cctx,
		s.RunID, s.Params.StartDate, s.Params.EndDate, s.Params.FleetFilter,
		s.Params.MinConfidence, s.Params.MaxTrips, s.Params.ClearExisting,
		s.TripsProcessed, s.TripsFailed, s.TripsNoCandidates, s.TripsBelowFloor,
		s.CorrelationsCreated, s.HighConfidence, s.ReviewNeeded, s.AvgConfidence,
		s.Status, s.Outcome, s.Error, s.StartedAt, s.CompletedAt)
	if err != nil {
		return errs.NewDB("database.SaveRunSummaryCtx", fmt.Sprintf("insert failed for run %s", s.RunID), err)
	}
	return nil
}

// GetLatestRunSummaryCtx returns the most recent run record, or nil when no
// run has been persisted yet.
func (db *DB) GetLatestRunSummaryCtx(ctx context.Context) (*models.RunSummary, error) {
	query := `SELECT run_id, start_date, end_date, fleet_filter, min_confidence,
		max_trips, clear_existing, trips_processed, trips_failed,
		trips_no_candidates, trips_below_floor, correlations_created,
		high_confidence, review_needed, avg_confidence, status, outcome, error,
		started_at, completed_at
		FROM correlation_runs ORDER BY started_at DESC LIMIT 1`

	cctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	var s models.RunSummary
	var errText sql.NullString
	err := db.conn.QueryRowContext(cctx, query).Scan(
		&s.RunID, &s.Params.StartDate, &s.Params.EndDate, &s.Params.FleetFilter,
		&s.Params.MinConfidence, &s.Params.MaxTrips, &s.Params.ClearExisting,
		&s.TripsProcessed, &s.TripsFailed, &s.TripsNoCandidates, &s.TripsBelowFloor,
		&s.CorrelationsCreated, &s.HighConfidence, &s.ReviewNeeded, &s.AvgConfidence,
		&s.Status, &s.Outcome, &errText, &s.StartedAt, &s.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDB("database.GetLatestRunSummaryCtx", "scan failed", err)
	}
	if errText.Valid {
		s.Error = errText.String
	}
	s.Duration = s.CompletedAt.Sub(s.StartedAt)
	return &s, nil
}

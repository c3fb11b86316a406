package repository

import (
	"context"
	"time"

	"trip-delivery-correlation/internal/domain"
	"trip-delivery-correlation/internal/models"
	"trip-delivery-correlation/pkg/database"
)

// SQLRepository is a thin adapter over pkg/database.DB to satisfy the domain
// repositories. It keeps the matching logic decoupled from the SQL layer.
type SQLRepository struct {
	db *database.DB
}

func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Ensure interface compliance at compile time
var _ domain.Repository = (*SQLRepository)(nil)

func (r *SQLRepository) GetTripsInRangeCtx(ctx context.Context, start, end time.Time, fleet string, limit int) ([]models.Trip, error) {
	return r.db.GetTripsInRangeCtx(ctx, start, end, fleet, limit)
}

func (r *SQLRepository) GetTripByIDCtx(ctx context.Context, tripID int64) (*models.Trip, error) {
	return r.db.GetTripByIDCtx(ctx, tripID)
}

func (r *SQLRepository) GetCandidateDeliveriesCtx(ctx context.Context, date time.Time, toleranceDays int, carrier string) ([]models.Delivery, error) {
	return r.db.GetCandidateDeliveriesCtx(ctx, date, toleranceDays, carrier)
}

func (r *SQLRepository) GetLocationAliasesCtx(ctx context.Context) ([]models.LocationAlias, error) {
	return r.db.GetLocationAliasesCtx(ctx)
}

func (r *SQLRepository) UpsertCorrelationCtx(ctx context.Context, c *models.Correlation) error {
	return r.db.UpsertCorrelationCtx(ctx, c)
}

func (r *SQLRepository) DeleteCorrelationsInRangeCtx(ctx context.Context, start, end time.Time, fleet string) (int64, error) {
	return r.db.DeleteCorrelationsInRangeCtx(ctx, start, end, fleet)
}

func (r *SQLRepository) SaveRunSummaryCtx(ctx context.Context, s *models.RunSummary) error {
	return r.db.SaveRunSummaryCtx(ctx, s)
}

func (r *SQLRepository) GetLatestRunSummaryCtx(ctx context.Context) (*models.RunSummary, error) {
	return r.db.GetLatestRunSummaryCtx(ctx)
}

package domain

import (
	"context"
	"time"

	"trip-delivery-correlation/internal/models"
)

// TripRepository defines read access to the GPS trip source.
type TripRepository interface {
	GetTripsInRangeCtx(ctx context.Context, start, end time.Time, fleet string, limit int) ([]models.Trip, error)
	GetTripByIDCtx(ctx context.Context, tripID int64) (*models.Trip, error)
}

// DeliveryRepository defines read access to the aggregated delivery view.
// Candidate selection happens here: callers get only deliveries within the
// tolerance window of a date, filtered by carrier when one is given.
type DeliveryRepository interface {
	GetCandidateDeliveriesCtx(ctx context.Context, date time.Time, toleranceDays int, carrier string) ([]models.Delivery, error)
}

// AliasRepository defines read access to the curated location alias table.
type AliasRepository interface {
	GetLocationAliasesCtx(ctx context.Context) ([]models.LocationAlias, error)
}

// CorrelationRepository is the engine's only mutable surface. Upsert must be
// atomic per (trip ID, delivery key).
type CorrelationRepository interface {
	UpsertCorrelationCtx(ctx context.Context, c *models.Correlation) error
	DeleteCorrelationsInRangeCtx(ctx context.Context, start, end time.Time, fleet string) (int64, error)
}

// RunRepository persists run summaries for operational audit.
type RunRepository interface {
	SaveRunSummaryCtx(ctx context.Context, s *models.RunSummary) error
	GetLatestRunSummaryCtx(ctx context.Context) (*models.RunSummary, error)
}

// Repository aggregates everything the batch orchestrator needs.
type Repository interface {
	TripRepository
	DeliveryRepository
	AliasRepository
	CorrelationRepository
	RunRepository
}

// Package decision combines the three sub-scores into one confidence value,
// derives the quality label and decides whether a correlation needs manual
// review before it is trusted.
package decision

import (
	"fmt"
	"math"

	"trip-delivery-correlation/internal/alias"
	"trip-delivery-correlation/internal/match"
	"trip-delivery-correlation/internal/models"
	errs "trip-delivery-correlation/pkg/errors"
)

// Quality labels, best to worst. The label is a deterministic, monotonic
// and exhaustive function of the confidence value.
const (
	QualityVeryHigh = "very_high"
	QualityHigh     = "high"
	QualityMedium   = "medium"
	QualityLow      = "low"
)

// BonusScorer is an optional extra scorer composed into the aggregator, e.g.
// a preferred-customer bonus. It must be deterministic; the returned points
// are added after the weighted sum, before the 100 cap.
type BonusScorer func(trip models.Trip, delivery models.Delivery) int

// Config holds the aggregation tunables. Weights must sum to 1.0 and label
// boundaries must be strictly monotonic; Validate enforces both once at run
// start so a misconfigured engine never scores anything.
type Config struct {
	TextWeight     float64
	GeoWeight      float64
	TemporalWeight float64

	VeryHighMin int
	HighMin     int
	MediumMin   int

	// MinConfidence is the run's persistence floor; it doubles as the manual
	// review threshold because a tuned floor does not always align with the
	// label boundaries when weights are reconfigured.
	MinConfidence int

	Bonus BonusScorer
}

// DefaultConfig mirrors the production defaults: text weighted highest
// (curated aliases are the strongest evidence), geo lowest (coordinates are
// frequently absent in the trip source).
func DefaultConfig() Config {
	return Config{
		TextWeight:     0.40,
		GeoWeight:      0.25,
		TemporalWeight: 0.35,
		VeryHighMin:    90,
		HighMin:        80,
		MediumMin:      70,
		MinConfidence:  60,
	}
}

// Validate checks the invariants the aggregator depends on.
func (c Config) Validate() error {
	sum := c.TextWeight + c.GeoWeight + c.TemporalWeight
	if math.Abs(sum-1.0) > 0.001 {
		return errs.NewValidation("decision.Config.Validate",
			fmt.Sprintf("weights must sum to 1.0, got %.3f", sum), nil)
	}
	if !(c.VeryHighMin > c.HighMin && c.HighMin > c.MediumMin && c.MediumMin > 0 && c.VeryHighMin <= 100) {
		return errs.NewValidation("decision.Config.Validate",
			fmt.Sprintf("label boundaries must satisfy 0 < medium < high < very_high <= 100, got %d/%d/%d",
				c.MediumMin, c.HighMin, c.VeryHighMin), nil)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return errs.NewValidation("decision.Config.Validate",
			fmt.Sprintf("min confidence must be in [0,100], got %d", c.MinConfidence), nil)
	}
	return nil
}

// Outcome is the aggregated result for one (trip, delivery) pairing.
type Outcome struct {
	Confidence     int
	Quality        string
	RequiresReview bool
	QualityFlags   []string
}

// Aggregator combines sub-scores. Stateless apart from config; safe to share
// across workers.
type Aggregator struct {
	cfg Config
}

func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate computes the weighted overall confidence, applies the optional
// bonus scorer, caps at 100 and derives label and review flag. Quality flags
// from the three matchers are carried through so the row explains itself.
func (a *Aggregator) Aggregate(trip models.Trip, delivery models.Delivery,
	text match.TextResult, geo match.GeoResult, temporal match.TemporalResult) Outcome {

	weighted := a.cfg.TextWeight*float64(text.Score) +
		a.cfg.GeoWeight*float64(geo.Score) +
		a.cfg.TemporalWeight*float64(temporal.Score)

	confidence := int(math.Round(weighted))
	if a.cfg.Bonus != nil {
		confidence += a.cfg.Bonus(trip, delivery)
	}
	if confidence > 100 {
		confidence = 100
	}
	if confidence < 0 {
		confidence = 0
	}

	var flags []string
	flags = append(flags, text.Flags...)
	flags = append(flags, geo.Flags...)
	if temporal.DayDiff > 0 {
		flags = append(flags, models.FlagDateGap)
	}

	quality := a.QualityLabel(confidence)

	return Outcome{
		Confidence:     confidence,
		Quality:        quality,
		RequiresReview: confidence < a.cfg.MinConfidence || quality == QualityLow,
		QualityFlags:   flags,
	}
}

// QualityLabel maps a confidence value to its categorical bucket. Total and
// monotonic: every value in [0,100] lands in exactly one label and a higher
// confidence never yields a worse label.
func (a *Aggregator) QualityLabel(confidence int) string {
	switch {
	case confidence >= a.cfg.VeryHighMin:
		return QualityVeryHigh
	case confidence >= a.cfg.HighMin:
		return QualityHigh
	case confidence >= a.cfg.MediumMin:
		return QualityMedium
	default:
		return QualityLow
	}
}

// PreferredCustomerBonus returns a BonusScorer granting fixed points when the
// delivery's customer is on the preferred list (normalized comparison).
// Deterministic, so reruns stay idempotent.
func PreferredCustomerBonus(customers []string, points int) BonusScorer {
	if len(customers) == 0 || points <= 0 {
		return nil
	}
	set := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		set[alias.Normalize(c)] = struct{}{}
	}
	return func(_ models.Trip, d models.Delivery) int {
		if _, ok := set[alias.Normalize(d.Customer)]; ok {
			return points
		}
		return 0
	}
}

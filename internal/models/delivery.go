package models

import (
	"fmt"
	"time"
)

// Delivery is one billing record for a fuel drop, aggregated upstream from
// payment line items that share a bill-of-lading, date and customer.
// Immutable to the engine.
type Delivery struct {
	Key          string // composite key, see DeliveryKey
	BOLNumber    string
	Customer     string
	Terminal     string
	Carrier      string
	DeliveryDate time.Time
	TotalVolume  float64
	Products     []string
}

// DeliveryKey builds the composite identity used to link payment line items
// to a single delivery. The same derivation is used by the upstream
// aggregation view, so recomputing it here must stay in sync with it.
func DeliveryKey(bolNumber string, date time.Time, customer string) string {
	return fmt.Sprintf("%s|%s|%s", bolNumber, date.Format("2006-01-02"), customer)
}

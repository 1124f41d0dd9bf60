package domain

import "time"

// PriceFactors are the dimensionless multipliers applied to a base price.
type PriceFactors struct {
	Demand       float64 `json:"demand_factor"`
	Time         float64 `json:"time_factor"`
	Availability float64 `json:"seat_availability_factor"`
}

func (f PriceFactors) Combined() float64 {
	return f.Demand * f.Time * f.Availability
}

type PriceQuote struct {
	FlightID          int64        `json:"flight_id"`
	SeatClass         SeatClass    `json:"seat_class"`
	BasePriceCents    int64        `json:"base_price_cents"`
	CurrentPriceCents int64        `json:"current_price_cents"`
	Factors           PriceFactors `json:"factors"`
	CalculatedAt      time.Time    `json:"calculated_at"`
}

// PriceHistoryEntry is the append-only audit row written for every quote.
type PriceHistoryEntry struct {
	ID           int64        `json:"id,omitempty" bson:"-"`
	FlightID     int64        `json:"flight_id" bson:"flight_id"`
	SeatClass    SeatClass    `json:"seat_class" bson:"seat_class"`
	PriceCents   int64        `json:"price_cents" bson:"price_cents"`
	Factors      PriceFactors `json:"factors" bson:"factors"`
	CalculatedAt time.Time    `json:"calculated_at" bson:"calculated_at"`
}

func (q PriceQuote) HistoryEntry() PriceHistoryEntry {
	return PriceHistoryEntry{
		FlightID:     q.FlightID,
		SeatClass:    q.SeatClass,
		PriceCents:   q.CurrentPriceCents,
		Factors:      q.Factors,
		CalculatedAt: q.CalculatedAt,
	}
}

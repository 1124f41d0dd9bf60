package domain

import "time"

const (
	EventBookingCreated   = "booking_created"
	EventBookingCancelled = "booking_cancelled"
)

// BookingEvent is published after a booking transaction commits.
type BookingEvent struct {
	EventID          string        `json:"event_id"`
	Type             string        `json:"type"`
	PNR              string        `json:"pnr"`
	BookingReference string        `json:"booking_reference"`
	FlightID         int64         `json:"flight_id"`
	FlightNumber     string        `json:"flight_number,omitempty"`
	SeatClass        SeatClass     `json:"seat_class"`
	SeatNumber       string        `json:"seat_number,omitempty"`
	PassengerName    string        `json:"passenger_name"`
	Email            string        `json:"email"`
	PricePaidCents   int64         `json:"price_paid_cents"`
	Status           BookingStatus `json:"status"`
	OccurredAt       time.Time     `json:"occurred_at"`
}

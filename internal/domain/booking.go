package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled},
}

// CanTransitionTo reports whether moving from s to next is a legal booking transition.
// Cancelled and completed are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

type Passenger struct {
	Name  string `json:"passenger_name"`
	Email string `json:"passenger_email"`
	Phone string `json:"passenger_phone"`
}

type Booking struct {
	ID               int64         `json:"id"`
	PNR              string        `json:"pnr"`
	BookingReference string        `json:"booking_reference"`
	FlightID         int64         `json:"flight_id"`
	Passenger        Passenger     `json:"passenger"`
	SeatClass        SeatClass     `json:"seat_class"`
	SeatNumber       string        `json:"seat_number,omitempty"`
	PricePaidCents   int64         `json:"price_paid_cents"`
	Status           BookingStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// BookingConfirmation is what callers receive for a booking: the record plus its flight.
type BookingConfirmation struct {
	Booking
	Flight *Flight `json:"flight_details,omitempty"`
}

// BookingStats summarises the booking book for the admin dashboard.
type BookingStats struct {
	TotalFlights       int     `json:"total_flights"`
	TotalBookings      int     `json:"total_bookings"`
	ConfirmedBookings  int     `json:"confirmed_bookings"`
	CancelledBookings  int     `json:"cancelled_bookings"`
	BookingSuccessRate float64 `json:"booking_success_rate"`
}

// NewBookingStats derives the dashboard figures from per-status booking counts.
// The success rate is the confirmed share in percent, 0 when there are no bookings.
func NewBookingStats(totalFlights int, byStatus map[BookingStatus]int) BookingStats {
	stats := BookingStats{
		TotalFlights:      totalFlights,
		ConfirmedBookings: byStatus[BookingStatusConfirmed],
		CancelledBookings: byStatus[BookingStatusCancelled],
	}
	for _, n := range byStatus {
		stats.TotalBookings += n
	}
	if stats.TotalBookings > 0 {
		stats.BookingSuccessRate = float64(stats.ConfirmedBookings) / float64(stats.TotalBookings) * 100
	}
	return stats
}

package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeatClass(t *testing.T) {
	tests := []struct {
		raw     string
		want    SeatClass
		wantErr bool
	}{
		{"economy", SeatClassEconomy, false},
		{"Premium-Economy", SeatClassPremiumEconomy, false},
		{" premium_economy ", SeatClassPremiumEconomy, false},
		{"BUSINESS", SeatClassBusiness, false},
		{"first", SeatClassFirst, false},
		{"", "", true},
		{"cargo", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseSeatClass(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeatClassInventory_Consistent(t *testing.T) {
	tests := []struct {
		name string
		inv  SeatClassInventory
		want bool
	}{
		{"fresh", SeatClassInventory{TotalSeats: 10, AvailableSeats: 10}, true},
		{"partly booked", SeatClassInventory{TotalSeats: 10, AvailableSeats: 3, BookedSeats: 7}, true},
		{"sold out", SeatClassInventory{TotalSeats: 10, BookedSeats: 10}, true},
		{"empty class", SeatClassInventory{}, true},
		{"lost seat", SeatClassInventory{TotalSeats: 10, AvailableSeats: 3, BookedSeats: 6}, false},
		{"negative available", SeatClassInventory{TotalSeats: 10, AvailableSeats: -1, BookedSeats: 11}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.inv.Consistent())
		})
	}
}

func TestSeatClassInventory_AvailabilityRatio(t *testing.T) {
	assert.Equal(t, 0.25, SeatClassInventory{TotalSeats: 8, AvailableSeats: 2, BookedSeats: 6}.AvailabilityRatio())
	assert.Equal(t, 1.0, SeatClassInventory{}.AvailabilityRatio())
}

func TestBookingStatus_Transitions(t *testing.T) {
	assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusConfirmed))
	assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusCancelled))
	assert.True(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusCancelled))

	assert.False(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusPending))
	assert.False(t, BookingStatusCancelled.CanTransitionTo(BookingStatusConfirmed))
	assert.False(t, BookingStatusCompleted.CanTransitionTo(BookingStatusCancelled))

	assert.True(t, BookingStatusCancelled.Terminal())
	assert.True(t, BookingStatusCompleted.Terminal())
	assert.False(t, BookingStatusConfirmed.Terminal())
}

func TestFlightStatus_Bookable(t *testing.T) {
	for _, s := range []FlightStatus{FlightStatusScheduled, FlightStatusOnTime, FlightStatusDelayed} {
		assert.True(t, s.Bookable(), s)
	}
	for _, s := range []FlightStatus{FlightStatusCancelled, FlightStatusDeparted, FlightStatusArrived} {
		assert.False(t, s.Bookable(), s)
	}
}

func TestPriceQuote_HistoryEntry(t *testing.T) {
	at := time.Date(2026, 11, 10, 12, 0, 0, 0, time.UTC)
	quote := PriceQuote{
		FlightID:          3,
		SeatClass:         SeatClassBusiness,
		BasePriceCents:    1125000,
		CurrentPriceCents: 1053000,
		Factors:           PriceFactors{Demand: 1.2, Time: 1.5, Availability: 1.3},
		CalculatedAt:      at,
	}

	entry := quote.HistoryEntry()

	assert.Equal(t, int64(3), entry.FlightID)
	assert.Equal(t, SeatClassBusiness, entry.SeatClass)
	assert.Equal(t, int64(1053000), entry.PriceCents)
	assert.Equal(t, at, entry.CalculatedAt)
	assert.InDelta(t, 2.34, entry.Factors.Combined(), 1e-9)
}

func TestFlightSearch_Matches(t *testing.T) {
	search := FlightSearch{From: "SVO", To: "AER", Date: time.Date(2026, 12, 15, 18, 30, 0, 0, time.UTC), Page: 2, PageSize: 10}
	start, end := search.Window()
	assert.Equal(t, time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 12, 16, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, 10, search.Offset())

	base := Flight{FromAirport: "SVO", ToAirport: "AER", DepartureTime: start, Status: FlightStatusScheduled}
	assert.True(t, search.Matches(base))

	onTime := base
	onTime.Status = FlightStatusOnTime
	onTime.DepartureTime = end.Add(-time.Minute)
	assert.True(t, search.Matches(onTime))

	delayed := base
	delayed.Status = FlightStatusDelayed
	assert.False(t, search.Matches(delayed))

	nextDay := base
	nextDay.DepartureTime = end
	assert.False(t, search.Matches(nextDay))

	reversed := base
	reversed.FromAirport, reversed.ToAirport = "AER", "SVO"
	assert.False(t, search.Matches(reversed))
}

func TestNewBookingStats(t *testing.T) {
	stats := NewBookingStats(3, map[BookingStatus]int{
		BookingStatusConfirmed: 3,
		BookingStatusCancelled: 1,
	})
	assert.Equal(t, BookingStats{
		TotalFlights:       3,
		TotalBookings:      4,
		ConfirmedBookings:  3,
		CancelledBookings:  1,
		BookingSuccessRate: 75,
	}, stats)

	empty := NewBookingStats(2, nil)
	assert.Equal(t, 2, empty.TotalFlights)
	assert.Zero(t, empty.TotalBookings)
	assert.Zero(t, empty.BookingSuccessRate)
}

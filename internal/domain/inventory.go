package domain

import (
	"fmt"
	"strings"
	"time"
)

type SeatClass string

const (
	SeatClassEconomy        SeatClass = "economy"
	SeatClassPremiumEconomy SeatClass = "premium_economy"
	SeatClassBusiness       SeatClass = "business"
	SeatClassFirst          SeatClass = "first"
)

// SeatClasses lists every cabin tier in ascending fare order.
var SeatClasses = []SeatClass{
	SeatClassEconomy,
	SeatClassPremiumEconomy,
	SeatClassBusiness,
	SeatClassFirst,
}

// ParseSeatClass accepts the canonical names and the hyphenated "premium-economy" spelling.
func ParseSeatClass(raw string) (SeatClass, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	class := SeatClass(normalized)
	if !class.Valid() {
		return "", fmt.Errorf("%w: unknown seat class %q", ErrInvalidArgument, raw)
	}
	return class, nil
}

func (c SeatClass) Valid() bool {
	switch c {
	case SeatClassEconomy, SeatClassPremiumEconomy, SeatClassBusiness, SeatClassFirst:
		return true
	default:
		return false
	}
}

// SeatClassInventory holds the counters for one (flight, seat class) pair.
// Available + Booked always equals Total and neither counter goes negative.
type SeatClassInventory struct {
	FlightID       int64     `json:"flight_id"`
	SeatClass      SeatClass `json:"seat_class"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	BookedSeats    int       `json:"booked_seats"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Consistent reports whether the counters satisfy the conservation and non-negativity rules.
func (i SeatClassInventory) Consistent() bool {
	return i.AvailableSeats >= 0 &&
		i.BookedSeats >= 0 &&
		i.AvailableSeats+i.BookedSeats == i.TotalSeats
}

// AvailabilityRatio is available/total, or 1 when the class has no seats at all.
func (i SeatClassInventory) AvailabilityRatio() float64 {
	if i.TotalSeats <= 0 {
		return 1
	}
	return float64(i.AvailableSeats) / float64(i.TotalSeats)
}

package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "scheduled"
	FlightStatusOnTime    FlightStatus = "on_time"
	FlightStatusDelayed   FlightStatus = "delayed"
	FlightStatusCancelled FlightStatus = "cancelled"
	FlightStatusDeparted  FlightStatus = "departed"
	FlightStatusArrived   FlightStatus = "arrived"
)

// Bookable reports whether new reservations may be taken against a flight in this status.
func (s FlightStatus) Bookable() bool {
	switch s {
	case FlightStatusCancelled, FlightStatusDeparted, FlightStatusArrived:
		return false
	default:
		return true
	}
}

type Flight struct {
	ID             int64        `json:"id"`
	FlightNumber   string       `json:"flight_number"`
	FromAirport    string       `json:"from_airport"`
	ToAirport      string       `json:"to_airport"`
	DepartureTime  time.Time    `json:"departure_time"`
	ArrivalTime    time.Time    `json:"arrival_time"`
	TotalSeats     int          `json:"total_seats"`
	AvailableSeats int          `json:"available_seats"`
	BaseFareCents  int64        `json:"base_fare_cents"`
	Status         FlightStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Searchable reports whether a flight in this status shows up in schedule search.
func (s FlightStatus) Searchable() bool {
	return s == FlightStatusScheduled || s == FlightStatusOnTime
}

// FlightSearch selects searchable flights on one route departing on Date's UTC
// calendar day. Page is 1-based.
type FlightSearch struct {
	From     string
	To       string
	Date     time.Time
	Page     int
	PageSize int
}

// Window returns the [start, end) departure range covered by the search date.
func (q FlightSearch) Window() (time.Time, time.Time) {
	d := q.Date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func (q FlightSearch) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Matches reports whether f satisfies every filter of the search.
func (q FlightSearch) Matches(f Flight) bool {
	start, end := q.Window()
	return f.FromAirport == q.From &&
		f.ToAirport == q.To &&
		f.Status.Searchable() &&
		!f.DepartureTime.Before(start) &&
		f.DepartureTime.Before(end)
}

type FlightPage struct {
	Flights    []Flight `json:"flights"`
	TotalCount int      `json:"total_count"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
}

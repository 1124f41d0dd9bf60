package main

import (
	"context"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/repository"
)

// seedDemoFlights fills an empty in-memory store so the API is usable without Postgres.
func seedDemoFlights(ctx context.Context, store *repository.MemoryStore) error {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	demo := []struct {
		number, from, to string
		departIn         time.Duration
		duration         time.Duration
		fare             int64
		seats            map[domain.SeatClass]int
	}{
		{"SU1124", "SVO", "LED", 3*24*time.Hour + 8*time.Hour, 90 * time.Minute, 450000,
			map[domain.SeatClass]int{domain.SeatClassEconomy: 120, domain.SeatClassBusiness: 16}},
		{"SU2580", "SVO", "AER", 14*24*time.Hour + 18*time.Hour, 2*time.Hour + 20*time.Minute, 780000,
			map[domain.SeatClass]int{domain.SeatClassEconomy: 150, domain.SeatClassPremiumEconomy: 24, domain.SeatClassBusiness: 20}},
		{"SU0100", "SVO", "JFK", 45*24*time.Hour + 13*time.Hour, 10 * time.Hour, 5200000,
			map[domain.SeatClass]int{domain.SeatClassEconomy: 180, domain.SeatClassPremiumEconomy: 40, domain.SeatClassBusiness: 30, domain.SeatClassFirst: 8}},
	}

	for _, d := range demo {
		departure := day.Add(d.departIn)
		flight := &domain.Flight{
			FlightNumber:  d.number,
			FromAirport:   d.from,
			ToAirport:     d.to,
			DepartureTime: departure,
			ArrivalTime:   departure.Add(d.duration),
			BaseFareCents: d.fare,
		}
		if err := store.CreateFlight(ctx, flight, d.seats); err != nil {
			return err
		}
	}
	return nil
}

package pricing

import (
	"math"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/randsrc"
)

// DefaultDemandFluctuation bounds the market-noise term to ±30%.
const DefaultDemandFluctuation = 0.3

type FactorCalculator interface {
	Factors(flight *domain.Flight, inv *domain.SeatClassInventory, asOf time.Time) domain.PriceFactors
}

// Calculator derives the three pricing multipliers. Apart from the injected
// random source it has no state, so one instance serves all requests.
type Calculator struct {
	rnd         randsrc.Source
	fluctuation float64
}

func NewCalculator(rnd randsrc.Source, fluctuation float64) *Calculator {
	if fluctuation < 0 {
		fluctuation = DefaultDemandFluctuation
	}
	return &Calculator{rnd: rnd, fluctuation: fluctuation}
}

func (c *Calculator) Factors(flight *domain.Flight, inv *domain.SeatClassInventory, asOf time.Time) domain.PriceFactors {
	return domain.PriceFactors{
		Demand:       DemandFactor(flight.DepartureTime, c.noise()),
		Time:         TimeFactor(flight.DepartureTime, asOf),
		Availability: AvailabilityFactor(inv),
	}
}

// noise returns a multiplier drawn uniformly from [1-fluctuation, 1+fluctuation).
func (c *Calculator) noise() float64 {
	if c.rnd == nil || c.fluctuation == 0 {
		return 1
	}
	return 1 + (2*c.rnd.Float64()-1)*c.fluctuation
}

// DemandFactor scores the departure slot by hour of day and day of week, then applies noise.
func DemandFactor(departure time.Time, noise float64) float64 {
	hourFactor := 1.0
	switch h := departure.Hour(); {
	case (h >= 6 && h <= 9) || (h >= 17 && h <= 20):
		hourFactor = 1.2
	case h >= 22 || h <= 5:
		hourFactor = 0.8
	}

	dayFactor := 1.1
	switch departure.Weekday() {
	case time.Tuesday, time.Wednesday, time.Thursday:
		dayFactor = 0.9
	}

	return hourFactor * dayFactor * noise
}

// TimeFactor is a step function of whole days left until departure.
// Partial days are floored, so a departure 30 hours away counts as one day.
func TimeFactor(departure, asOf time.Time) float64 {
	days := math.Floor(departure.Sub(asOf).Hours() / 24)
	switch {
	case days <= 0:
		return 2.0
	case days <= 1:
		return 1.8
	case days <= 7:
		return 1.5
	case days <= 30:
		return 1.2
	default:
		return 1.0
	}
}

// AvailabilityFactor is neutral when the class has no inventory row.
func AvailabilityFactor(inv *domain.SeatClassInventory) float64 {
	if inv == nil {
		return 1.0
	}
	ratio := inv.AvailabilityRatio()
	switch {
	case ratio <= 0.1:
		return 1.5
	case ratio <= 0.25:
		return 1.3
	case ratio <= 0.5:
		return 1.1
	default:
		return 1.0
	}
}

var _ FactorCalculator = (*Calculator)(nil)

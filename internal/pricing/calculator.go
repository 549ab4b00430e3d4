// Package pricing computes the authoritative total price for a booking from
// a tour, a selected travel date, an optional hotel room, and a traveler
// count. All computation degrades to safe defaults: bad inputs clamp to zero
// instead of failing the booking.
package pricing

import (
	"math"

	"github.com/xtclovver/tourgate/internal/models"
	"github.com/xtclovver/tourgate/pkg/dates"
)

// priceEpsilon bounds float comparison when detecting stored-price variance
const priceEpsilon = 0.005

// Breakdown is the result of a price computation
type Breakdown struct {
	TourCost float64 `json:"tour_cost"`
	RoomCost float64 `json:"room_cost"`
	Nights   int     `json:"nights"`
	Total    float64 `json:"total"`
}

// VarianceKind classifies a stored total against a fresh recomputation
type VarianceKind string

const (
	// VarianceNone means the stored total matches the recomputation
	VarianceNone VarianceKind = "none"

	// VarianceDiscount means the stored total is lower: a discount was
	// applied at booking time and its amount is surfaced as a summary line
	VarianceDiscount VarianceKind = "discount"

	// VariancePriceChanged means the stored total is higher: prices may have
	// changed since booking and the UI must show a disclaimer instead of a
	// silently wrong number
	VariancePriceChanged VarianceKind = "price_changed"
)

// Variance describes the difference between a persisted order total and a
// freshly recomputed one
type Variance struct {
	Kind       VarianceKind `json:"kind"`
	Difference float64      `json:"difference"`
}

// Calculator computes booking prices
type Calculator struct {
	resolver *dates.Resolver
}

// NewCalculator creates a new price calculator
func NewCalculator(resolver *dates.Resolver) *Calculator {
	return &Calculator{resolver: resolver}
}

// Compute calculates the full price breakdown for a booking.
//
// tourCost = basePrice * priceModifier * travelers. The room cost is charged
// per night and per traveler (room occupancy scales with the party size);
// nights come from the travel dates, falling back to the tour's nominal
// duration minus one, floored at one night when a room is selected.
func (c *Calculator) Compute(tour *models.Tour, date *models.TourDate, room *models.Room, travelers int) Breakdown {
	if tour == nil {
		return Breakdown{}
	}

	if travelers < 0 {
		travelers = 0
	}

	basePrice := clampNonNegative(tour.BasePrice)
	tourCost := basePrice * c.modifier(date) * float64(travelers)

	nights := c.nights(tour, date, room != nil)

	var roomCost float64
	if room != nil {
		roomCost = clampNonNegative(room.PricePerNight) * float64(nights) * float64(travelers)
	}

	total := tourCost + roomCost
	if math.IsNaN(total) {
		total = 0
	}

	return Breakdown{
		TourCost: clampNonNegative(tourCost),
		RoomCost: clampNonNegative(roomCost),
		Nights:   nights,
		Total:    clampNonNegative(total),
	}
}

// DatePrice returns the modifier-applied per-person price for a tour date,
// rounded to the nearest unit. Mirrors the price shown next to the date
// selector before a draft exists.
func (c *Calculator) DatePrice(tour *models.Tour, date *models.TourDate) float64 {
	if tour == nil {
		return 0
	}
	return math.Round(clampNonNegative(tour.BasePrice) * c.modifier(date))
}

// CompareStored classifies a persisted order total against a fresh
// recomputation. A lower stored total surfaces the difference as a discount
// applied at booking time; a higher one signals that prices may have changed
// since booking. The asymmetry is deliberate.
func (c *Calculator) CompareStored(storedTotal float64, recomputed Breakdown) Variance {
	if math.IsNaN(storedTotal) {
		storedTotal = 0
	}

	diff := recomputed.Total - storedTotal
	switch {
	case diff > priceEpsilon:
		return Variance{Kind: VarianceDiscount, Difference: diff}
	case diff < -priceEpsilon:
		return Variance{Kind: VariancePriceChanged, Difference: -diff}
	default:
		return Variance{Kind: VarianceNone}
	}
}

// ApproximateNightlyRate estimates a room's nightly rate from an order total
// when the upstream record lacks room pricing. Used only for display.
func (c *Calculator) ApproximateNightlyRate(order *models.Order, tour *models.Tour) float64 {
	if order == nil || tour == nil {
		return 0
	}

	nights := tour.Duration - 1
	if nights < 1 {
		nights = 1
	}

	rate := (order.TotalPrice - clampNonNegative(tour.BasePrice)*float64(order.PeopleCount)) / float64(nights)
	return math.Round(clampNonNegative(rate))
}

// nights resolves the billable night count for a booking
func (c *Calculator) nights(tour *models.Tour, date *models.TourDate, hasRoom bool) int {
	var nights int
	if date != nil {
		nights = c.resolver.Nights(date.StartDate, date.EndDate, tour.Duration)
	} else if tour.Duration > 1 {
		nights = tour.Duration - 1
	}

	if hasRoom && nights < 1 {
		nights = 1
	}

	return nights
}

// modifier returns the seasonality multiplier for a date, treating missing,
// non-positive, and NaN modifiers as neutral
func (c *Calculator) modifier(date *models.TourDate) float64 {
	if date == nil {
		return 1
	}
	if math.IsNaN(date.PriceModifier) || date.PriceModifier <= 0 {
		return 1
	}
	return date.PriceModifier
}

// clampNonNegative maps NaN and negative values to 0
func clampNonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

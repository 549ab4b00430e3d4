package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xtclovver/tourgate/internal/models"
	"github.com/xtclovver/tourgate/pkg/dates"
)

func newTestCalculator() *Calculator {
	return NewCalculator(dates.NewResolver())
}

func TestCompute_TourOnly(t *testing.T) {
	calc := newTestCalculator()

	tour := &models.Tour{BasePrice: 10000, Duration: 5}
	date := &models.TourDate{PriceModifier: 1.2, StartDate: "2026-06-01", EndDate: "2026-06-05"}

	got := calc.Compute(tour, date, nil, 2)
	assert.Equal(t, 24000.0, got.TourCost)
	assert.Equal(t, 0.0, got.RoomCost)
	assert.Equal(t, 24000.0, got.Total)
}

// Room cost is charged per night and per traveler: occupancy scales with the
// party size. This is the uniform rule across wizard and summary views.
func TestCompute_WithRoom(t *testing.T) {
	calc := newTestCalculator()

	tour := &models.Tour{BasePrice: 10000, Duration: 5}
	date := &models.TourDate{PriceModifier: 1.2, StartDate: "2026-06-01", EndDate: "2026-06-05"}
	room := &models.Room{PricePerNight: 3000, Capacity: 4}

	got := calc.Compute(tour, date, room, 2)
	assert.Equal(t, 3, got.Nights)
	assert.Equal(t, 24000.0, got.TourCost)
	assert.Equal(t, 18000.0, got.RoomCost) // 3000 * 3 nights * 2 travelers
	assert.Equal(t, 42000.0, got.Total)
}

func TestCompute_ModifierNeutrality(t *testing.T) {
	calc := newTestCalculator()

	tour := &models.Tour{BasePrice: 12345.67, Duration: 3}
	date := &models.TourDate{PriceModifier: 1, StartDate: "2026-06-01", EndDate: "2026-06-03"}

	for travelers := 1; travelers <= 5; travelers++ {
		got := calc.Compute(tour, date, nil, travelers)
		assert.Equal(t, tour.BasePrice*float64(travelers), got.TourCost)
	}
}

func TestCompute_MonotonicInTravelers(t *testing.T) {
	calc := newTestCalculator()

	tour := &models.Tour{BasePrice: 8000, Duration: 7}
	date := &models.TourDate{PriceModifier: 0.9, StartDate: "2026-06-01", EndDate: "2026-06-08"}
	room := &models.Room{PricePerNight: 2500, Capacity: 10}

	prev := -1.0
	for travelers := 0; travelers <= 8; travelers++ {
		got := calc.Compute(tour, date, room, travelers)
		assert.GreaterOrEqual(t, got.Total, prev, "total must be non-decreasing in traveler count")
		prev = got.Total
	}
}

func TestCompute_NoRoomZeroCost(t *testing.T) {
	calc := newTestCalculator()

	tour := &models.Tour{BasePrice: 5000, Duration: 14}
	got := calc.Compute(tour, &models.TourDate{PriceModifier: 2}, nil, 3)
	assert.Equal(t, 0.0, got.RoomCost)
}

func TestCompute_NaNAndNegativeSafety(t *testing.T) {
	calc := newTestCalculator()

	tests := []struct {
		name      string
		tour      *models.Tour
		date      *models.TourDate
		room      *models.Room
		travelers int
	}{
		{"nan base price", &models.Tour{BasePrice: math.NaN(), Duration: 5}, &models.TourDate{PriceModifier: 1.1}, nil, 2},
		{"negative base price", &models.Tour{BasePrice: -100, Duration: 5}, &models.TourDate{PriceModifier: 1.1}, nil, 2},
		{"nan modifier", &models.Tour{BasePrice: 100, Duration: 5}, &models.TourDate{PriceModifier: math.NaN()}, nil, 2},
		{"negative modifier", &models.Tour{BasePrice: 100, Duration: 5}, &models.TourDate{PriceModifier: -3}, nil, 2},
		{"nan room price", &models.Tour{BasePrice: 100, Duration: 5}, &models.TourDate{PriceModifier: 1}, &models.Room{PricePerNight: math.NaN()}, 2},
		{"negative travelers", &models.Tour{BasePrice: 100, Duration: 5}, &models.TourDate{PriceModifier: 1}, nil, -4},
		{"nil tour", nil, nil, nil, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Compute(tt.tour, tt.date, tt.room, tt.travelers)
			assert.False(t, math.IsNaN(got.Total), "total must never be NaN")
			assert.GreaterOrEqual(t, got.Total, 0.0, "total must never be negative")
		})
	}
}

// An unparseable start/end pair falls back to the tour's nominal duration.
func TestCompute_DateFallback(t *testing.T) {
	calc := newTestCalculator()

	tour := &models.Tour{BasePrice: 10000, Duration: 7}
	date := &models.TourDate{PriceModifier: 1, StartDate: "later", EndDate: "even later"}
	room := &models.Room{PricePerNight: 1000, Capacity: 2}

	got := calc.Compute(tour, date, room, 1)
	assert.Equal(t, tour.Duration-1, got.Nights)
	assert.Equal(t, 6000.0, got.RoomCost)
}

// A room booking is always charged at least one night, even for a day trip.
func TestCompute_MinimumOneNightWithRoom(t *testing.T) {
	calc := newTestCalculator()

	tour := &models.Tour{BasePrice: 2000, Duration: 1}
	date := &models.TourDate{PriceModifier: 1, StartDate: "2026-06-01", EndDate: "2026-06-01"}
	room := &models.Room{PricePerNight: 1500, Capacity: 2}

	got := calc.Compute(tour, date, room, 1)
	assert.Equal(t, 1, got.Nights)
	assert.Equal(t, 1500.0, got.RoomCost)
}

func TestDatePrice(t *testing.T) {
	calc := newTestCalculator()

	tour := &models.Tour{BasePrice: 10000}
	assert.Equal(t, 12000.0, calc.DatePrice(tour, &models.TourDate{PriceModifier: 1.2}))
	assert.Equal(t, 10000.0, calc.DatePrice(tour, nil))
	assert.Equal(t, 10000.0, calc.DatePrice(tour, &models.TourDate{PriceModifier: -1}))
	assert.Equal(t, 0.0, calc.DatePrice(nil, nil))
}

// Stored lower than recomputed is a discount; stored higher is a disclaimer.
// The asymmetry must hold.
func TestCompareStored_Asymmetry(t *testing.T) {
	calc := newTestCalculator()
	recomputed := Breakdown{Total: 42000}

	discount := calc.CompareStored(40000, recomputed)
	assert.Equal(t, VarianceDiscount, discount.Kind)
	assert.InDelta(t, 2000, discount.Difference, priceEpsilon)

	changed := calc.CompareStored(45000, recomputed)
	assert.Equal(t, VariancePriceChanged, changed.Kind)
	assert.InDelta(t, 3000, changed.Difference, priceEpsilon)

	exact := calc.CompareStored(42000, recomputed)
	assert.Equal(t, VarianceNone, exact.Kind)
	assert.Equal(t, 0.0, exact.Difference)
}

func TestApproximateNightlyRate(t *testing.T) {
	calc := newTestCalculator()

	tour := &models.Tour{BasePrice: 10000, Duration: 4}
	order := &models.Order{TotalPrice: 29000, PeopleCount: 2}

	// (29000 - 10000*2) / 3 nights = 3000
	assert.Equal(t, 3000.0, calc.ApproximateNightlyRate(order, tour))

	// Degenerate totals clamp to zero instead of going negative.
	cheap := &models.Order{TotalPrice: 1000, PeopleCount: 2}
	assert.Equal(t, 0.0, calc.ApproximateNightlyRate(cheap, tour))
}

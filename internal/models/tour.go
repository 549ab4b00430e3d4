package models

// Tour represents a bookable tour. Tours are owned by the upstream catalog
// and are immutable once loaded.
type Tour struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	BasePrice   float64 `json:"base_price"`
	Duration    int     `json:"duration"` // nominal length in days
	ImageURL    string  `json:"image_url,omitempty"`
}

// TourDate represents a departure date offered for a tour. The price modifier
// is a seasonality multiplier applied to the tour's base price (1.0 = no change).
type TourDate struct {
	ID            int64   `json:"id"`
	TourID        int64   `json:"tour_id"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Availability  int     `json:"availability"`
	PriceModifier float64 `json:"price_modifier"`
}

// HasAvailability reports whether the date can seat the requested party
func (d *TourDate) HasAvailability(travelers int) bool {
	return d.Availability >= travelers
}

// Room represents an optional hotel room attached to a booking
type Room struct {
	ID            int64   `json:"id"`
	HotelID       int64   `json:"hotel_id,omitempty"`
	Description   string  `json:"description,omitempty"`
	PricePerNight float64 `json:"price_per_night"`
	Capacity      int     `json:"capacity"`
}

// CanAccommodate reports whether the room fits the requested party
func (r *Room) CanAccommodate(travelers int) bool {
	return r.Capacity >= travelers
}

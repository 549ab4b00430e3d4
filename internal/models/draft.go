package models

import "time"

// DraftOrder is an unsaved, locally-held booking in progress. It is created
// when the wizard opens, mutated on every field edit, and destroyed on
// successful submission or navigation away. ComputedTotalPrice is always
// re-derived from the pricing engine, never hand-edited.
type DraftOrder struct {
	ID              string    `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	TourID          int64     `json:"tour_id" db:"tour_id"`
	TourDateID      int64     `json:"tour_date_id" db:"tour_date_id"`
	RoomID          *int64    `json:"room_id,omitempty" db:"room_id"`
	TravelerCount   int       `json:"traveler_count" db:"traveler_count"`
	ContactPhone    string    `json:"contact_phone" db:"contact_phone"`
	Email           string    `json:"email" db:"email"`
	SpecialRequests string    `json:"special_requests,omitempty" db:"special_requests"`
	TermsAccepted   bool      `json:"terms_accepted" db:"terms_accepted"`
	TotalPrice      float64   `json:"total_price" db:"total_price"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ToCreateOrderRequest converts the draft into the upstream creation payload
func (d *DraftOrder) ToCreateOrderRequest() CreateOrderRequest {
	return CreateOrderRequest{
		TourID:          d.TourID,
		TourDateID:      d.TourDateID,
		RoomID:          d.RoomID,
		PeopleCount:     d.TravelerCount,
		TotalPrice:      d.TotalPrice,
		ContactPhone:    d.ContactPhone,
		Email:           d.Email,
		SpecialRequests: d.SpecialRequests,
	}
}

package models

import (
	"errors"
	"time"
)

// OrderStatus represents the lifecycle status of a persisted order.
// Transitions are owned by the upstream order service; the gateway only
// renders the current value and permits cancellation from the early states.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order represents a persisted, server-owned order record
type Order struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id,omitempty"`
	TourID      int64       `json:"tour_id"`
	TourDateID  int64       `json:"tour_date_id"`
	RoomID      *int64      `json:"room_id,omitempty"`
	PeopleCount int         `json:"people_count"`
	TotalPrice  float64     `json:"total_price"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// CanBeCancelled reports whether a cancel action is permitted.
// Cancellation is only reachable from pending or confirmed.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// CreateOrderRequest is the payload sent to the upstream order-creation endpoint
type CreateOrderRequest struct {
	TourID          int64   `json:"tour_id"`
	TourDateID      int64   `json:"tour_date_id"`
	RoomID          *int64  `json:"room_id,omitempty"`
	PeopleCount     int     `json:"people_count"`
	TotalPrice      float64 `json:"total_price"`
	ContactPhone    string  `json:"contact_phone"`
	Email           string  `json:"email"`
	SpecialRequests string  `json:"special_requests,omitempty"`
}

// Validate validates the create order request
func (r *CreateOrderRequest) Validate() error {
	if r.TourID <= 0 {
		return errors.New("tour_id is required")
	}
	if r.TourDateID <= 0 {
		return errors.New("tour_date_id is required")
	}
	if r.PeopleCount < 1 {
		return errors.New("people_count must be at least 1")
	}
	if r.TotalPrice < 0 {
		return errors.New("total_price cannot be negative")
	}
	return nil
}

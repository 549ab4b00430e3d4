package database

import (
	"database/sql"
	"fmt"

	"github.com/xtclovver/tourgate/internal/models"
)

// DraftOrderRepository persists in-progress bookings so an interrupted wizard
// (typically a forced re-login mid-booking) can be resumed with all entered
// data intact
type DraftOrderRepository struct {
	db DB
}

// NewDraftOrderRepository creates a new draft order repository
func NewDraftOrderRepository(db DB) *DraftOrderRepository {
	return &DraftOrderRepository{
		db: db,
	}
}

// Save inserts or overwrites a draft
func (r *DraftOrderRepository) Save(draft *models.DraftOrder) error {
	query := `
		INSERT INTO draft_orders (
			id, user_id, tour_id, tour_date_id, room_id, traveler_count,
			contact_phone, email, special_requests, terms_accepted,
			total_price, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			tour_date_id = EXCLUDED.tour_date_id,
			room_id = EXCLUDED.room_id,
			traveler_count = EXCLUDED.traveler_count,
			contact_phone = EXCLUDED.contact_phone,
			email = EXCLUDED.email,
			special_requests = EXCLUDED.special_requests,
			terms_accepted = EXCLUDED.terms_accepted,
			total_price = EXCLUDED.total_price,
			updated_at = NOW()
	`

	_, err := r.db.Exec(
		query,
		draft.ID,
		draft.UserID,
		draft.TourID,
		draft.TourDateID,
		draft.RoomID,
		draft.TravelerCount,
		draft.ContactPhone,
		draft.Email,
		draft.SpecialRequests,
		draft.TermsAccepted,
		draft.TotalPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to save draft order: %w", err)
	}

	return nil
}

// GetByID fetches a draft by id; a missing draft returns (nil, nil)
func (r *DraftOrderRepository) GetByID(id string) (*models.DraftOrder, error) {
	query := `
		SELECT id, user_id, tour_id, tour_date_id, room_id, traveler_count,
		       contact_phone, email, special_requests, terms_accepted,
		       total_price, created_at, updated_at
		FROM draft_orders
		WHERE id = $1
	`

	var draft models.DraftOrder
	err := r.db.Get(&draft, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft order: %w", err)
	}

	return &draft, nil
}

// GetByUser returns the most recently touched draft for a user, if any.
// This is what lets a booking resume after re-authentication.
func (r *DraftOrderRepository) GetByUser(userID int64) (*models.DraftOrder, error) {
	query := `
		SELECT id, user_id, tour_id, tour_date_id, room_id, traveler_count,
		       contact_phone, email, special_requests, terms_accepted,
		       total_price, created_at, updated_at
		FROM draft_orders
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var draft models.DraftOrder
	err := r.db.Get(&draft, query, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft order for user: %w", err)
	}

	return &draft, nil
}

// Delete removes a draft (successful submission or navigation away)
func (r *DraftOrderRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM draft_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft order: %w", err)
	}
	return nil
}

// DeleteStale removes drafts untouched for longer than the given interval
func (r *DraftOrderRepository) DeleteStale(olderThanDays int) (int64, error) {
	query := `DELETE FROM draft_orders WHERE updated_at < NOW() - ($1 || ' days')::interval`

	result, err := r.db.Exec(query, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale drafts: %w", err)
	}

	return result.RowsAffected()
}

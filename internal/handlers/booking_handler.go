package handlers

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xtclovver/tourgate/internal/booking"
	"github.com/xtclovver/tourgate/internal/client"
	"github.com/xtclovver/tourgate/internal/database"
	"github.com/xtclovver/tourgate/internal/models"
	"github.com/xtclovver/tourgate/internal/pricing"
	"github.com/xtclovver/tourgate/internal/session"
	"github.com/xtclovver/tourgate/pkg/validator"
)

// BookingHandler drives the booking wizard over HTTP. Each open booking holds
// a wizard keyed by draft id; the draft itself is written through to the
// database so an interrupted booking survives a restart or re-login.
type BookingHandler struct {
	api       *client.Client
	calc      *pricing.Calculator
	contacts  *validator.ContactValidator
	submitter *booking.Submitter
	drafts    *database.DraftOrderRepository
	boot      *session.Initializer
	logger    *logrus.Logger

	mu      sync.Mutex
	wizards map[string]*booking.Wizard
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(
	api *client.Client,
	calc *pricing.Calculator,
	contacts *validator.ContactValidator,
	submitter *booking.Submitter,
	drafts *database.DraftOrderRepository,
	boot *session.Initializer,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		api:       api,
		calc:      calc,
		contacts:  contacts,
		submitter: submitter,
		drafts:    drafts,
		boot:      boot,
		logger:    logger,
		wizards:   map[string]*booking.Wizard{},
	}
}

// OpenBookingRequest starts a new booking for a tour
type OpenBookingRequest struct {
	TourID        int64  `json:"tour_id" binding:"required"`
	TourDateID    int64  `json:"tour_date_id" binding:"required"`
	RoomID        *int64 `json:"room_id"`
	TravelerCount int    `json:"traveler_count"`
}

// UpdateBookingRequest carries partial field edits for an open booking
type UpdateBookingRequest struct {
	TravelerCount   *int    `json:"traveler_count"`
	TourDateID      *int64  `json:"tour_date_id"`
	RoomID          *int64  `json:"room_id"`
	DetachRoom      bool    `json:"detach_room"`
	ContactPhone    *string `json:"contact_phone"`
	Email           *string `json:"email"`
	SpecialRequests *string `json:"special_requests"`
	TermsAccepted   *bool   `json:"terms_accepted"`
}

// BookingResponse is the wizard snapshot returned by every booking endpoint
type BookingResponse struct {
	ID          string             `json:"id"`
	State       booking.State      `json:"state"`
	Draft       *models.DraftOrder `json:"draft,omitempty"`
	Breakdown   pricing.Breakdown  `json:"breakdown"`
	FieldErrors map[string]string  `json:"field_errors,omitempty"`
	Order       *models.Order      `json:"order,omitempty"`
}

// Open handles POST /api/bookings
func (h *BookingHandler) Open(c *gin.Context) {
	var req OpenBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	tour, err := h.api.GetTour(c.Request.Context(), req.TourID)
	if err != nil {
		writeError(c, err)
		return
	}

	date, err := h.findTourDate(c, req.TourID, req.TourDateID)
	if err != nil {
		writeError(c, err)
		return
	}

	var room *models.Room
	if req.RoomID != nil {
		room, err = h.api.GetRoom(c.Request.Context(), *req.RoomID)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	travelers := req.TravelerCount
	if travelers < 1 {
		travelers = 1
	}

	draft := &models.DraftOrder{
		ID:            uuid.New().String(),
		UserID:        h.currentUserID(),
		TourID:        req.TourID,
		TourDateID:    req.TourDateID,
		RoomID:        req.RoomID,
		TravelerCount: travelers,
	}

	w := h.openWizard(draft, tour, date, room)
	h.persistDraft(w)

	c.JSON(http.StatusCreated, h.snapshot(draft.ID, w))
}

// Get handles GET /api/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	id := c.Param("id")
	w, ok := h.wizard(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "booking not found"})
		return
	}
	c.JSON(http.StatusOK, h.snapshot(id, w))
}

// Update handles PATCH /api/bookings/:id
func (h *BookingHandler) Update(c *gin.Context) {
	id := c.Param("id")
	w, ok := h.wizard(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "booking not found"})
		return
	}

	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	if err := h.applyEdits(c, w, req); err != nil {
		writeError(c, err)
		return
	}

	h.persistDraft(w)
	c.JSON(http.StatusOK, h.snapshot(id, w))
}

// Review handles POST /api/bookings/:id/review
func (h *BookingHandler) Review(c *gin.Context) {
	id := c.Param("id")
	w, ok := h.wizard(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "booking not found"})
		return
	}

	if err := w.Review(); err != nil {
		if err == booking.ErrValidationFailed {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
				Fields:  w.FieldErrors(),
			})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.snapshot(id, w))
}

// Back handles POST /api/bookings/:id/back
func (h *BookingHandler) Back(c *gin.Context) {
	id := c.Param("id")
	w, ok := h.wizard(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "booking not found"})
		return
	}

	if err := w.Back(); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.snapshot(id, w))
}

// Submit handles POST /api/bookings/:id/submit
func (h *BookingHandler) Submit(c *gin.Context) {
	id := c.Param("id")
	w, ok := h.wizard(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "booking not found"})
		return
	}

	order, err := w.Submit(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	h.mu.Lock()
	delete(h.wizards, id)
	h.mu.Unlock()

	c.JSON(http.StatusCreated, BookingResponse{
		ID:        id,
		State:     booking.StateSucceeded,
		Breakdown: w.Breakdown(),
		Order:     order,
	})
}

// Abandon handles DELETE /api/bookings/:id
func (h *BookingHandler) Abandon(c *gin.Context) {
	id := c.Param("id")
	w, ok := h.wizard(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "booking not found"})
		return
	}

	w.Teardown()

	h.mu.Lock()
	delete(h.wizards, id)
	h.mu.Unlock()

	if err := h.drafts.Delete(id); err != nil {
		h.logger.WithError(err).WithField("draft_id", id).Warn("failed to delete abandoned draft")
	}

	c.Status(http.StatusNoContent)
}

// Resume handles POST /api/bookings/resume: it reloads the current user's
// latest persisted draft and rebuilds the wizard around it, so a booking
// interrupted by a forced re-login picks up with all entered data intact.
func (h *BookingHandler) Resume(c *gin.Context) {
	userID := h.currentUserID()
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "no active session"})
		return
	}

	draft, err := h.drafts.GetByUser(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if draft == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "no draft to resume"})
		return
	}

	if w, ok := h.wizard(draft.ID); ok {
		c.JSON(http.StatusOK, h.snapshot(draft.ID, w))
		return
	}

	tour, err := h.api.GetTour(c.Request.Context(), draft.TourID)
	if err != nil {
		writeError(c, err)
		return
	}

	date, err := h.findTourDate(c, draft.TourID, draft.TourDateID)
	if err != nil {
		writeError(c, err)
		return
	}

	var room *models.Room
	if draft.RoomID != nil {
		room, err = h.api.GetRoom(c.Request.Context(), *draft.RoomID)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	w := h.openWizard(draft, tour, date, room)

	h.logger.WithFields(logrus.Fields{
		"draft_id": draft.ID,
		"user_id":  userID,
	}).Info("booking resumed from persisted draft")

	c.JSON(http.StatusOK, h.snapshot(draft.ID, w))
}

// Quote handles GET /api/quote: a stateless price breakdown for the given
// tour, date, room and party size, without opening a booking.
func (h *BookingHandler) Quote(c *gin.Context) {
	tourID, err := strconv.ParseInt(c.Query("tour_id"), 10, 64)
	if err != nil || tourID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "tour_id is required"})
		return
	}

	travelers, _ := strconv.Atoi(c.DefaultQuery("travelers", "1"))

	tour, err := h.api.GetTour(c.Request.Context(), tourID)
	if err != nil {
		writeError(c, err)
		return
	}

	var date *models.TourDate
	if raw := c.Query("tour_date_id"); raw != "" {
		dateID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "tour_date_id must be numeric"})
			return
		}
		date, err = h.findTourDate(c, tourID, dateID)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	var room *models.Room
	if raw := c.Query("room_id"); raw != "" {
		roomID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "room_id must be numeric"})
			return
		}
		room, err = h.api.GetRoom(c.Request.Context(), roomID)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	breakdown := h.calc.Compute(tour, date, room, travelers)

	c.JSON(http.StatusOK, gin.H{
		"breakdown":  breakdown,
		"date_price": h.calc.DatePrice(tour, date),
	})
}

// openWizard builds a wizard over a draft and registers it. The success hook
// removes the persisted draft: once the order exists the draft must not be
// resumable.
func (h *BookingHandler) openWizard(draft *models.DraftOrder, tour *models.Tour, date *models.TourDate, room *models.Room) *booking.Wizard {
	draftID := draft.ID
	w := booking.NewWizard(booking.Deps{
		Calculator: h.calc,
		Contacts:   h.contacts,
		Submitter:  h.submitter,
		Logger:     h.logger,
		OnSuccess: func(order *models.Order) {
			if err := h.drafts.Delete(draftID); err != nil {
				h.logger.WithError(err).WithField("draft_id", draftID).Warn("failed to delete submitted draft")
			}
			h.logger.WithFields(logrus.Fields{
				"draft_id": draftID,
				"order_id": order.ID,
			}).Info("booking confirmed")
		},
	}, draft, tour, date, room)

	h.mu.Lock()
	h.wizards[draftID] = w
	h.mu.Unlock()

	return w
}

// applyEdits replays the request's partial edits onto the wizard in order,
// refetching dependencies when the date or room selection changes
func (h *BookingHandler) applyEdits(c *gin.Context, w *booking.Wizard, req UpdateBookingRequest) error {
	draft := w.Draft()
	if draft == nil {
		return booking.ErrTornDown
	}

	if req.TravelerCount != nil {
		if err := w.SetTravelerCount(*req.TravelerCount); err != nil {
			return err
		}
	}

	if req.TourDateID != nil {
		date, err := h.findTourDate(c, draft.TourID, *req.TourDateID)
		if err != nil {
			return err
		}
		if err := w.SelectTourDate(date); err != nil {
			return err
		}
	}

	if req.DetachRoom {
		if err := w.SelectRoom(nil); err != nil {
			return err
		}
	} else if req.RoomID != nil {
		room, err := h.api.GetRoom(c.Request.Context(), *req.RoomID)
		if err != nil {
			return err
		}
		if err := w.SelectRoom(room); err != nil {
			return err
		}
	}

	if req.ContactPhone != nil || req.Email != nil {
		phone := draft.ContactPhone
		email := draft.Email
		if req.ContactPhone != nil {
			phone = h.contacts.SanitizePhone(*req.ContactPhone)
		}
		if req.Email != nil {
			email = *req.Email
		}
		if err := w.SetContact(phone, email); err != nil {
			return err
		}
	}

	if req.SpecialRequests != nil {
		if err := w.SetSpecialRequests(*req.SpecialRequests); err != nil {
			return err
		}
	}

	if req.TermsAccepted != nil {
		if err := w.AcceptTerms(*req.TermsAccepted); err != nil {
			return err
		}
	}

	return nil
}

// findTourDate resolves a tour date id against the tour's offered dates
func (h *BookingHandler) findTourDate(c *gin.Context, tourID, dateID int64) (*models.TourDate, error) {
	tourDates, err := h.api.GetTourDates(c.Request.Context(), tourID)
	if err != nil {
		return nil, err
	}

	for i := range tourDates {
		if tourDates[i].ID == dateID {
			return &tourDates[i], nil
		}
	}

	return nil, &client.APIError{Kind: client.KindValidation, Message: "tour date not found"}
}

// persistDraft writes the wizard's draft through to the database
func (h *BookingHandler) persistDraft(w *booking.Wizard) {
	draft := w.Draft()
	if draft == nil {
		return
	}
	if err := h.drafts.Save(draft); err != nil {
		h.logger.WithError(err).WithField("draft_id", draft.ID).Warn("failed to persist draft")
	}
}

// currentUserID returns the bootstrapped session user's id, or 0 when the
// gateway started unauthenticated
func (h *BookingHandler) currentUserID() int64 {
	if user := h.boot.User(); user != nil {
		return user.ID
	}
	return 0
}

func (h *BookingHandler) wizard(id string) (*booking.Wizard, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.wizards[id]
	return w, ok
}

func (h *BookingHandler) snapshot(id string, w *booking.Wizard) BookingResponse {
	return BookingResponse{
		ID:          id,
		State:       w.State(),
		Draft:       w.Draft(),
		Breakdown:   w.Breakdown(),
		FieldErrors: w.FieldErrors(),
		Order:       w.Order(),
	}
}

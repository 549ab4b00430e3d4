package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/xtclovver/tourgate/internal/client"
	"github.com/xtclovver/tourgate/internal/models"
	"github.com/xtclovver/tourgate/internal/pricing"
	"github.com/xtclovver/tourgate/pkg/dates"
)

// OrderHandler renders persisted orders. The stored total is authoritative;
// a fresh recomputation only annotates the view, it never replaces the number
// the user agreed to pay.
type OrderHandler struct {
	api      *client.Client
	calc     *pricing.Calculator
	resolver *dates.Resolver
	logger   *logrus.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(api *client.Client, calc *pricing.Calculator, resolver *dates.Resolver, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		api:      api,
		calc:     calc,
		resolver: resolver,
		logger:   logger,
	}
}

// OrderView is an order enriched for display
type OrderView struct {
	Order          models.Order     `json:"order"`
	Tour           *models.Tour     `json:"tour,omitempty"`
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
	Variance       pricing.Variance `json:"variance"`
	NightlyRate    float64          `json:"nightly_rate,omitempty"`
	CanBeCancelled bool             `json:"can_be_cancelled"`
}

// List handles GET /api/orders
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.api.ListOrders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Get handles GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "order id must be numeric"})
		return
	}

	order, err := h.api.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	view := OrderView{
		Order:          *order,
		StartDate:      dates.UnknownDate,
		EndDate:        dates.UnknownDate,
		Variance:       pricing.Variance{Kind: pricing.VarianceNone},
		CanBeCancelled: order.CanBeCancelled(),
	}

	// Enrichment is best effort: a missing tour or date record degrades the
	// view, it does not fail the request.
	tour, err := h.api.GetTour(c.Request.Context(), order.TourID)
	if err != nil {
		h.logger.WithError(err).WithField("order_id", id).Warn("failed to load tour for order view")
		c.JSON(http.StatusOK, view)
		return
	}
	view.Tour = tour

	var date *models.TourDate
	tourDates, err := h.api.GetTourDates(c.Request.Context(), order.TourID)
	if err == nil {
		for i := range tourDates {
			if tourDates[i].ID == order.TourDateID {
				date = &tourDates[i]
				break
			}
		}
	}

	if date != nil {
		view.StartDate = h.resolver.Display(date.StartDate)
		view.EndDate = h.resolver.Display(date.EndDate)
	}

	var room *models.Room
	if order.RoomID != nil {
		room, err = h.api.GetRoom(c.Request.Context(), *order.RoomID)
		if err != nil {
			h.logger.WithError(err).WithField("order_id", id).Warn("failed to load room for order view")
			room = nil
		}
	}

	recomputed := h.calc.Compute(tour, date, room, order.PeopleCount)
	view.Variance = h.calc.CompareStored(order.TotalPrice, recomputed)

	if order.RoomID != nil && room == nil {
		view.NightlyRate = h.calc.ApproximateNightlyRate(order, tour)
	}

	c.JSON(http.StatusOK, view)
}

// Cancel handles POST /api/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "order id must be numeric"})
		return
	}

	order, err := h.api.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	if !order.CanBeCancelled() {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_state",
			Message: "order can no longer be cancelled",
		})
		return
	}

	if err := h.api.CancelOrder(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"order_id": id,
		"status":   order.Status,
	}).Info("order cancelled")

	c.Status(http.StatusNoContent)
}

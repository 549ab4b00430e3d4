package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtclovver/tourgate/internal/booking"
	"github.com/xtclovver/tourgate/internal/client"
	"github.com/xtclovver/tourgate/internal/database"
	"github.com/xtclovver/tourgate/internal/models"
	"github.com/xtclovver/tourgate/internal/pricing"
	"github.com/xtclovver/tourgate/internal/session"
	"github.com/xtclovver/tourgate/pkg/dates"
	"github.com/xtclovver/tourgate/pkg/validator"
)

type noopRefresher struct{}

func (noopRefresher) Refresh(_ context.Context, _ string) (models.TokenPair, error) {
	return models.TokenPair{}, nil
}

// upstreamFixture serves the catalog and order endpoints the handler needs
func upstreamFixture(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/tours/5", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Tour{ID: 5, Name: "Altai Highlands", BasePrice: 10000, Duration: 5})
	})
	mux.HandleFunc("/tours/5/dates", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.TourDate{
			{ID: 9, TourID: 5, StartDate: "2026-06-01", EndDate: "2026-06-05", Availability: 8, PriceModifier: 1.2},
		})
	})
	mux.HandleFunc("/rooms/7", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Room{ID: 7, PricePerNight: 3000, Capacity: 4})
	})
	mux.HandleFunc("/orders/3", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		json.NewEncoder(w).Encode(models.Order{
			ID: 3, TourID: 5, TourDateID: 9, PeopleCount: 2,
			TotalPrice: 22000, Status: models.OrderStatusPending,
		})
	})
	mux.HandleFunc("/orders/4", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Order{
			ID: 4, TourID: 5, TourDateID: 9, PeopleCount: 2,
			TotalPrice: 24000, Status: models.OrderStatusCompleted,
		})
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Order{
			ID: 77, TourID: req.TourID, TourDateID: req.TourDateID, RoomID: req.RoomID,
			PeopleCount: req.PeopleCount, TotalPrice: req.TotalPrice, Status: models.OrderStatusPending,
		})
	})

	return httptest.NewServer(mux)
}

func setupBookingTest(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, func()) {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	upstream := upstreamFixture(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	drafts := database.NewDraftOrderRepository(&database.PostgresDB{DB: sqlxDB})

	manager := session.NewManager(session.NewMemoryTokenStore(), noopRefresher{}, logger, 0)
	resolver := dates.NewResolver()
	calc := pricing.NewCalculator(resolver)
	contacts := validator.NewContactValidator()

	api := client.New(upstream.URL, upstream.Client(), logger)
	boot := session.NewInitializer(manager, api, logger)
	submitter := booking.NewSubmitter(api, logger)

	bookings := NewBookingHandler(api, calc, contacts, submitter, drafts, boot, logger)
	orders := NewOrderHandler(api, calc, resolver, logger)

	router := gin.New()
	RegisterRoutes(router, bookings, orders)

	cleanup := func() {
		upstream.Close()
		db.Close()
	}

	return router, mock, cleanup
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBooking(t *testing.T, rec *httptest.ResponseRecorder) BookingResponse {
	var resp BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestBookingFlow_OpenToSubmit(t *testing.T) {
	router, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	// One save on open, one per edit batch, one delete after submission.
	mock.ExpectExec("INSERT INTO draft_orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO draft_orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM draft_orders").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", OpenBookingRequest{
		TourID: 5, TourDateID: 9, TravelerCount: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	opened := decodeBooking(t, rec)
	assert.Equal(t, booking.StateEditing, opened.State)
	assert.Equal(t, 24000.0, opened.Breakdown.Total)

	roomID := int64(7)
	phone := "+79991234567"
	email := "user@example.com"
	accepted := true
	rec = doJSON(t, router, http.MethodPatch, "/api/bookings/"+opened.ID, UpdateBookingRequest{
		RoomID: &roomID, ContactPhone: &phone, Email: &email, TermsAccepted: &accepted,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeBooking(t, rec)
	// 24000 tour cost plus 3000 a night for 3 nights and 2 travelers.
	assert.Equal(t, 42000.0, updated.Breakdown.Total)
	assert.Equal(t, 3, updated.Breakdown.Nights)

	rec = doJSON(t, router, http.MethodPost, "/api/bookings/"+opened.ID+"/review", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, booking.StateReviewing, decodeBooking(t, rec).State)

	rec = doJSON(t, router, http.MethodPost, "/api/bookings/"+opened.ID+"/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	submitted := decodeBooking(t, rec)
	require.NotNil(t, submitted.Order)
	assert.EqualValues(t, 77, submitted.Order.ID)
	assert.Equal(t, 42000.0, submitted.Order.TotalPrice)

	// The wizard is gone once the order exists.
	rec = doJSON(t, router, http.MethodGet, "/api/bookings/"+opened.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingReview_ValidationFailure(t *testing.T) {
	router, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO draft_orders").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", OpenBookingRequest{
		TourID: 5, TourDateID: 9, TravelerCount: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	opened := decodeBooking(t, rec)

	// No contact details, terms not accepted.
	rec = doJSON(t, router, http.MethodPost, "/api/bookings/"+opened.ID+"/review", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "contact_phone")
	assert.Contains(t, resp.Fields, "email")
	assert.Contains(t, resp.Fields, "terms_accepted")

	// Still editable.
	rec = doJSON(t, router, http.MethodGet, "/api/bookings/"+opened.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, booking.StateEditing, decodeBooking(t, rec).State)
}

func TestBookingOpen_UnknownDateRejected(t *testing.T) {
	router, _, cleanup := setupBookingTest(t)
	defer cleanup()

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", OpenBookingRequest{
		TourID: 5, TourDateID: 999, TravelerCount: 2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuote(t *testing.T) {
	router, _, cleanup := setupBookingTest(t)
	defer cleanup()

	rec := doJSON(t, router, http.MethodGet, "/api/quote?tour_id=5&tour_date_id=9&room_id=7&travelers=3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Breakdown pricing.Breakdown `json:"breakdown"`
		DatePrice float64           `json:"date_price"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// 10000 * 1.2 * 3 = 36000 tour, 3000 * 3 nights * 3 = 27000 room.
	assert.Equal(t, 63000.0, resp.Breakdown.Total)
	assert.Equal(t, 12000.0, resp.DatePrice)
}

func TestBookingAbandon(t *testing.T) {
	router, mock, cleanup := setupBookingTest(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO draft_orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM draft_orders").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", OpenBookingRequest{
		TourID: 5, TourDateID: 9, TravelerCount: 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	opened := decodeBooking(t, rec)

	rec = doJSON(t, router, http.MethodDelete, "/api/bookings/"+opened.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/bookings/"+opened.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

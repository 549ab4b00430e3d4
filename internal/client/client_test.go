package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtclovver/tourgate/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestGetTour(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tours/5", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(models.Tour{ID: 5, Name: "Altai Highlands", BasePrice: 10000, Duration: 7})
	}))
	defer server.Close()

	c := New(server.URL, server.Client(), quietLogger())

	tour, err := c.GetTour(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Altai Highlands", tour.Name)
	assert.Equal(t, 7, tour.Duration)
}

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req models.CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(5), req.TourID)
		assert.Equal(t, 2, req.PeopleCount)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Order{ID: 77, Status: models.OrderStatusPending, TotalPrice: req.TotalPrice})
	}))
	defer server.Close()

	c := New(server.URL, server.Client(), quietLogger())

	order, err := c.CreateOrder(context.Background(), models.CreateOrderRequest{
		TourID: 5, TourDateID: 9, PeopleCount: 2, TotalPrice: 42000,
		ContactPhone: "+79991234567", Email: "user@example.com",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 77, order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind ErrorKind
	}{
		{"bad request", http.StatusBadRequest, KindValidation},
		{"unprocessable", http.StatusUnprocessableEntity, KindValidation},
		{"not found", http.StatusNotFound, KindValidation},
		{"unauthorized", http.StatusUnauthorized, KindAuth},
		{"forbidden", http.StatusForbidden, KindAuth},
		{"server error", http.StatusInternalServerError, KindNetwork},
		{"bad gateway", http.StatusBadGateway, KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
			}))
			defer server.Close()

			c := New(server.URL, server.Client(), quietLogger())
			_, err := c.GetOrder(context.Background(), 1)
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestTransportFailureIsNetworkKind(t *testing.T) {
	c := New("http://127.0.0.1:0", &http.Client{Timeout: 200 * time.Millisecond}, quietLogger())

	_, err := c.ListOrders(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestCancelOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/orders/9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := New(server.URL, server.Client(), quietLogger())
	assert.NoError(t, c.CancelOrder(context.Background(), 9))
}

func TestAuthClient_Refresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/refresh", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "old-refresh", req["refreshToken"])

		json.NewEncoder(w).Encode(models.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"})
	}))
	defer server.Close()

	auth := NewAuthClient(server.URL, time.Second, quietLogger())

	pair, err := auth.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", pair.AccessToken)
	assert.Equal(t, "new-refresh", pair.RefreshToken)
}

func TestAuthClient_RefreshRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	auth := NewAuthClient(server.URL, time.Second, quietLogger())

	_, err := auth.Refresh(context.Background(), "revoked")
	require.Error(t, err)
	assert.True(t, IsAuth(err))
}

func TestAuthClient_RefreshMissingTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "only-half"})
	}))
	defer server.Close()

	auth := NewAuthClient(server.URL, time.Second, quietLogger())

	_, err := auth.Refresh(context.Background(), "r1")
	require.Error(t, err)
	assert.True(t, IsAuth(err))
}

// Package client implements the typed upstream API contracts consumed by the
// booking core: tour catalog, rooms, orders, and the auth endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/xtclovver/tourgate/internal/models"
)

// Client calls the upstream storefront APIs through the session-aware HTTP
// client, so every request carries a bearer header and participates in the
// refresh-once protocol.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Logger
}

// New creates an upstream API client. httpClient is expected to be the
// session manager's client.
func New(baseURL string, httpClient *http.Client, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

// GetTour fetches a tour by id
func (c *Client) GetTour(ctx context.Context, id int64) (*models.Tour, error) {
	var tour models.Tour
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tours/%d", id), nil, &tour); err != nil {
		return nil, err
	}
	return &tour, nil
}

// GetTourDates fetches the departure dates offered for a tour
func (c *Client) GetTourDates(ctx context.Context, tourID int64) ([]models.TourDate, error) {
	var tourDates []models.TourDate
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tours/%d/dates", tourID), nil, &tourDates); err != nil {
		return nil, err
	}
	return tourDates, nil
}

// GetRoom fetches a hotel room by id
func (c *Client) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/rooms/%d", id), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateOrder submits an order creation request
func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches a persisted order by id
func (c *Client) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%d", id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders fetches the current user's orders
func (c *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CancelOrder cancels an order upstream
func (c *Client) CancelOrder(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/orders/%d", id), nil, nil)
}

// CurrentUser fetches the authenticated user's profile
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// errorResponse is the upstream error envelope
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do builds, sends, and decodes one upstream call, mapping failures onto the
// validation/auth/network taxonomy
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindValidation, Message: fmt.Sprintf("failed to encode request: %v", err)}
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("upstream request failed")
		return &APIError{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{Kind: KindNetwork, StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to decode response: %v", err)}
		}
		return nil
	}

	return c.classify(resp, path)
}

// classify maps a non-2xx response onto the error taxonomy
func (c *Client) classify(resp *http.Response, path string) error {
	var envelope errorResponse
	json.NewDecoder(resp.Body).Decode(&envelope) // best effort; body may be empty

	message := envelope.Message
	if message == "" {
		message = envelope.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: message}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		apiErr.Kind = KindAuth
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		apiErr.Kind = KindValidation
	default:
		apiErr.Kind = KindNetwork
	}

	c.logger.WithFields(logrus.Fields{
		"path":   path,
		"status": resp.StatusCode,
		"kind":   apiErr.Kind,
	}).Warn("upstream returned an error")

	return apiErr
}

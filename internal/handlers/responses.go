// Package handlers exposes the booking core over HTTP: the wizard lifecycle,
// price quotes, and the order views backed by the upstream API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xtclovver/tourgate/internal/booking"
	"github.com/xtclovver/tourgate/internal/client"
)

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeError maps an error from the booking core onto an HTTP response.
// Upstream failures keep their taxonomy: validation problems are the
// caller's fault, auth problems mean the session is gone, everything else
// is a gateway-side failure.
func writeError(c *gin.Context, err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case client.KindValidation:
			status := http.StatusBadRequest
			if apiErr.StatusCode != 0 {
				status = apiErr.StatusCode
			}
			c.JSON(status, ErrorResponse{Error: "validation_error", Message: apiErr.Message})
		case client.KindAuth:
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: apiErr.Message})
		default:
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream_error", Message: apiErr.Message})
		}
		return
	}

	switch {
	case errors.Is(err, booking.ErrInvalidTransition), errors.Is(err, booking.ErrNotEditable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "invalid_state", Message: err.Error()})
	case errors.Is(err, booking.ErrTornDown):
		c.JSON(http.StatusGone, ErrorResponse{Error: "booking_abandoned", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: err.Error()})
	}
}

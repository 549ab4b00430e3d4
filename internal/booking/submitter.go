// Package booking drives the two-step booking wizard from draft to persisted
// order, guarding against duplicate submission.
package booking

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/xtclovver/tourgate/internal/client"
	"github.com/xtclovver/tourgate/internal/models"
)

// OrderAPI is the slice of the upstream client the submitter needs
type OrderAPI interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
}

// Submitter sends a draft order to the upstream order service exactly once
// per explicit user action. It never retries on its own: automatic retry at
// this layer risks duplicate orders, so retry decisions belong to the wizard.
type Submitter struct {
	api    OrderAPI
	logger *logrus.Logger
}

// NewSubmitter creates an order submitter
func NewSubmitter(api OrderAPI, logger *logrus.Logger) *Submitter {
	return &Submitter{
		api:    api,
		logger: logger,
	}
}

// Submit converts the draft to the upstream payload and issues one creation
// call. Failures come back typed (validation / auth / network); the caller
// decides whether the user may retry.
func (s *Submitter) Submit(ctx context.Context, draft *models.DraftOrder) (*models.Order, error) {
	req := draft.ToCreateOrderRequest()
	if err := req.Validate(); err != nil {
		return nil, &client.APIError{Kind: client.KindValidation, Message: err.Error()}
	}

	order, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"draft_id": draft.ID,
			"tour_id":  draft.TourID,
			"kind":     client.KindOf(err),
		}).Warn("order submission failed")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"draft_id": draft.ID,
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("order created")

	return order, nil
}

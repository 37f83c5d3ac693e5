package order

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Service interface {
	GetOrder(ctx context.Context, orderID uint) (*Order, error)
	SetCheckoutStep(ctx context.Context, o *Order, step string) error
}

type service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, log: log}
}

func (s *service) GetOrder(ctx context.Context, orderID uint) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	return o, nil
}

// SetCheckoutStep persists the step the customer is sent to and mirrors it
// on o.
func (s *service) SetCheckoutStep(ctx context.Context, o *Order, step string) error {
	if o.CheckoutStep == step {
		return nil
	}

	if err := s.repo.UpdateCheckoutStep(ctx, o.ID, step); err != nil {
		s.log.Error("Failed to update checkout step",
			zap.Uint("order_id", o.ID),
			zap.String("step", step),
			zap.Error(err),
		)
		return err
	}

	s.log.Debug("Checkout step changed",
		zap.Uint("order_id", o.ID),
		zap.String("from", o.CheckoutStep),
		zap.String("to", step),
	)
	o.CheckoutStep = step
	return nil
}

package checkout

import (
	"context"
	"errors"
	"fmt"

	"maib-checkout/internal/maib"
	"maib-checkout/internal/order"
	"maib-checkout/internal/payment"

	"go.uber.org/zap"
)

// Orders is the order collaborator used by checkout.
type Orders interface {
	GetOrder(ctx context.Context, orderID uint) (*order.Order, error)
	SetCheckoutStep(ctx context.Context, o *order.Order, step string) error
}

// Gateway is the offsite gateway checkout redirects customers to.
type Gateway interface {
	ID() string
	RedirectURL() string
	Register(ctx context.Context, capture bool, req maib.TransactionRequest) (string, error)
	OnReturn(ctx context.Context, p *payment.Payment, clientIP string) error
	OnCancel(ctx context.Context, p *payment.Payment)
}

type Service struct {
	orders   Orders
	payments payment.Service
	gateway  Gateway
	flow     *Flow
	log      *zap.Logger
}

func NewService(orders Orders, payments payment.Service, gateway Gateway, flow *Flow, log *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		payments: payments,
		gateway:  gateway,
		flow:     flow,
		log:      log,
	}
}

func (s *Service) Order(ctx context.Context, orderID uint) (*order.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}

// Resolve finds the payment a bank return refers to and its order.
func (s *Service) Resolve(ctx context.Context, transID string) (*payment.Payment, *order.Order, error) {
	if transID == "" {
		return nil, nil, ErrMissingTransactionID
	}

	p, err := s.payments.FindByRemoteID(ctx, transID)
	if err != nil {
		return nil, nil, err
	}

	o, err := s.orders.GetOrder(ctx, p.OrderID)
	if err != nil {
		return nil, nil, err
	}
	return p, o, nil
}

// Return finishes a customer's return from the hosted payment page. The
// payment is confirmed with the bank before the order moves to the next
// step. The returned URL is where the customer goes next; on failure it is
// the current step.
//
// A repeated return for a payment that already left new moves the order
// only while it is still on the step the transaction was registered from.
func (s *Service) Return(ctx context.Context, p *payment.Payment, o *order.Order) (string, error) {
	log := s.log.With(
		zap.Uint("order_id", o.ID),
		zap.Uint("payment_id", p.ID),
		zap.String("trans_id", p.RemoteID),
	)

	wasNew := p.IsNew()
	if err := s.gateway.OnReturn(ctx, p, o.IPAddress); err != nil {
		log.Error("Payment verification failed", zap.Error(err))
		return s.flow.StepURL(o.ID, o.CheckoutStep), fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	if !wasNew && o.CheckoutStep != p.CheckoutStep {
		log.Info("Payment already confirmed", zap.String("step", o.CheckoutStep))
		return s.flow.StepURL(o.ID, o.CheckoutStep), nil
	}

	next := s.flow.Next(o.CheckoutStep)
	if err := s.orders.SetCheckoutStep(ctx, o, next); err != nil {
		return "", err
	}

	log.Info("Payment confirmed", zap.String("state", string(p.State)), zap.String("step", next))
	return s.flow.StepURL(o.ID, next), nil
}

// Cancel drops the pending payment and sends the customer one step back.
func (s *Service) Cancel(ctx context.Context, p *payment.Payment, o *order.Order) (string, error) {
	if err := s.payments.Void(ctx, p); err != nil {
		if !errors.Is(err, payment.ErrPaymentNotFound) {
			return "", err
		}
	}
	s.gateway.OnCancel(ctx, p)

	s.log.Info("Voided payment",
		zap.Uint("order_id", o.ID),
		zap.Uint("payment_id", p.ID),
		zap.String("trans_id", p.RemoteID),
	)

	prev := s.flow.Previous(o.CheckoutStep)
	if err := s.orders.SetCheckoutStep(ctx, o, prev); err != nil {
		return "", err
	}
	return s.flow.StepURL(o.ID, prev), nil
}

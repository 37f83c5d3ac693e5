package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	StorePending(ctx context.Context, in PendingPayment) (*Payment, error)
	Get(ctx context.Context, id uint) (*Payment, error)
	FindByRemoteID(ctx context.Context, remoteID string) (*Payment, error)
	ListStalled(ctx context.Context, before time.Time, limit int) ([]uint, error)
	MarkChecked(ctx context.Context, id uint) error

	// Apply converges a new payment according to a classified remote
	// result. Payments that already left new are not touched.
	Apply(ctx context.Context, p *Payment, outcome Outcome, remoteState string) (Transition, error)
	Void(ctx context.Context, p *Payment) error
	Transition(ctx context.Context, p *Payment, to State, remoteState string) error
	Intent() Intent
}

type PendingPayment struct {
	OrderID      uint
	GatewayID    string
	RemoteID     string
	Amount       decimal.Decimal
	Currency     string
	CheckoutStep string
}

type service struct {
	repo       Repository
	gatewayIDs []string
	intent     Intent
	log        *zap.Logger
}

func NewService(repo Repository, gatewayIDs []string, intent Intent, log *zap.Logger) Service {
	return &service{
		repo:       repo,
		gatewayIDs: gatewayIDs,
		intent:     intent,
		log:        log,
	}
}

func (s *service) Intent() Intent {
	return s.intent
}

// StorePending records the remote transaction on the order's pending
// payment, creating the payment when the order has none.
func (s *service) StorePending(ctx context.Context, in PendingPayment) (*Payment, error) {
	if in.RemoteID == "" {
		return nil, ErrRemoteIDRequired
	}

	existing, err := s.repo.FindPendingByOrder(ctx, in.OrderID, in.GatewayID)
	switch {
	case err == nil:
		ok, err := s.repo.AttachRemoteID(ctx, existing.ID, in.RemoteID, in.CheckoutStep)
		if err != nil {
			return nil, fmt.Errorf("attach remote id: %w", err)
		}
		if ok {
			existing.RemoteID = in.RemoteID
			existing.CheckoutStep = in.CheckoutStep
			return existing, nil
		}
		// lost the row to a concurrent writer, fall through and create
	case !errors.Is(err, ErrPaymentNotFound):
		return nil, fmt.Errorf("find pending payment: %w", err)
	}

	p := &Payment{
		OrderID:      in.OrderID,
		GatewayID:    in.GatewayID,
		RemoteID:     in.RemoteID,
		Amount:       in.Amount,
		Currency:     in.Currency,
		State:        StateNew,
		CheckoutStep: in.CheckoutStep,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id uint) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) FindByRemoteID(ctx context.Context, remoteID string) (*Payment, error) {
	return s.repo.FindByRemoteID(ctx, remoteID, s.gatewayIDs)
}

func (s *service) ListStalled(ctx context.Context, before time.Time, limit int) ([]uint, error) {
	return s.repo.ListStalled(ctx, s.gatewayIDs, before, limit)
}

func (s *service) MarkChecked(ctx context.Context, id uint) error {
	return s.repo.MarkChecked(ctx, id)
}

func (s *service) Apply(ctx context.Context, p *Payment, outcome Outcome, remoteState string) (Transition, error) {
	if !p.IsNew() {
		return TransitionNone, nil
	}

	switch outcome {
	case OutcomeSuccess:
		to := s.intent.SuccessState()
		ok, err := s.repo.TransitionState(ctx, p.ID, StateNew, to, remoteState)
		if err != nil {
			return TransitionNone, fmt.Errorf("update payment %d: %w", p.ID, err)
		}
		if !ok {
			s.log.Debug("payment already left new state", zap.Uint("payment_id", p.ID))
			return TransitionNone, nil
		}
		p.State = to
		p.RemoteState = remoteState
		return TransitionSucceeded, nil

	case OutcomeFailure:
		ok, err := s.repo.DeleteInState(ctx, p.ID, StateNew)
		if err != nil {
			return TransitionNone, fmt.Errorf("delete payment %d: %w", p.ID, err)
		}
		if !ok {
			s.log.Debug("payment already left new state", zap.Uint("payment_id", p.ID))
			return TransitionNone, nil
		}
		p.State = StateVoided
		return TransitionVoided, nil

	case OutcomePending:
		return TransitionNone, nil
	}

	return TransitionNone, fmt.Errorf("%w: %q", ErrUnknownRemoteStatus, remoteState)
}

// Void deletes the payment regardless of its state.
func (s *service) Void(ctx context.Context, p *Payment) error {
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete payment %d: %w", p.ID, err)
	}
	p.State = StateVoided
	return nil
}

func (s *service) Transition(ctx context.Context, p *Payment, to State, remoteState string) error {
	if !CanTransition(p.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.State, to)
	}

	ok, err := s.repo.TransitionState(ctx, p.ID, p.State, to, remoteState)
	if err != nil {
		return fmt.Errorf("update payment %d: %w", p.ID, err)
	}
	if !ok {
		return fmt.Errorf("%w: payment %d is no longer %s", ErrInvalidTransition, p.ID, p.State)
	}

	p.State = to
	p.RemoteState = remoteState
	return nil
}

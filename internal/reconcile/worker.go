package reconcile

import (
	"context"
	"errors"

	"maib-checkout/internal/maib"
	"maib-checkout/internal/metrics"
	"maib-checkout/internal/order"
	"maib-checkout/internal/payment"

	"go.uber.org/zap"
)

type Orders interface {
	GetOrder(ctx context.Context, orderID uint) (*order.Order, error)
}

// Querier asks the bank for the status of a payment's transaction.
type Querier interface {
	Query(ctx context.Context, p *payment.Payment, clientIP string) (*maib.TransactionResult, payment.Outcome, error)
}

// Worker converges one stalled payment at a time. Errors never escape
// ProcessItem; the payment stays new, is marked checked and goes to the back
// of the stalled queue.
type Worker struct {
	payments payment.Service
	orders   Orders
	gateway  Querier
	stats    *metrics.ReconcileStats
	log      *zap.Logger
}

func NewWorker(payments payment.Service, orders Orders, gateway Querier, stats *metrics.ReconcileStats, log *zap.Logger) *Worker {
	return &Worker{
		payments: payments,
		orders:   orders,
		gateway:  gateway,
		stats:    stats,
		log:      log,
	}
}

func (w *Worker) ProcessItem(ctx context.Context, paymentID uint) {
	w.stats.Processed.Inc()
	log := w.log.With(zap.Uint("payment_id", paymentID))

	p, err := w.payments.Get(ctx, paymentID)
	if errors.Is(err, payment.ErrPaymentNotFound) {
		w.stats.Skipped.Inc()
		return
	}
	if err != nil {
		w.stats.Failed.Inc()
		log.Error("Failed to load stalled payment", zap.Error(err))
		return
	}
	if !p.IsNew() {
		w.stats.Skipped.Inc()
		return
	}

	log = log.With(zap.String("trans_id", p.RemoteID), zap.Uint("order_id", p.OrderID))

	settled := false
	defer func() {
		if !settled {
			w.markChecked(ctx, p.ID, log)
		}
	}()

	o, err := w.orders.GetOrder(ctx, p.OrderID)
	if err != nil {
		w.stats.Failed.Inc()
		log.Error("Failed to load order of stalled payment", zap.Error(err))
		return
	}

	res, outcome, err := w.gateway.Query(ctx, p, o.IPAddress)
	if err != nil {
		w.stats.Failed.Inc()
		log.Error("Failed to query stalled payment", zap.Error(err))
		return
	}

	tr, err := w.payments.Apply(ctx, p, outcome, res.Result)
	switch {
	case errors.Is(err, payment.ErrUnknownRemoteStatus):
		w.stats.Unknown.Inc()
		log.Error("Failed to fetch payment info",
			zap.String("remote_state", res.Result),
			zap.Any("remote_data", res.Fields),
			zap.String("raw", res.Raw),
		)
	case err != nil:
		w.stats.Failed.Inc()
		log.Error("Failed to update stalled payment", zap.Error(err))
	case tr == payment.TransitionSucceeded:
		settled = true
		w.stats.Completed.Inc()
		log.Warn("Completed stalled payment", zap.String("state", string(p.State)))
	case tr == payment.TransitionVoided:
		settled = true
		w.stats.Voided.Inc()
		log.Warn("Voided stalled payment", zap.String("remote_state", res.Result))
	case outcome == payment.OutcomePending:
		w.stats.Pending.Inc()
		log.Debug("Stalled payment still pending", zap.String("remote_state", res.Result))
	default:
		// resolved by a concurrent return or cancel
		settled = true
		w.stats.Skipped.Inc()
	}
}

func (w *Worker) markChecked(ctx context.Context, id uint, log *zap.Logger) {
	if err := w.payments.MarkChecked(ctx, id); err != nil {
		log.Warn("Failed to mark stalled payment checked", zap.Error(err))
	}
}

package checkout

import (
	"context"
	"fmt"

	"maib-checkout/internal/maib"
	"maib-checkout/internal/order"
	"maib-checkout/internal/payment"

	"go.uber.org/zap"
)

// Redirect describes the browser form post that takes the customer to the
// bank's hosted payment page.
type Redirect struct {
	URL    string            `json:"redirect_url"`
	Method string            `json:"method"`
	Fields map[string]string `json:"fields"`
}

// Initiate registers a remote transaction for the order and records it on
// the order's pending payment. No redirect is produced without a
// transaction id.
func (s *Service) Initiate(ctx context.Context, o *order.Order, lang string) (*Redirect, error) {
	log := s.log.With(zap.Uint("order_id", o.ID))

	currency, err := maib.NumericCurrency(o.Currency)
	if err != nil {
		log.Error("Cannot pay order in this currency", zap.String("currency", o.Currency))
		return nil, fmt.Errorf("%w: %w", ErrInitiation, err)
	}

	capture := s.payments.Intent().Capture()
	transID, err := s.gateway.Register(ctx, capture, maib.TransactionRequest{
		Amount:      o.Total,
		Currency:    currency,
		ClientIP:    o.IPAddress,
		Description: o.Description(),
		Language:    lang,
	})
	if err != nil {
		log.Error("Failed to register transaction", zap.Bool("capture", capture), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInitiation, err)
	}

	p, err := s.payments.StorePending(ctx, payment.PendingPayment{
		OrderID:      o.ID,
		GatewayID:    s.gateway.ID(),
		RemoteID:     transID,
		Amount:       o.Total,
		Currency:     o.Currency,
		CheckoutStep: o.CheckoutStep,
	})
	if err != nil {
		// the bank already holds trans_id; nothing references it locally
		log.Error("Failed to store registered transaction", zap.String("trans_id", transID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInitiation, err)
	}

	log.Info("Registered transaction",
		zap.Uint("payment_id", p.ID),
		zap.String("trans_id", transID),
		zap.Bool("capture", capture),
	)

	return &Redirect{
		URL:    s.gateway.RedirectURL(),
		Method: "POST",
		Fields: map[string]string{maib.FieldTransID: transID},
	}, nil
}

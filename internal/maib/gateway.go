package maib

import (
	"context"
	"fmt"

	"maib-checkout/internal/payment"

	"go.uber.org/zap"
)

// Gateway is the offsite MAIB payment gateway: it registers transactions,
// confirms customer returns with the bank and drives post-authorization
// operations.
type Gateway struct {
	id        string
	clientURL string
	client    Client
	payments  payment.Service
	log       *zap.Logger
}

func NewGateway(id, clientURL string, client Client, payments payment.Service, log *zap.Logger) *Gateway {
	return &Gateway{
		id:        id,
		clientURL: clientURL,
		client:    client,
		payments:  payments,
		log:       log.With(zap.String("gateway", id)),
	}
}

func (g *Gateway) ID() string {
	return g.id
}

// RedirectURL is where the customer's browser posts trans_id to reach the
// hosted payment page.
func (g *Gateway) RedirectURL() string {
	return g.clientURL
}

// Register opens a remote transaction: SMS when capture is set, DMS
// authorization otherwise.
func (g *Gateway) Register(ctx context.Context, capture bool, req TransactionRequest) (string, error) {
	if capture {
		return g.client.RegisterCaptureTransaction(ctx, req)
	}
	return g.client.RegisterAuthorizationTransaction(ctx, req)
}

// Query asks the bank for the current status of the payment's transaction.
func (g *Gateway) Query(ctx context.Context, p *payment.Payment, clientIP string) (*TransactionResult, payment.Outcome, error) {
	res, err := g.client.QueryTransactionResult(ctx, p.RemoteID, clientIP)
	if err != nil {
		return nil, payment.OutcomeUnknown, err
	}
	return res, Classify(res.Result), nil
}

// OnReturn confirms with the bank that the customer really paid before the
// payment is marked successful. A return redirect alone proves nothing.
func (g *Gateway) OnReturn(ctx context.Context, p *payment.Payment, clientIP string) error {
	log := g.log.With(
		zap.Uint("payment_id", p.ID),
		zap.Uint("order_id", p.OrderID),
		zap.String("trans_id", p.RemoteID),
	)

	res, outcome, err := g.Query(ctx, p, clientIP)
	if err != nil {
		return fmt.Errorf("verify transaction %s: %w", p.RemoteID, err)
	}
	if outcome != payment.OutcomeSuccess {
		log.Warn("Return without approved transaction", zap.String("remote_state", res.Result))
		return fmt.Errorf("%w: remote result %q", ErrNotApproved, res.Result)
	}

	tr, err := g.payments.Apply(ctx, p, outcome, res.Result)
	if err != nil {
		return err
	}
	if tr == payment.TransitionSucceeded {
		log.Info("Payment confirmed on return", zap.String("state", string(p.State)))
		return nil
	}

	// Already resolved elsewhere, most likely by the reconciler.
	current, err := g.payments.Get(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("reload payment %d: %w", p.ID, err)
	}
	if current.State != g.payments.Intent().SuccessState() {
		return fmt.Errorf("%w: payment %d is %s", payment.ErrInvalidTransition, p.ID, current.State)
	}
	*p = *current
	return nil
}

// OnCancel records the customer's cancellation. An unpaid MAIB transaction
// expires on the bank side, so nothing is sent.
func (g *Gateway) OnCancel(ctx context.Context, p *payment.Payment) {
	g.log.Info("Payment cancelled by customer",
		zap.Uint("payment_id", p.ID),
		zap.Uint("order_id", p.OrderID),
		zap.String("trans_id", p.RemoteID),
	)
}

// CapturePayment completes a DMS authorization for the full amount.
func (g *Gateway) CapturePayment(ctx context.Context, p *payment.Payment, clientIP, description, lang string) error {
	if p.State != payment.StateAuthorization {
		return fmt.Errorf("%w: payment %d is %s", payment.ErrInvalidTransition, p.ID, p.State)
	}

	currency, err := NumericCurrency(p.Currency)
	if err != nil {
		return err
	}

	res, err := g.client.CompleteAuthorization(ctx, p.RemoteID, TransactionRequest{
		Amount:      p.Amount,
		Currency:    currency,
		ClientIP:    clientIP,
		Description: description,
		Language:    lang,
	})
	if err != nil {
		return err
	}
	if res.Result != ResultOK {
		return fmt.Errorf("%w: remote result %q", ErrNotApproved, res.Result)
	}

	if err := g.payments.Transition(ctx, p, payment.StateCompleted, res.Result); err != nil {
		return err
	}

	g.log.Info("Captured authorized payment", zap.Uint("payment_id", p.ID), zap.String("trans_id", p.RemoteID))
	return nil
}

// VoidPayment reverses an authorization that will not be captured.
func (g *Gateway) VoidPayment(ctx context.Context, p *payment.Payment) error {
	if p.State != payment.StateAuthorization {
		return fmt.Errorf("%w: payment %d is %s", payment.ErrInvalidTransition, p.ID, p.State)
	}

	res, err := g.client.ReverseTransaction(ctx, p.RemoteID, p.Amount)
	if err != nil {
		return err
	}
	if res.Result != ResultOK && res.Result != ResultReversed {
		return fmt.Errorf("%w: remote result %q", ErrNotApproved, res.Result)
	}

	if err := g.payments.Transition(ctx, p, payment.StateVoided, res.Result); err != nil {
		return err
	}

	g.log.Info("Voided authorized payment", zap.Uint("payment_id", p.ID), zap.String("trans_id", p.RemoteID))
	return nil
}

// CloseDay closes the merchant's business day on the bank side.
func (g *Gateway) CloseDay(ctx context.Context) error {
	res, err := g.client.CloseDay(ctx)
	if err != nil {
		return err
	}
	if res.Result != ResultOK {
		return fmt.Errorf("%w: close day result %q", ErrNotApproved, res.Result)
	}

	g.log.Info("Business day closed", zap.String("result_code", res.ResultCode))
	return nil
}

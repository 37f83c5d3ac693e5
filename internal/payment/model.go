package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type State string

const (
	StateNew           State = "new"
	StateAuthorization State = "authorization"
	StateCompleted     State = "completed"
	StateVoided        State = "voided"
)

// Payment is one attempted remote transaction for an order.
type Payment struct {
	ID           uint
	OrderID      uint
	GatewayID    string
	RemoteID     string
	Amount       decimal.Decimal
	Currency     string
	State        State
	RemoteState  string
	// CheckoutStep is the order's step when the transaction was registered.
	CheckoutStep string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p *Payment) IsNew() bool {
	return p.State == StateNew
}

// Intent is the merchant's choice between immediate settlement and a
// funds hold that is captured later.
type Intent string

const (
	IntentCapture   Intent = "capture"
	IntentAuthorize Intent = "authorize"
)

func ParseIntent(s string) Intent {
	if Intent(s) == IntentAuthorize {
		return IntentAuthorize
	}
	return IntentCapture
}

// SuccessState is the state a confirmed payment moves to.
func (i Intent) SuccessState() State {
	if i == IntentAuthorize {
		return StateAuthorization
	}
	return StateCompleted
}

// Capture reports whether the remote transaction settles immediately.
func (i Intent) Capture() bool {
	return i != IntentAuthorize
}

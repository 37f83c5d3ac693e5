package checkout

import (
	"net/http"

	"maib-checkout/internal/auth"
	"maib-checkout/internal/order"
	"maib-checkout/internal/session"
)

// Guard decides whether the requester may drive the order's checkout.
type Guard struct {
	sessions *session.Store
}

func NewGuard(sessions *session.Store) *Guard {
	return &Guard{sessions: sessions}
}

// CheckTransactionID is the first check on the bank return and cancel
// endpoints; it runs before the payment is looked up.
func (g *Guard) CheckTransactionID(transID string) error {
	if transID == "" {
		return ErrAccessDenied
	}
	return nil
}

func (g *Guard) CheckOrder(r *http.Request, o *order.Order) error {
	acc, ok := auth.AccountFrom(r.Context())
	if !ok || o == nil {
		return ErrAccessDenied
	}
	if !acc.HasPermission(auth.PermissionAccessCheckout) {
		return ErrAccessDenied
	}
	if o.IsCanceled() || !o.HasItems() {
		return ErrAccessDenied
	}

	if acc.Authenticated {
		if acc.Owns(o.CustomerID) {
			return nil
		}
		return ErrAccessDenied
	}

	if g.sessions.HasCartID(r, o.ID, session.CartActive) ||
		g.sessions.HasCartID(r, o.ID, session.CartCompleted) {
		return nil
	}
	return ErrAccessDenied
}

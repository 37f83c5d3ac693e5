package checkout

import (
	"context"
	"errors"
	"testing"

	"maib-checkout/internal/maib"
	"maib-checkout/internal/order"
	"maib-checkout/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var steps = []string{"login", "order_information", "review", "payment", "complete"}

type fixture struct {
	orders   *MockOrders
	payments *MockPaymentService
	gateway  *MockGateway
	svc      *Service
	logs     *observer.ObservedLogs
}

func newFixture() *fixture {
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		orders:   new(MockOrders),
		payments: new(MockPaymentService),
		gateway:  new(MockGateway),
		logs:     logs,
	}
	f.svc = NewService(f.orders, f.payments, f.gateway, NewFlow("https://shop.test", steps), zap.New(core))
	return f
}

func testOrder() *order.Order {
	return &order.Order{
		ID:           15,
		CustomerID:   7,
		Status:       order.StatusDraft,
		CheckoutStep: "payment",
		IPAddress:    "10.0.0.1",
		Total:        decimal.RequireFromString("150.00"),
		Currency:     "MDL",
		ItemCount:    2,
	}
}

func TestService_Initiate(t *testing.T) {
	ctx := context.Background()

	t.Run("Authorize intent registers DMS transaction", func(t *testing.T) {
		f := newFixture()
		o := testOrder()

		f.payments.On("Intent").Return(payment.IntentAuthorize)
		f.gateway.On("Register", ctx, false, mock.MatchedBy(func(r maib.TransactionRequest) bool {
			return r.Currency == 498 &&
				r.Amount.Equal(decimal.RequireFromString("150.00")) &&
				r.ClientIP == "10.0.0.1" &&
				r.Description == "Order #15" &&
				r.Language == "en"
		})).Return("T123", nil)
		f.payments.On("StorePending", ctx, mock.MatchedBy(func(in payment.PendingPayment) bool {
			return in.OrderID == 15 && in.RemoteID == "T123" && in.GatewayID == "maib" && in.CheckoutStep == "payment"
		})).Return(&payment.Payment{ID: 1, OrderID: 15, RemoteID: "T123", State: payment.StateNew}, nil)

		redirect, err := f.svc.Initiate(ctx, o, "en")
		require.NoError(t, err)
		assert.Equal(t, "https://maib.test/ecomm/ClientHandler", redirect.URL)
		assert.Equal(t, "POST", redirect.Method)
		assert.Equal(t, map[string]string{"trans_id": "T123"}, redirect.Fields)
		assert.Equal(t, 1, f.logs.FilterMessage("Registered transaction").Len())
	})

	t.Run("Capture intent registers SMS transaction", func(t *testing.T) {
		f := newFixture()

		f.payments.On("Intent").Return(payment.IntentCapture)
		f.gateway.On("Register", ctx, true, mock.Anything).Return("S1", nil)
		f.payments.On("StorePending", ctx, mock.Anything).Return(&payment.Payment{ID: 2}, nil)

		_, err := f.svc.Initiate(ctx, testOrder(), "ro")
		require.NoError(t, err)
		f.gateway.AssertExpectations(t)
	})

	t.Run("Gateway error aborts without storing", func(t *testing.T) {
		f := newFixture()

		f.payments.On("Intent").Return(payment.IntentCapture)
		f.gateway.On("Register", ctx, true, mock.Anything).
			Return("", &maib.GatewayError{Op: "register", Message: "wrong amount"})

		redirect, err := f.svc.Initiate(ctx, testOrder(), "ro")
		assert.Nil(t, redirect)
		assert.ErrorIs(t, err, ErrInitiation)
		var gerr *maib.GatewayError
		assert.ErrorAs(t, err, &gerr)
		f.payments.AssertNotCalled(t, "StorePending", mock.Anything, mock.Anything)
	})

	t.Run("Store failure after registration", func(t *testing.T) {
		f := newFixture()

		f.payments.On("Intent").Return(payment.IntentCapture)
		f.gateway.On("Register", ctx, true, mock.Anything).Return("S9", nil)
		f.payments.On("StorePending", ctx, mock.Anything).Return(nil, errors.New("db down"))

		redirect, err := f.svc.Initiate(ctx, testOrder(), "ro")
		assert.Nil(t, redirect)
		assert.ErrorIs(t, err, ErrInitiation)

		entries := f.logs.FilterMessage("Failed to store registered transaction").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "S9", entries[0].ContextMap()["trans_id"])
	})

	t.Run("Missing transaction id aborts", func(t *testing.T) {
		f := newFixture()

		f.payments.On("Intent").Return(payment.IntentCapture)
		f.gateway.On("Register", ctx, true, mock.Anything).Return("", maib.ErrMissingTransactionID)

		_, err := f.svc.Initiate(ctx, testOrder(), "ro")
		assert.ErrorIs(t, err, ErrInitiation)
		assert.ErrorIs(t, err, maib.ErrMissingTransactionID)
	})

	t.Run("Unsupported currency", func(t *testing.T) {
		f := newFixture()
		o := testOrder()
		o.Currency = "XYZ"

		_, err := f.svc.Initiate(ctx, o, "ro")
		assert.ErrorIs(t, err, ErrInitiation)
		f.gateway.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing transaction id", func(t *testing.T) {
		f := newFixture()
		_, _, err := f.svc.Resolve(ctx, "")
		assert.ErrorIs(t, err, ErrMissingTransactionID)
	})

	t.Run("Unknown transaction id", func(t *testing.T) {
		f := newFixture()
		f.payments.On("FindByRemoteID", ctx, "NOPE").Return(nil, payment.ErrPaymentNotFound)

		_, _, err := f.svc.Resolve(ctx, "NOPE")
		assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
	})

	t.Run("Found", func(t *testing.T) {
		f := newFixture()
		p := &payment.Payment{ID: 1, OrderID: 15, RemoteID: "T123"}
		f.payments.On("FindByRemoteID", ctx, "T123").Return(p, nil)
		f.orders.On("GetOrder", ctx, uint(15)).Return(testOrder(), nil)

		gotP, gotO, err := f.svc.Resolve(ctx, "T123")
		require.NoError(t, err)
		assert.Equal(t, p, gotP)
		assert.Equal(t, uint(15), gotO.ID)
	})
}

func TestService_Return(t *testing.T) {
	ctx := context.Background()

	t.Run("Verified payment advances one step", func(t *testing.T) {
		f := newFixture()
		o := testOrder()
		p := &payment.Payment{ID: 1, OrderID: 15, RemoteID: "T123", State: payment.StateNew}

		f.gateway.On("OnReturn", ctx, p, "10.0.0.1").Return(nil)
		f.orders.On("SetCheckoutStep", ctx, o, "complete").Return(nil)

		target, err := f.svc.Return(ctx, p, o)
		require.NoError(t, err)
		assert.Equal(t, "https://shop.test/checkout/15/complete", target)
		assert.Equal(t, "complete", o.CheckoutStep)
	})

	t.Run("Verification failure keeps the step", func(t *testing.T) {
		f := newFixture()
		o := testOrder()
		p := &payment.Payment{ID: 1, OrderID: 15, RemoteID: "T123", State: payment.StateNew}

		f.gateway.On("OnReturn", ctx, p, "10.0.0.1").Return(maib.ErrNotApproved)

		target, err := f.svc.Return(ctx, p, o)
		assert.ErrorIs(t, err, ErrPaymentFailed)
		assert.ErrorIs(t, err, maib.ErrNotApproved)
		assert.Equal(t, "https://shop.test/checkout/15/payment", target)
		assert.Equal(t, "payment", o.CheckoutStep)
		f.orders.AssertNotCalled(t, "SetCheckoutStep", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, 1, f.logs.FilterMessage("Payment verification failed").Len())
	})
}

func TestService_Return_Replay(t *testing.T) {
	ctx := context.Background()

	t.Run("Repeated return does not advance again", func(t *testing.T) {
		f := newFixture()
		o := testOrder()
		o.CheckoutStep = "review"
		p := &payment.Payment{ID: 1, OrderID: 15, RemoteID: "T123", State: payment.StateNew, CheckoutStep: "review"}

		f.gateway.On("OnReturn", ctx, p, "10.0.0.1").Run(func(args mock.Arguments) {
			args.Get(1).(*payment.Payment).State = payment.StateAuthorization
		}).Return(nil)
		f.orders.On("SetCheckoutStep", ctx, o, "payment").Return(nil).Once()

		target, err := f.svc.Return(ctx, p, o)
		require.NoError(t, err)
		assert.Equal(t, "https://shop.test/checkout/15/payment", target)

		for i := 0; i < 2; i++ {
			target, err = f.svc.Return(ctx, p, o)
			require.NoError(t, err)
			assert.Equal(t, "https://shop.test/checkout/15/payment", target)
		}

		assert.Equal(t, "payment", o.CheckoutStep)
		f.orders.AssertNumberOfCalls(t, "SetCheckoutStep", 1)
		assert.Equal(t, 2, f.logs.FilterMessage("Payment already confirmed").Len())
	})

	t.Run("Confirmed by the reconciler still advances once", func(t *testing.T) {
		f := newFixture()
		o := testOrder()
		p := &payment.Payment{ID: 1, OrderID: 15, RemoteID: "T123", State: payment.StateCompleted, CheckoutStep: "payment"}

		f.gateway.On("OnReturn", ctx, p, "10.0.0.1").Return(nil)
		f.orders.On("SetCheckoutStep", ctx, o, "complete").Return(nil)

		target, err := f.svc.Return(ctx, p, o)
		require.NoError(t, err)
		assert.Equal(t, "https://shop.test/checkout/15/complete", target)
		assert.Equal(t, "complete", o.CheckoutStep)
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Deletes payment and steps back", func(t *testing.T) {
		f := newFixture()
		o := testOrder()
		p := &payment.Payment{ID: 1, OrderID: 15, RemoteID: "T123", State: payment.StateNew}

		f.payments.On("Void", ctx, p).Return(nil)
		f.gateway.On("OnCancel", ctx, p).Return()
		f.orders.On("SetCheckoutStep", ctx, o, "review").Return(nil)

		target, err := f.svc.Cancel(ctx, p, o)
		require.NoError(t, err)
		assert.Equal(t, "https://shop.test/checkout/15/review", target)
		assert.Equal(t, 1, f.logs.FilterMessage("Voided payment").Len())
		f.gateway.AssertExpectations(t)
	})

	t.Run("Regardless of remote state", func(t *testing.T) {
		f := newFixture()
		o := testOrder()
		p := &payment.Payment{ID: 1, OrderID: 15, RemoteID: "T123", State: payment.StateAuthorization}

		f.payments.On("Void", ctx, p).Return(nil)
		f.gateway.On("OnCancel", ctx, p).Return()
		f.orders.On("SetCheckoutStep", ctx, o, "review").Return(nil)

		_, err := f.svc.Cancel(ctx, p, o)
		require.NoError(t, err)
		f.payments.AssertExpectations(t)
	})

	t.Run("Storage failure", func(t *testing.T) {
		f := newFixture()
		o := testOrder()
		p := &payment.Payment{ID: 1, OrderID: 15}

		f.payments.On("Void", ctx, p).Return(errors.New("db down"))

		_, err := f.svc.Cancel(ctx, p, o)
		assert.Error(t, err)
		assert.Equal(t, "payment", o.CheckoutStep)
	})
}

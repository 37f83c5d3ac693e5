package checkout

import (
	"context"
	"time"

	"maib-checkout/internal/maib"
	"maib-checkout/internal/order"
	"maib-checkout/internal/payment"

	"github.com/stretchr/testify/mock"
)

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) GetOrder(ctx context.Context, orderID uint) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrders) SetCheckoutStep(ctx context.Context, o *order.Order, step string) error {
	args := m.Called(ctx, o, step)
	if args.Error(0) == nil {
		o.CheckoutStep = step
	}
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ID() string          { return "maib" }
func (m *MockGateway) RedirectURL() string { return "https://maib.test/ecomm/ClientHandler" }

func (m *MockGateway) Register(ctx context.Context, capture bool, req maib.TransactionRequest) (string, error) {
	args := m.Called(ctx, capture, req)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) OnReturn(ctx context.Context, p *payment.Payment, clientIP string) error {
	args := m.Called(ctx, p, clientIP)
	return args.Error(0)
}

func (m *MockGateway) OnCancel(ctx context.Context, p *payment.Payment) {
	m.Called(ctx, p)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) StorePending(ctx context.Context, in payment.PendingPayment) (*payment.Payment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentService) Get(ctx context.Context, id uint) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentService) FindByRemoteID(ctx context.Context, remoteID string) (*payment.Payment, error) {
	args := m.Called(ctx, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentService) ListStalled(ctx context.Context, before time.Time, limit int) ([]uint, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockPaymentService) MarkChecked(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPaymentService) Apply(ctx context.Context, p *payment.Payment, outcome payment.Outcome, remoteState string) (payment.Transition, error) {
	args := m.Called(ctx, p, outcome, remoteState)
	return args.Get(0).(payment.Transition), args.Error(1)
}

func (m *MockPaymentService) Void(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentService) Transition(ctx context.Context, p *payment.Payment, to payment.State, remoteState string) error {
	args := m.Called(ctx, p, to, remoteState)
	return args.Error(0)
}

func (m *MockPaymentService) Intent() payment.Intent {
	args := m.Called()
	return args.Get(0).(payment.Intent)
}

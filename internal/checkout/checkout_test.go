package checkout

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"maib-checkout/internal/maib"
	"maib-checkout/internal/payment"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// bankStub answers merchant handler commands with canned replies.
type bankStub map[string]string

func (b bankStub) RoundTrip(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	form, _ := url.ParseQuery(string(body))
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(b[form.Get("command")])),
		Header:     make(http.Header),
	}, nil
}

var paymentCols = []string{
	"id", "order_id", "payment_gateway", "remote_id", "amount", "currency",
	"state", "remote_state", "checkout_step", "created_at", "updated_at",
}

// Initiation with intent=authorize followed by a verified return leaves the
// payment in authorization.
func TestCheckout_AuthorizeInitiationThenReturn(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	log := zap.NewNop()
	now := time.Now()

	payments := payment.NewService(payment.NewRepository(db), []string{"maib"}, payment.IntentAuthorize, log)
	client := maib.NewClient("https://maib.test/ecomm/MerchantHandler", &http.Client{Transport: bankStub{
		"a": "TRANSACTION_ID: T123\n",
		"c": "RESULT: OK\nRESULT_CODE: 000\n",
	}}, log)
	gw := maib.NewGateway("maib", "https://maib.test/ecomm/ClientHandler", client, payments, log)

	orders := new(MockOrders)
	svc := NewService(orders, payments, gw, NewFlow("https://shop.test", steps), log)
	o := testOrder()

	// initiation
	dbMock.ExpectQuery(`FROM payments\s+WHERE order_id = \$1`).
		WithArgs(15, "maib", "new").
		WillReturnRows(sqlmock.NewRows(paymentCols))
	dbMock.ExpectQuery(`INSERT INTO payments`).
		WithArgs(15, "maib", "T123", sqlmock.AnyArg(), "MDL", "new", "", "payment").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now))

	redirect, err := svc.Initiate(ctx, o, "ro")
	require.NoError(t, err)
	assert.Equal(t, "T123", redirect.Fields[maib.FieldTransID])

	// return
	dbMock.ExpectQuery(`FROM payments\s+WHERE remote_id = \$1`).
		WithArgs("T123", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(1, 15, "maib", "T123", "150.00", "MDL", "new", "", "payment", now, now))
	dbMock.ExpectExec(`UPDATE payments SET state = \$1`).
		WithArgs("authorization", "OK", 1, "new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	orders.On("GetOrder", ctx, uint(15)).Return(o, nil)
	orders.On("SetCheckoutStep", ctx, o, "complete").Return(nil)

	p, resolved, err := svc.Resolve(ctx, "T123")
	require.NoError(t, err)

	target, err := svc.Return(ctx, p, resolved)
	require.NoError(t, err)
	assert.Equal(t, payment.StateAuthorization, p.State)
	assert.Equal(t, "OK", p.RemoteState)
	assert.Equal(t, "https://shop.test/checkout/15/complete", target)
	orders.AssertCalled(t, "SetCheckoutStep", ctx, mock.Anything, "complete")

	// the browser posts the return again
	authorized := sqlmock.NewRows(paymentCols).
		AddRow(1, 15, "maib", "T123", "150.00", "MDL", "authorization", "OK", "payment", now, now)
	dbMock.ExpectQuery(`FROM payments\s+WHERE remote_id = \$1`).
		WithArgs("T123", sqlmock.AnyArg()).
		WillReturnRows(authorized)
	dbMock.ExpectQuery(`FROM payments WHERE id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(1, 15, "maib", "T123", "150.00", "MDL", "authorization", "OK", "payment", now, now))

	p, resolved, err = svc.Resolve(ctx, "T123")
	require.NoError(t, err)

	target, err = svc.Return(ctx, p, resolved)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/checkout/15/complete", target)
	assert.Equal(t, "complete", o.CheckoutStep)
	orders.AssertNumberOfCalls(t, "SetCheckoutStep", 1)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

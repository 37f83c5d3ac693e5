package maib

import (
	"errors"
	"fmt"
)

var (
	ErrMissingTransactionID = errors.New("maib: missing TRANSACTION_ID")
	ErrMissingResult        = errors.New("maib: missing RESULT")
	ErrNotApproved          = errors.New("maib: transaction not approved")
	ErrUnsupportedCurrency  = errors.New("maib: unsupported currency")
)

// GatewayError is an explicit failure reported by the merchant handler,
// either as an "error:" line or a non-200 status.
type GatewayError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("maib %s: http %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("maib %s: %s", e.Op, e.Message)
}

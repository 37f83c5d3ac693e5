package checkout

import "errors"

var (
	ErrMissingTransactionID = errors.New("missing transaction id")
	ErrAccessDenied         = errors.New("access denied")
	ErrPaymentFailed        = errors.New("payment failed at the payment server, please review your information and try again")
	ErrInitiation           = errors.New("could not start the payment, please try again later")
)

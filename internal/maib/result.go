package maib

import "maib-checkout/internal/payment"

// Inbound and outbound field names of the merchant handler protocol.
const (
	FieldTransID       = "trans_id"
	FieldTransactionID = "TRANSACTION_ID"
	FieldResult        = "RESULT"
	FieldResultCode    = "RESULT_CODE"
	FieldError         = "error"
)

// Values of the RESULT field.
const (
	ResultOK           = "OK"
	ResultFailed       = "FAILED"
	ResultCreated      = "CREATED"
	ResultPending      = "PENDING"
	ResultDeclined     = "DECLINED"
	ResultReversed     = "REVERSED"
	ResultAutoReversed = "AUTOREVERSED"
	ResultTimeout      = "TIMEOUT"
)

var outcomes = map[string]payment.Outcome{
	ResultOK:           payment.OutcomeSuccess,
	ResultFailed:       payment.OutcomeFailure,
	ResultDeclined:     payment.OutcomeFailure,
	ResultReversed:     payment.OutcomeFailure,
	ResultAutoReversed: payment.OutcomeFailure,
	ResultTimeout:      payment.OutcomeFailure,
	ResultCreated:      payment.OutcomePending,
	ResultPending:      payment.OutcomePending,
}

// Classify maps a RESULT value onto exactly one outcome. Anything not
// listed, including the empty string, is OutcomeUnknown.
func Classify(result string) payment.Outcome {
	if o, ok := outcomes[result]; ok {
		return o
	}
	return payment.OutcomeUnknown
}

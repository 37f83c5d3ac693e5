package payment

import "errors"

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrRemoteIDRequired    = errors.New("payment remote id is required")
	ErrInvalidTransition   = errors.New("invalid payment state transition")
	ErrUnknownRemoteStatus = errors.New("unknown remote payment status")
)

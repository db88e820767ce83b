package payments

import "errors"

var (
	ErrMissingEvent     = errors.New("payments: event is required")
	ErrMissingPayment   = errors.New("payments: payment is required")
	ErrMissingPaymentID = errors.New("payments: payment id is required")
	ErrAccountNotFound  = errors.New("payments: account not found")
)

package payment

import "errors"

var (
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentExists           = errors.New("appointment already has a payment")
	ErrInvalidStatusTransition = errors.New("invalid payment status transition")
)

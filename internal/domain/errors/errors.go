package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidState       = errors.New("order is not in a state that allows this operation")
	ErrStatusConflict     = errors.New("payment record already settled")
	ErrUnknownStatus      = errors.New("unknown status")
	ErrMissingReference   = errors.New("payment reference is required")
	ErrUnsupportedMethod  = errors.New("unsupported payment method")
	ErrRateUnavailable    = errors.New("exchange rate unavailable")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInvalidOrderIndex  = errors.New("order id cannot be used as a derivation index")
)

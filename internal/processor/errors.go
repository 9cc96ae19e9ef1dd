package processor

import "errors"

// Typed failures returned by the payment processor. Every rejection is
// clean: no balance or journal mutation survives a failed call.
var (
	ErrUnauthorized            = errors.New("unauthorized")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrInvalidRecipient        = errors.New("invalid recipient")
	ErrCurrencyNotSupported    = errors.New("currency not supported")
	ErrCountryNotSupported     = errors.New("country not supported")
	ErrComplianceCheckFailed   = errors.New("compliance check failed")
	ErrExchangeRateUnavailable = errors.New("exchange rate unavailable")
)

package validator

import (
	"errors"
	"fmt"
	"payment_ledger/internal/domain"
	"regexp"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrInvalidCountry   = errors.New("invalid country code")
	ErrInvalidRecipient = errors.New("invalid recipient")
)

// RequestValidator checks the wire format of caller-supplied fields
// before they reach the payment processor. It enforces shape only
// (3-letter currencies, 2-letter countries, positive integer amounts);
// support and compliance checks stay with the engine.
type RequestValidator struct {
	currencyRegex *regexp.Regexp
	countryRegex  *regexp.Regexp
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		currencyRegex: regexp.MustCompile(`^[A-Z]{3}$`),
		countryRegex:  regexp.MustCompile(`^[A-Z]{2}$`),
	}
}

func (v *RequestValidator) ValidateAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	return nil
}

func (v *RequestValidator) ValidateCurrencyCode(code domain.CurrencyCode) error {
	if !v.currencyRegex.MatchString(string(code)) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return nil
}

func (v *RequestValidator) ValidateCountryCode(code domain.CountryCode) error {
	if !v.countryRegex.MatchString(string(code)) {
		return fmt.Errorf("%w: %q", ErrInvalidCountry, code)
	}
	return nil
}

func (v *RequestValidator) ValidatePayment(recipient domain.Account, amount int64, from, to domain.CurrencyCode, senderCountry, recipientCountry domain.CountryCode) error {
	var errs []error

	if recipient == "" {
		errs = append(errs, ErrInvalidRecipient)
	}
	if err := v.ValidateAmount(amount); err != nil {
		errs = append(errs, err)
	}
	if err := v.ValidateCurrencyCode(from); err != nil {
		errs = append(errs, err)
	}
	if err := v.ValidateCurrencyCode(to); err != nil {
		errs = append(errs, err)
	}
	if err := v.ValidateCountryCode(senderCountry); err != nil {
		errs = append(errs, err)
	}
	if err := v.ValidateCountryCode(recipientCountry); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors: %v", errs)
	}

	return nil
}

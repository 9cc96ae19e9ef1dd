package domain

// Account is the opaque caller identity under which balances are held.
// It is supplied by the boundary layer on every call, never invented
// by the engine.
type Account string

type CurrencyCode string
type CountryCode string

// Currency is a registered currency and its decimal precision.
// Balances are stored in the smallest unit, so Decimals only matters
// for presentation and rate arithmetic.
type Currency struct {
	Code     CurrencyCode `json:"code"`
	Decimals int          `json:"decimals"`
}

// FeeDenominator is the fixed denominator of the fee rate: the fee
// rate is expressed in parts per 10,000 of the transferred amount.
const FeeDenominator = 10000

// MaxFeeRate caps the administratively settable fee rate at 10%.
const MaxFeeRate = 1000

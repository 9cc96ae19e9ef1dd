package repository

import (
	"context"
	"errors"
	"payment_ledger/internal/domain"
)

type ConfigRepository interface {
	SetCurrency(ctx context.Context, code domain.CurrencyCode, decimals int) error
	Currency(ctx context.Context, code domain.CurrencyCode) (domain.Currency, error)
	IsCurrencySupported(ctx context.Context, code domain.CurrencyCode) (bool, error)
	SetCountry(ctx context.Context, code domain.CountryCode) error
	IsCountrySupported(ctx context.Context, code domain.CountryCode) (bool, error)
	SetFeeRate(ctx context.Context, rate int64) error
	FeeRate(ctx context.Context) (int64, error)
	SetClock(ctx context.Context, timestamp int64) error
	Clock(ctx context.Context) (int64, error)
}

type RateRepository interface {
	SetRate(ctx context.Context, rate domain.ExchangeRate) error
	Rate(ctx context.Context, from, to domain.CurrencyCode) (domain.ExchangeRate, error)
}

type BalanceRepository interface {
	Balance(ctx context.Context, account domain.Account, currency domain.CurrencyCode) (int64, error)
	Credit(ctx context.Context, account domain.Account, currency domain.CurrencyCode, amount int64) error
	Debit(ctx context.Context, account domain.Account, currency domain.CurrencyCode, amount int64) error
}

type JournalRepository interface {
	Append(ctx context.Context, tx *domain.Transaction) (uint64, error)
	Get(ctx context.Context, id uint64) (*domain.Transaction, error)
	NextID(ctx context.Context) (uint64, error)
}

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

package memory

import (
	"context"
	"fmt"
	"payment_ledger/internal/domain"
	"payment_ledger/internal/repository"
	"sync"
)

type ConfigRepository struct {
	mu         sync.RWMutex
	currencies map[domain.CurrencyCode]domain.Currency
	countries  map[domain.CountryCode]struct{}
	feeRate    int64
	clock      int64
}

func NewConfigRepository() *ConfigRepository {
	return &ConfigRepository{
		currencies: make(map[domain.CurrencyCode]domain.Currency),
		countries:  make(map[domain.CountryCode]struct{}),
	}
}

func (r *ConfigRepository) SetCurrency(ctx context.Context, code domain.CurrencyCode, decimals int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currencies[code] = domain.Currency{Code: code, Decimals: decimals}
	return nil
}

func (r *ConfigRepository) Currency(ctx context.Context, code domain.CurrencyCode) (domain.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	currency, exists := r.currencies[code]
	if !exists {
		return domain.Currency{}, fmt.Errorf("%w: currency %s", repository.ErrNotFound, code)
	}
	return currency, nil
}

func (r *ConfigRepository) IsCurrencySupported(ctx context.Context, code domain.CurrencyCode) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.currencies[code]
	return exists, nil
}

func (r *ConfigRepository) SetCountry(ctx context.Context, code domain.CountryCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.countries[code] = struct{}{}
	return nil
}

func (r *ConfigRepository) IsCountrySupported(ctx context.Context, code domain.CountryCode) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.countries[code]
	return exists, nil
}

func (r *ConfigRepository) SetFeeRate(ctx context.Context, rate int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.feeRate = rate
	return nil
}

func (r *ConfigRepository) FeeRate(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.feeRate, nil
}

func (r *ConfigRepository) SetClock(ctx context.Context, timestamp int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clock = timestamp
	return nil
}

func (r *ConfigRepository) Clock(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clock, nil
}

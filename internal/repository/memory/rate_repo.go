package memory

import (
	"context"
	"fmt"
	"payment_ledger/internal/domain"
	"payment_ledger/internal/repository"
	"sync"
)

type ratePair struct {
	from domain.CurrencyCode
	to   domain.CurrencyCode
}

type RateRepository struct {
	mu    sync.RWMutex
	rates map[ratePair]domain.ExchangeRate
}

func NewRateRepository() *RateRepository {
	return &RateRepository{
		rates: make(map[ratePair]domain.ExchangeRate),
	}
}

func (r *RateRepository) SetRate(ctx context.Context, rate domain.ExchangeRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rates[ratePair{from: rate.From, to: rate.To}] = rate
	return nil
}

func (r *RateRepository) Rate(ctx context.Context, from, to domain.CurrencyCode) (domain.ExchangeRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rate, exists := r.rates[ratePair{from: from, to: to}]
	if !exists {
		return domain.ExchangeRate{}, fmt.Errorf("%w: rate %s/%s", repository.ErrNotFound, from, to)
	}
	return rate, nil
}

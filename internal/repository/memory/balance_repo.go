package memory

import (
	"context"
	"fmt"
	"payment_ledger/internal/domain"
	"payment_ledger/internal/repository"
	"sync"
)

type balanceKey struct {
	account  domain.Account
	currency domain.CurrencyCode
}

type BalanceRepository struct {
	mu       sync.RWMutex
	balances map[balanceKey]int64
}

func NewBalanceRepository() *BalanceRepository {
	return &BalanceRepository{
		balances: make(map[balanceKey]int64),
	}
}

// Balance returns 0 for a pair that has never been credited; absence
// is not an error.
func (r *BalanceRepository) Balance(ctx context.Context, account domain.Account, currency domain.CurrencyCode) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[balanceKey{account: account, currency: currency}], nil
}

func (r *BalanceRepository) Credit(ctx context.Context, account domain.Account, currency domain.CurrencyCode, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.balances[balanceKey{account: account, currency: currency}] += amount
	return nil
}

// Debit refuses to drive a balance negative. Callers check sufficiency
// before mutating anything, so hitting ErrInsufficientFunds here means
// a caller bug, not a user-facing condition.
func (r *BalanceRepository) Debit(ctx context.Context, account domain.Account, currency domain.CurrencyCode, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := balanceKey{account: account, currency: currency}
	if r.balances[key] < amount {
		return fmt.Errorf("%w: %s %s", repository.ErrInsufficientFunds, account, currency)
	}
	r.balances[key] -= amount
	return nil
}

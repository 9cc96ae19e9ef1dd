package memory

import (
	"context"
	"fmt"
	"payment_ledger/internal/domain"
	"payment_ledger/internal/repository"
	"sync"
)

type JournalRepository struct {
	mu      sync.RWMutex
	records map[uint64]*domain.Transaction
	nextID  uint64
}

func NewJournalRepository() *JournalRepository {
	return &JournalRepository{
		records: make(map[uint64]*domain.Transaction),
	}
}

// Append assigns the next sequential id, starting at 0. The counter
// only advances on a successful append, so ids stay gapless.
func (r *JournalRepository) Append(ctx context.Context, tx *domain.Transaction) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	stored := *tx
	stored.ID = id
	r.records[id] = &stored
	r.nextID++

	return id, nil
}

func (r *JournalRepository) Get(ctx context.Context, id uint64) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, exists := r.records[id]
	if !exists {
		return nil, fmt.Errorf("%w: transaction %d", repository.ErrNotFound, id)
	}
	copied := *tx
	return &copied, nil
}

func (r *JournalRepository) NextID(ctx context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextID, nil
}

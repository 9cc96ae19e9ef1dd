package memory

import (
	"payment_ledger/internal/repository"
)

var (
	_ repository.ConfigRepository  = (*ConfigRepository)(nil)
	_ repository.RateRepository    = (*RateRepository)(nil)
	_ repository.BalanceRepository = (*BalanceRepository)(nil)
	_ repository.JournalRepository = (*JournalRepository)(nil)
)

package memory

import (
	"context"
	"errors"
	"payment_ledger/internal/domain"
	"payment_ledger/internal/repository"
	"testing"
)

func TestBalanceRepository_DefaultsToZero(t *testing.T) {
	repo := NewBalanceRepository()

	balance, err := repo.Balance(context.Background(), "alice", "USD")

	if err != nil {
		t.Fatalf("unexpected error on Balance: %v", err)
	}
	if balance != 0 {
		t.Errorf("expected 0 for unseen pair, got %d", balance)
	}
}

func TestBalanceRepository_CreditAndDebit(t *testing.T) {
	repo := NewBalanceRepository()

	_ = repo.Credit(context.Background(), "alice", "USD", 1000)
	err := repo.Debit(context.Background(), "alice", "USD", 300)
	balance, _ := repo.Balance(context.Background(), "alice", "USD")

	if err != nil {
		t.Fatalf("unexpected error on Debit: %v", err)
	}
	if balance != 700 {
		t.Errorf("expected balance 700, got %d", balance)
	}
}

func TestBalanceRepository_DebitNeverGoesNegative(t *testing.T) {
	repo := NewBalanceRepository()
	_ = repo.Credit(context.Background(), "alice", "USD", 100)

	err := repo.Debit(context.Background(), "alice", "USD", 200)

	if !errors.Is(err, repository.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	balance, _ := repo.Balance(context.Background(), "alice", "USD")
	if balance != 100 {
		t.Errorf("expected balance unchanged at 100, got %d", balance)
	}
}

func TestBalanceRepository_PairsAreIndependent(t *testing.T) {
	repo := NewBalanceRepository()

	_ = repo.Credit(context.Background(), "alice", "USD", 100)
	_ = repo.Credit(context.Background(), "alice", "EUR", 200)
	_ = repo.Credit(context.Background(), "bob", "USD", 300)

	if b, _ := repo.Balance(context.Background(), "alice", "USD"); b != 100 {
		t.Errorf("expected alice/USD 100, got %d", b)
	}
	if b, _ := repo.Balance(context.Background(), "alice", "EUR"); b != 200 {
		t.Errorf("expected alice/EUR 200, got %d", b)
	}
	if b, _ := repo.Balance(context.Background(), "bob", "USD"); b != 300 {
		t.Errorf("expected bob/USD 300, got %d", b)
	}
}

func TestJournalRepository_SequentialIDs(t *testing.T) {
	repo := NewJournalRepository()
	tx := &domain.Transaction{Sender: "alice", Recipient: "bob", Amount: 100, Status: domain.StatusCompleted}

	id0, err := repo.Append(context.Background(), tx)
	if err != nil {
		t.Fatalf("unexpected error on Append: %v", err)
	}
	id1, _ := repo.Append(context.Background(), tx)
	id2, _ := repo.Append(context.Background(), tx)

	if id0 != 0 || id1 != 1 || id2 != 2 {
		t.Errorf("expected ids 0,1,2, got %d,%d,%d", id0, id1, id2)
	}
}

func TestJournalRepository_GetReturnsCopy(t *testing.T) {
	repo := NewJournalRepository()
	id, _ := repo.Append(context.Background(), &domain.Transaction{Sender: "alice", Amount: 100, Status: domain.StatusCompleted})

	got, err := repo.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error on Get: %v", err)
	}
	got.Amount = 999

	again, _ := repo.Get(context.Background(), id)
	if again.Amount != 100 {
		t.Errorf("journal record mutated through returned pointer: got %d", again.Amount)
	}
}

func TestJournalRepository_GetMissing(t *testing.T) {
	repo := NewJournalRepository()

	_, err := repo.Get(context.Background(), 42)

	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConfigRepository_CurrencyRegistration(t *testing.T) {
	repo := NewConfigRepository()

	supported, _ := repo.IsCurrencySupported(context.Background(), "USD")
	if supported {
		t.Fatal("expected USD unsupported before registration")
	}

	_ = repo.SetCurrency(context.Background(), "USD", 2)

	supported, _ = repo.IsCurrencySupported(context.Background(), "USD")
	if !supported {
		t.Fatal("expected USD supported after registration")
	}
	currency, err := repo.Currency(context.Background(), "USD")
	if err != nil {
		t.Fatalf("unexpected error on Currency: %v", err)
	}
	if currency.Decimals != 2 {
		t.Errorf("expected 2 decimals, got %d", currency.Decimals)
	}
}

func TestConfigRepository_FeeRateAndClock(t *testing.T) {
	repo := NewConfigRepository()

	_ = repo.SetFeeRate(context.Background(), 250)
	_ = repo.SetClock(context.Background(), 1700000000)

	rate, _ := repo.FeeRate(context.Background())
	clock, _ := repo.Clock(context.Background())

	if rate != 250 {
		t.Errorf("expected fee rate 250, got %d", rate)
	}
	if clock != 1700000000 {
		t.Errorf("expected clock 1700000000, got %d", clock)
	}
}

func TestRateRepository_SetAndGet(t *testing.T) {
	repo := NewRateRepository()

	_, err := repo.Rate(context.Background(), "USD", "EUR")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unset rate, got %v", err)
	}

	_ = repo.SetRate(context.Background(), domain.ExchangeRate{From: "USD", To: "EUR", Rate: 85, Decimals: 2, LastUpdated: 10})

	rate, err := repo.Rate(context.Background(), "USD", "EUR")
	if err != nil {
		t.Fatalf("unexpected error on Rate: %v", err)
	}
	if rate.Rate != 85 || rate.Decimals != 2 || rate.LastUpdated != 10 {
		t.Errorf("unexpected rate entry %+v", rate)
	}
}

func TestRateRepository_Directional(t *testing.T) {
	repo := NewRateRepository()
	_ = repo.SetRate(context.Background(), domain.ExchangeRate{From: "USD", To: "EUR", Rate: 85, Decimals: 2})

	_, err := repo.Rate(context.Background(), "EUR", "USD")

	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected inverse pair to be unset, got %v", err)
	}
}

func TestRateRepository_Overwrite(t *testing.T) {
	repo := NewRateRepository()
	_ = repo.SetRate(context.Background(), domain.ExchangeRate{From: "USD", To: "EUR", Rate: 85, Decimals: 2, LastUpdated: 10})
	_ = repo.SetRate(context.Background(), domain.ExchangeRate{From: "USD", To: "EUR", Rate: 90, Decimals: 2, LastUpdated: 20})

	rate, _ := repo.Rate(context.Background(), "USD", "EUR")

	if rate.Rate != 90 || rate.LastUpdated != 20 {
		t.Errorf("expected overwritten entry, got %+v", rate)
	}
}

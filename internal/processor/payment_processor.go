package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"payment_ledger/internal/domain"
	"payment_ledger/internal/repository"
	"sync"
)

// PaymentProcessor orchestrates deposits, cross-currency payments and
// the administrative configuration surface. Every public operation
// takes the authenticated caller explicitly and runs under one lock,
// so the net effect is strict one-at-a-time execution over the shared
// stores.
type PaymentProcessor struct {
	configRepo  repository.ConfigRepository
	rateRepo    repository.RateRepository
	balanceRepo repository.BalanceRepository
	journalRepo repository.JournalRepository
	gate        *ComplianceGate
	admin       domain.Account
	mu          sync.Mutex
	metricsMu   sync.RWMutex
	metrics     map[string]int
	logger      *slog.Logger
}

// PaymentRequest carries the caller-supplied arguments of SendPayment.
// The sender is the authenticated caller, never a request field.
type PaymentRequest struct {
	Recipient        domain.Account
	Amount           int64
	FromCurrency     domain.CurrencyCode
	ToCurrency       domain.CurrencyCode
	SenderCountry    domain.CountryCode
	RecipientCountry domain.CountryCode
}

func NewPaymentProcessor(
	configRepo repository.ConfigRepository,
	rateRepo repository.RateRepository,
	balanceRepo repository.BalanceRepository,
	journalRepo repository.JournalRepository,
	admin domain.Account,
	logger *slog.Logger,
) *PaymentProcessor {
	if logger == nil {
		logger = slog.Default()
	}

	return &PaymentProcessor{
		configRepo:  configRepo,
		rateRepo:    rateRepo,
		balanceRepo: balanceRepo,
		journalRepo: journalRepo,
		gate:        NewComplianceGate(configRepo),
		admin:       admin,
		metrics:     make(map[string]int),
		logger:      logger,
	}
}

// Deposit credits the caller's balance directly. Funding is modeled as
// a plain credit with no corresponding debit anywhere.
func (p *PaymentProcessor) Deposit(ctx context.Context, caller domain.Account, currency domain.CurrencyCode, amount int64) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if amount <= 0 {
		return 0, fmt.Errorf("%w: deposit amount %d", ErrInvalidAmount, amount)
	}

	supported, err := p.configRepo.IsCurrencySupported(ctx, currency)
	if err != nil {
		return 0, err
	}
	if !supported {
		return 0, fmt.Errorf("%w: %s", ErrCurrencyNotSupported, currency)
	}

	if err := p.balanceRepo.Credit(ctx, caller, currency, amount); err != nil {
		return 0, err
	}

	p.recordMetric("deposits_processed", 1)
	p.logger.InfoContext(ctx, "Deposit credited",
		slog.String("account", string(caller)),
		slog.String("currency", string(currency)),
		slog.Int64("amount", amount))

	return amount, nil
}

// SendPayment executes a cross-currency transfer: fee deduction,
// compliance gating, rate conversion, then an atomic debit, credit and
// journal append. Validation and the rate lookup happen strictly
// before any mutation, so a failure at any step leaves the ledger and
// journal untouched.
func (p *PaymentProcessor) SendPayment(ctx context.Context, caller domain.Account, req PaymentRequest) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	feeRate, err := p.configRepo.FeeRate(ctx)
	if err != nil {
		return 0, err
	}
	fee := req.Amount * feeRate / domain.FeeDenominator
	total := req.Amount + fee

	if req.Amount <= 0 {
		return 0, fmt.Errorf("%w: payment amount %d", ErrInvalidAmount, req.Amount)
	}

	senderBalance, err := p.balanceRepo.Balance(ctx, caller, req.FromCurrency)
	if err != nil {
		return 0, err
	}
	if senderBalance < total {
		return 0, fmt.Errorf("%w: have %d, need %d %s", ErrInsufficientBalance, senderBalance, total, req.FromCurrency)
	}

	if caller == req.Recipient {
		return 0, fmt.Errorf("%w: cannot pay self", ErrInvalidRecipient)
	}

	approved, err := p.gate.Check(ctx, TransferContext{
		SenderCountry:    req.SenderCountry,
		RecipientCountry: req.RecipientCountry,
		FromCurrency:     req.FromCurrency,
		ToCurrency:       req.ToCurrency,
	})
	if err != nil {
		return 0, err
	}
	if !approved {
		return 0, fmt.Errorf("%w: %s/%s %s/%s", ErrComplianceCheckFailed,
			req.SenderCountry, req.RecipientCountry, req.FromCurrency, req.ToCurrency)
	}

	rate, err := p.rateRepo.Rate(ctx, req.FromCurrency, req.ToCurrency)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s/%s", ErrExchangeRateUnavailable, req.FromCurrency, req.ToCurrency)
		}
		return 0, err
	}
	converted := rate.Convert(req.Amount)

	timestamp, err := p.configRepo.Clock(ctx)
	if err != nil {
		return 0, err
	}

	if err := p.balanceRepo.Debit(ctx, caller, req.FromCurrency, total); err != nil {
		return 0, err
	}
	if err := p.balanceRepo.Credit(ctx, req.Recipient, req.ToCurrency, converted); err != nil {
		if rbErr := p.balanceRepo.Credit(ctx, caller, req.FromCurrency, total); rbErr != nil {
			p.logger.ErrorContext(ctx, "Rollback of sender debit failed",
				slog.String("sender", string(caller)),
				slog.String("currency", string(req.FromCurrency)),
				slog.Int64("amount", total),
				slog.String("error", rbErr.Error()))
		}
		return 0, err
	}

	id, err := p.journalRepo.Append(ctx, &domain.Transaction{
		Sender:       caller,
		Recipient:    req.Recipient,
		Amount:       req.Amount,
		FromCurrency: req.FromCurrency,
		ToCurrency:   req.ToCurrency,
		Rate:         rate.Rate,
		Fee:          fee,
		Timestamp:    timestamp,
		Status:       domain.StatusCompleted,
	})
	if err != nil {
		if rbErr := p.balanceRepo.Debit(ctx, req.Recipient, req.ToCurrency, converted); rbErr != nil {
			p.logger.ErrorContext(ctx, "Rollback of recipient credit failed",
				slog.String("recipient", string(req.Recipient)),
				slog.String("currency", string(req.ToCurrency)),
				slog.Int64("amount", converted),
				slog.String("error", rbErr.Error()))
		}
		if rbErr := p.balanceRepo.Credit(ctx, caller, req.FromCurrency, total); rbErr != nil {
			p.logger.ErrorContext(ctx, "Rollback of sender debit failed",
				slog.String("sender", string(caller)),
				slog.String("currency", string(req.FromCurrency)),
				slog.Int64("amount", total),
				slog.String("error", rbErr.Error()))
		}
		return 0, err
	}

	p.recordMetric("payments_processed", 1)
	p.logger.InfoContext(ctx, "Payment completed",
		slog.Uint64("transaction_id", id),
		slog.String("sender", string(caller)),
		slog.String("recipient", string(req.Recipient)),
		slog.Int64("amount", req.Amount),
		slog.Int64("fee", fee),
		slog.Int64("converted", converted))

	return id, nil
}

func (p *PaymentProcessor) Balance(ctx context.Context, caller domain.Account, currency domain.CurrencyCode) (int64, error) {
	return p.balanceRepo.Balance(ctx, caller, currency)
}

func (p *PaymentProcessor) Transaction(ctx context.Context, id uint64) (*domain.Transaction, error) {
	return p.journalRepo.Get(ctx, id)
}

// SetSupportedCurrency registers a currency and its decimal precision.
// Registration is additive: there is no way to revoke a currency.
func (p *PaymentProcessor) SetSupportedCurrency(ctx context.Context, caller domain.Account, code domain.CurrencyCode, decimals int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireAdmin(caller); err != nil {
		return err
	}
	return p.configRepo.SetCurrency(ctx, code, decimals)
}

func (p *PaymentProcessor) SetSupportedCountry(ctx context.Context, caller domain.Account, code domain.CountryCode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireAdmin(caller); err != nil {
		return err
	}
	return p.configRepo.SetCountry(ctx, code)
}

func (p *PaymentProcessor) IsCurrencySupported(ctx context.Context, code domain.CurrencyCode) (bool, error) {
	return p.configRepo.IsCurrencySupported(ctx, code)
}

func (p *PaymentProcessor) IsCountrySupported(ctx context.Context, code domain.CountryCode) (bool, error) {
	return p.configRepo.IsCountrySupported(ctx, code)
}

// SetFeeRate sets the process-wide fee rate in parts per 10,000,
// capped at 10%.
func (p *PaymentProcessor) SetFeeRate(ctx context.Context, caller domain.Account, rate int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireAdmin(caller); err != nil {
		return err
	}
	if rate < 0 || rate > domain.MaxFeeRate {
		return fmt.Errorf("%w: fee rate %d exceeds maximum %d", ErrInvalidAmount, rate, domain.MaxFeeRate)
	}
	return p.configRepo.SetFeeRate(ctx, rate)
}

func (p *PaymentProcessor) FeeRate(ctx context.Context) (int64, error) {
	return p.configRepo.FeeRate(ctx)
}

// SetExchangeRate overwrites the directional entry for (from, to) and
// stamps it with the current logical clock. Both currencies must be
// registered first.
func (p *PaymentProcessor) SetExchangeRate(ctx context.Context, caller domain.Account, from, to domain.CurrencyCode, rate int64, decimals int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireAdmin(caller); err != nil {
		return err
	}

	if rate < 0 || decimals < 0 {
		return fmt.Errorf("%w: rate %d at %d decimals", ErrInvalidAmount, rate, decimals)
	}

	for _, code := range []domain.CurrencyCode{from, to} {
		supported, err := p.configRepo.IsCurrencySupported(ctx, code)
		if err != nil {
			return err
		}
		if !supported {
			return fmt.Errorf("%w: %s", ErrCurrencyNotSupported, code)
		}
	}

	timestamp, err := p.configRepo.Clock(ctx)
	if err != nil {
		return err
	}

	return p.rateRepo.SetRate(ctx, domain.ExchangeRate{
		From:        from,
		To:          to,
		Rate:        rate,
		Decimals:    decimals,
		LastUpdated: timestamp,
	})
}

func (p *PaymentProcessor) ExchangeRate(ctx context.Context, from, to domain.CurrencyCode) (domain.ExchangeRate, error) {
	return p.rateRepo.Rate(ctx, from, to)
}

// SetClock advances the logical timestamp used to stamp rate updates
// and journal entries. The clock never moves on its own.
func (p *PaymentProcessor) SetClock(ctx context.Context, caller domain.Account, timestamp int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireAdmin(caller); err != nil {
		return err
	}
	return p.configRepo.SetClock(ctx, timestamp)
}

func (p *PaymentProcessor) Clock(ctx context.Context) (int64, error) {
	return p.configRepo.Clock(ctx)
}

// AddCompliancePredicate registers an extra compliance check evaluated
// on every payment.
func (p *PaymentProcessor) AddCompliancePredicate(caller domain.Account, predicate CompliancePredicate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireAdmin(caller); err != nil {
		return err
	}
	p.gate.AddPredicate(predicate)
	return nil
}

func (p *PaymentProcessor) requireAdmin(caller domain.Account) error {
	if caller != p.admin {
		return fmt.Errorf("%w: %s is not the administrator", ErrUnauthorized, caller)
	}
	return nil
}

func (p *PaymentProcessor) GetMetrics() map[string]int {
	p.metricsMu.RLock()
	defer p.metricsMu.RUnlock()

	snapshot := make(map[string]int, len(p.metrics))
	for k, v := range p.metrics {
		snapshot[k] = v
	}
	return snapshot
}

func (p *PaymentProcessor) recordMetric(key string, value int) {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()
	p.metrics[key] += value
}

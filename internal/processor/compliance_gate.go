package processor

import (
	"context"
	"payment_ledger/internal/domain"
	"payment_ledger/internal/repository"
)

// TransferContext carries the four identifiers a compliance predicate
// may inspect.
type TransferContext struct {
	SenderCountry    domain.CountryCode
	RecipientCountry domain.CountryCode
	FromCurrency     domain.CurrencyCode
	ToCurrency       domain.CurrencyCode
}

type CompliancePredicate struct {
	Name  string
	Check func(ctx context.Context, tc TransferContext) (bool, error)
}

// ComplianceGate approves a transfer iff every registered predicate
// passes. The base predicates cover currency and country support;
// further checks (sanctions lists, corridor restrictions) can be
// appended without changing the contract.
type ComplianceGate struct {
	configRepo repository.ConfigRepository
	predicates []CompliancePredicate
}

func NewComplianceGate(configRepo repository.ConfigRepository) *ComplianceGate {
	g := &ComplianceGate{configRepo: configRepo}
	g.predicates = []CompliancePredicate{
		{Name: "sender_country_supported", Check: g.checkSenderCountry},
		{Name: "recipient_country_supported", Check: g.checkRecipientCountry},
		{Name: "from_currency_supported", Check: g.checkFromCurrency},
		{Name: "to_currency_supported", Check: g.checkToCurrency},
	}
	return g
}

// AddPredicate appends an extra check evaluated after the built-in ones.
func (g *ComplianceGate) AddPredicate(p CompliancePredicate) {
	g.predicates = append(g.predicates, p)
}

// Check is a pure conjunction with no side effects.
func (g *ComplianceGate) Check(ctx context.Context, tc TransferContext) (bool, error) {
	for _, predicate := range g.predicates {
		ok, err := predicate.Check(ctx, tc)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (g *ComplianceGate) checkSenderCountry(ctx context.Context, tc TransferContext) (bool, error) {
	return g.configRepo.IsCountrySupported(ctx, tc.SenderCountry)
}

func (g *ComplianceGate) checkRecipientCountry(ctx context.Context, tc TransferContext) (bool, error) {
	return g.configRepo.IsCountrySupported(ctx, tc.RecipientCountry)
}

func (g *ComplianceGate) checkFromCurrency(ctx context.Context, tc TransferContext) (bool, error) {
	return g.configRepo.IsCurrencySupported(ctx, tc.FromCurrency)
}

func (g *ComplianceGate) checkToCurrency(ctx context.Context, tc TransferContext) (bool, error) {
	return g.configRepo.IsCurrencySupported(ctx, tc.ToCurrency)
}

package domain

// ExchangeRate is a directional conversion entry. USD→EUR and EUR→USD
// are independent entries and are not required to be inverses.
// Converting amount a yields floor(a * Rate / 10^Decimals).
type ExchangeRate struct {
	From        CurrencyCode `json:"from"`
	To          CurrencyCode `json:"to"`
	Rate        int64        `json:"rate"`
	Decimals    int          `json:"decimals"`
	LastUpdated int64        `json:"last_updated"`
}

// Convert applies the rate to an amount in the source currency's
// smallest unit, flooring the result.
func (r ExchangeRate) Convert(amount int64) int64 {
	return amount * r.Rate / pow10(r.Decimals)
}

func pow10(n int) int64 {
	result := int64(1)
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}

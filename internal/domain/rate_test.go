package domain

import "testing"

func TestExchangeRate_Convert(t *testing.T) {
	tests := []struct {
		name     string
		rate     ExchangeRate
		amount   int64
		expected int64
	}{
		{"usd to eur", ExchangeRate{Rate: 85, Decimals: 2}, 100, 85},
		{"floors remainder", ExchangeRate{Rate: 85, Decimals: 2}, 99, 84},
		{"identity", ExchangeRate{Rate: 100, Decimals: 2}, 123, 123},
		{"zero decimals", ExchangeRate{Rate: 3, Decimals: 0}, 7, 21},
		{"strong rate", ExchangeRate{Rate: 150000, Decimals: 3}, 10, 1500},
		{"zero amount", ExchangeRate{Rate: 85, Decimals: 2}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rate.Convert(tt.amount); got != tt.expected {
				t.Errorf("Convert(%d) = %d, want %d", tt.amount, got, tt.expected)
			}
		})
	}
}

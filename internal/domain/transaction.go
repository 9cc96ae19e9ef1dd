package domain

type TransactionStatus string

const (
	// StatusCompleted is the only status ever journaled: failed
	// payments are rejected before any record is written.
	StatusCompleted TransactionStatus = "completed"
)

// Transaction is an immutable journal record of one completed payment.
// Amount is the pre-fee amount in the source currency's smallest unit;
// Rate is the directional rate in effect at execution time.
type Transaction struct {
	ID           uint64            `json:"id"`
	Sender       Account           `json:"sender"`
	Recipient    Account           `json:"recipient"`
	Amount       int64             `json:"amount"`
	FromCurrency CurrencyCode      `json:"from_currency"`
	ToCurrency   CurrencyCode      `json:"to_currency"`
	Rate         int64             `json:"rate"`
	Fee          int64             `json:"fee"`
	Timestamp    int64             `json:"timestamp"`
	Status       TransactionStatus `json:"status"`
}

package cryptofolio

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is a typed string identifying the direction of a transaction.
type Kind string

// Kinds of ledger transactions.
const (
	Buy  Kind = "buy"
	Sell Kind = "sell"
)

// ParseKind parses a string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown transaction kind: %q", s)
	}
}

// Transaction is a single immutable entry in a user's ledger.
//
// TotalPaid is the cash actually spent (buy) or received (sell) including
// fees, which is NOT necessarily Quantity times UnitPrice. Cost basis is
// accumulated from TotalPaid so that it reflects realized economics.
//
// An "update" is modeled as a full replace of the row's mutable fields; the
// ID and RecordedAt are assigned by the store and never change.
type Transaction struct {
	ID         int64           `json:"id"`
	UserID     string          `json:"user_id"`
	CoinID     string          `json:"coin_id"`
	CoinSymbol string          `json:"coin_symbol"`
	CoinName   string          `json:"coin_name"`
	Kind       Kind            `json:"kind"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	Fee        decimal.Decimal `json:"fee,omitempty"`
	Exchange   string          `json:"exchange,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// Validate checks the transaction for correctness. It is called before the
// ledger is touched: a transaction that fails validation never reaches the
// aggregation engine.
func (t Transaction) Validate() error {
	if t.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "is missing"}
	}
	if t.CoinID == "" {
		return &ValidationError{Field: "coin_id", Reason: "is missing"}
	}
	if t.Kind != Buy && t.Kind != Sell {
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", t.Kind)}
	}
	if !t.Quantity.IsPositive() {
		return &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if !t.UnitPrice.IsPositive() {
		return &ValidationError{Field: "unit_price", Reason: "must be positive"}
	}
	if !t.TotalPaid.IsPositive() {
		return &ValidationError{Field: "total_paid", Reason: "must be positive"}
	}
	if t.Fee.IsNegative() {
		return &ValidationError{Field: "fee", Reason: "must not be negative"}
	}
	return nil
}

// Equal reports whether two transactions carry the same content. Timestamps
// are compared by instant, amounts by numeric value.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID &&
		t.UserID == o.UserID &&
		t.CoinID == o.CoinID &&
		t.CoinSymbol == o.CoinSymbol &&
		t.CoinName == o.CoinName &&
		t.Kind == o.Kind &&
		t.Quantity.Equal(o.Quantity) &&
		t.UnitPrice.Equal(o.UnitPrice) &&
		t.TotalPaid.Equal(o.TotalPaid) &&
		t.Fee.Equal(o.Fee) &&
		t.Exchange == o.Exchange &&
		t.Notes == o.Notes &&
		t.OccurredAt.Equal(o.OccurredAt)
}

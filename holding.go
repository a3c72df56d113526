package cryptofolio

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Holding is the materialized position for one (user, coin) pair: the total
// quantity held and the cost basis retained after sells.
//
// A Holding is exclusively a projection of the transaction ledger. It is never
// edited directly; every relevant ledger mutation rebuilds it wholesale with
// Recompute, so it cannot drift from the ledger. A Holding exists if and only
// if the last recompute yielded a positive quantity.
//
// CurrentPrice and PriceChange24h come from the price resolver and are
// advisory: when resolution fails they stay stale or zero, the cost basis
// fields are still correct.
type Holding struct {
	UserID         string          `json:"user_id"`
	CoinID         string          `json:"coin_id"`
	CoinSymbol     string          `json:"coin_symbol"`
	CoinName       string          `json:"coin_name"`
	TotalQuantity  decimal.Decimal `json:"total_quantity"`
	TotalInvested  decimal.Decimal `json:"total_invested"`
	AvgCost        decimal.Decimal `json:"avg_cost"`
	CurrentPrice   float64         `json:"current_price"`
	PriceChange24h float64         `json:"price_change_24h"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CurrentValue returns the market value of the holding at its current price.
func (h Holding) CurrentValue() float64 {
	return h.TotalQuantity.InexactFloat64() * h.CurrentPrice
}

var one = decimal.NewFromInt(1)

// Recompute derives the holding for one (user, coin) pair from its complete
// transaction history, using the weighted-average cost basis.
//
// The input is sorted ascending by occurrence time, ties broken by ascending
// id, so the result is deterministic even under concurrent inserts with
// identical timestamps. The function is pure: it never errors, touches no
// clock, and identical inputs yield identical holdings.
//
// A buy adds its quantity and its full cash paid (fees included) to the
// position. A sell removes its quantity and reduces the retained cost basis
// proportionally to the fraction of the currently tracked quantity sold.
// Selling more than is tracked is absorbed: the running quantity is floored
// at zero, and a final non-positive quantity reports ok=false, meaning the
// stored holding must be deleted.
func Recompute(transactions []Transaction) (h Holding, ok bool) {
	txs := slices.Clone(transactions)
	slices.SortFunc(txs, func(a, b Transaction) int {
		if c := a.OccurredAt.Compare(b.OccurredAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	quantity := decimal.Zero
	invested := decimal.Zero
	// running is the quantity still available to sell; unlike quantity it
	// never goes negative, so over-sells cannot corrupt the basis ratio.
	running := decimal.Zero

	for _, tx := range txs {
		switch tx.Kind {
		case Buy:
			quantity = quantity.Add(tx.Quantity)
			invested = invested.Add(tx.TotalPaid)
			running = running.Add(tx.Quantity)
		case Sell:
			quantity = quantity.Sub(tx.Quantity)
			if running.IsPositive() {
				ratio := tx.Quantity.Div(running)
				if ratio.GreaterThan(one) {
					ratio = one
				}
				invested = invested.Mul(one.Sub(ratio))
				if invested.IsNegative() {
					invested = decimal.Zero
				}
			}
			running = running.Sub(tx.Quantity)
			if running.IsNegative() {
				running = decimal.Zero
			}
		}
		h.UserID = tx.UserID
		h.CoinID = tx.CoinID
		h.CoinSymbol = tx.CoinSymbol
		h.CoinName = tx.CoinName
	}

	if !quantity.IsPositive() {
		return Holding{}, false
	}
	h.TotalQuantity = quantity
	h.TotalInvested = invested
	h.AvgCost = invested.Div(quantity)
	return h, true
}

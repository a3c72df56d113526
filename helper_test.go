package cryptofolio

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func day(n int) time.Time {
	return time.Date(2025, time.January, n, 0, 0, 0, 0, time.UTC)
}

// btcTx builds a bitcoin transaction for user u1.
func btcTx(id int64, kind Kind, on time.Time, qty, total float64) Transaction {
	return Transaction{
		ID:         id,
		UserID:     "u1",
		CoinID:     "bitcoin",
		CoinSymbol: "btc",
		CoinName:   "Bitcoin",
		Kind:       kind,
		Quantity:   d(qty),
		UnitPrice:  d(total / qty),
		TotalPaid:  d(total),
		OccurredAt: on,
	}
}

// fakeProvider is a MarketProvider serving canned quotes and counting calls.
type fakeProvider struct {
	mu          sync.Mutex
	priceCalls  int
	searchCalls int
	quotes      map[string]Quote
	candidates  []Candidate
	err         error
}

func (f *fakeProvider) SimplePrices(_ context.Context, ids []string, _ string) (map[string]Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]Quote)
	for _, id := range ids {
		if q, ok := f.quotes[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (f *fakeProvider) Search(_ context.Context, _ string) ([]Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func (f *fakeProvider) calls() (price, search int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.priceCalls, f.searchCalls
}

// newTestService wires a service over memory stores and the fake provider.
func newTestService(provider *fakeProvider) *Service {
	resolver := NewResolver(provider, NewCache(0), "usd")
	return NewService(NewMemoryLedger(), NewMemoryHoldings(), NewMemoryWatchlist(), resolver, nil)
}

package cryptofolio

import (
	"context"
	"errors"
	"testing"
)

func TestServiceAddTransaction_Recomputes(t *testing.T) {
	p := &fakeProvider{quotes: map[string]Quote{"bitcoin": {Price: 60000, Change24h: 2.5}}}
	svc := newTestService(p)
	ctx := context.Background()

	tx := btcTx(0, Buy, day(1), 1, 10000)
	added, err := svc.AddTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("AddTransaction() error: %v", err)
	}
	if added.ID == 0 {
		t.Error("AddTransaction() did not assign an id")
	}

	holdings, err := svc.Holdings(ctx, "u1")
	if err != nil || len(holdings) != 1 {
		t.Fatalf("Holdings() = %v, %v; want one holding", holdings, err)
	}
	h := holdings[0]
	if !h.TotalQuantity.Equal(d(1)) || !h.TotalInvested.Equal(d(10000)) {
		t.Errorf("holding = qty %s invested %s, want 1 and 10000", h.TotalQuantity, h.TotalInvested)
	}
	if h.CurrentPrice != 60000 || h.PriceChange24h != 2.5 {
		t.Errorf("holding price = %v (%v%%), want the resolver quote", h.CurrentPrice, h.PriceChange24h)
	}
	if h.UpdatedAt.IsZero() {
		t.Error("holding UpdatedAt not stamped")
	}
}

func TestServiceAddTransaction_RejectsInvalid(t *testing.T) {
	svc := newTestService(&fakeProvider{})
	ctx := context.Background()

	tx := btcTx(0, Buy, day(1), 1, 10000)
	tx.Quantity = d(-1)
	if _, err := svc.AddTransaction(ctx, tx); !IsValidation(err) {
		t.Fatalf("AddTransaction() error = %v, want a validation error", err)
	}

	// the invalid transaction must not have touched the ledger
	txs, err := svc.Transactions(ctx, "u1")
	if err != nil || len(txs) != 0 {
		t.Errorf("ledger has %d transactions after a rejected add, want 0", len(txs))
	}
}

func TestServiceDeleteTransaction(t *testing.T) {
	p := &fakeProvider{quotes: map[string]Quote{"bitcoin": {Price: 60000}}}
	svc := newTestService(p)
	ctx := context.Background()

	added, err := svc.AddTransaction(ctx, btcTx(0, Buy, day(1), 1, 10000))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteTransaction(ctx, "u1", added.ID); err != nil {
		t.Fatalf("DeleteTransaction() error: %v", err)
	}

	holdings, err := svc.Holdings(ctx, "u1")
	if err != nil || len(holdings) != 0 {
		t.Errorf("Holdings() after deleting the only transaction = %v, want none", holdings)
	}
	if err := svc.DeleteTransaction(ctx, "u1", added.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestServiceUpdateTransaction_MovesCoin(t *testing.T) {
	p := &fakeProvider{quotes: map[string]Quote{
		"bitcoin":  {Price: 60000},
		"ethereum": {Price: 3000},
	}}
	svc := newTestService(p)
	ctx := context.Background()

	added, err := svc.AddTransaction(ctx, btcTx(0, Buy, day(1), 1, 10000))
	if err != nil {
		t.Fatal(err)
	}

	moved := added
	moved.CoinID = "ethereum"
	moved.CoinSymbol = "eth"
	moved.CoinName = "Ethereum"
	if _, err := svc.UpdateTransaction(ctx, "u1", added.ID, moved); err != nil {
		t.Fatalf("UpdateTransaction() error: %v", err)
	}

	holdings, err := svc.Holdings(ctx, "u1")
	if err != nil || len(holdings) != 1 {
		t.Fatalf("Holdings() = %v, %v; want just the new coin", holdings, err)
	}
	if holdings[0].CoinID != "ethereum" {
		t.Errorf("remaining holding is %s, want ethereum", holdings[0].CoinID)
	}
}

func TestServiceRecompute_PriceFailureNonFatal(t *testing.T) {
	p := &fakeProvider{err: errors.New("provider down")}
	svc := newTestService(p)
	ctx := context.Background()

	if _, err := svc.AddTransaction(ctx, btcTx(0, Buy, day(1), 1, 10000)); err != nil {
		t.Fatalf("AddTransaction() with the provider down: %v", err)
	}

	holdings, err := svc.Holdings(ctx, "u1")
	if err != nil || len(holdings) != 1 {
		t.Fatalf("Holdings() = %v, %v; want the basis persisted anyway", holdings, err)
	}
	if !holdings[0].TotalInvested.Equal(d(10000)) {
		t.Errorf("TotalInvested = %s, want 10000", holdings[0].TotalInvested)
	}
	if holdings[0].CurrentPrice != 0 {
		t.Errorf("CurrentPrice = %v, want 0 with no prior value", holdings[0].CurrentPrice)
	}
}

func TestServiceRecompute_KeepsStalePrice(t *testing.T) {
	p := &fakeProvider{quotes: map[string]Quote{"bitcoin": {Price: 60000}}}
	// no resolver cache, so the outage below is actually seen by recompute
	resolver := NewResolver(p, nil, "usd")
	svc := NewService(NewMemoryLedger(), NewMemoryHoldings(), NewMemoryWatchlist(), resolver, nil)
	ctx := context.Background()

	if _, err := svc.AddTransaction(ctx, btcTx(0, Buy, day(1), 1, 10000)); err != nil {
		t.Fatal(err)
	}

	p.mu.Lock()
	p.err = errors.New("provider down")
	p.mu.Unlock()

	if _, err := svc.AddTransaction(ctx, btcTx(0, Buy, day(2), 1, 12000)); err != nil {
		t.Fatal(err)
	}

	holdings, _ := svc.Holdings(ctx, "u1")
	if len(holdings) != 1 || holdings[0].CurrentPrice != 60000 {
		t.Errorf("holding price after outage = %v, want the stale 60000", holdings[0].CurrentPrice)
	}
}

func TestServiceRecompute_OverSellDeletes(t *testing.T) {
	svc := newTestService(&fakeProvider{})
	ctx := context.Background()

	if _, err := svc.AddTransaction(ctx, btcTx(0, Buy, day(1), 1, 10000)); err != nil {
		t.Fatal(err)
	}
	// an over-sell is valid input; the engine absorbs it and the holding goes away
	if _, err := svc.AddTransaction(ctx, btcTx(0, Sell, day(2), 5, 50000)); err != nil {
		t.Fatalf("AddTransaction(over-sell) error: %v", err)
	}

	holdings, _ := svc.Holdings(ctx, "u1")
	if len(holdings) != 0 {
		t.Errorf("Holdings() after over-sell = %v, want none", holdings)
	}
}

func TestServiceSummary(t *testing.T) {
	p := &fakeProvider{quotes: map[string]Quote{
		"bitcoin":  {Price: 60000},
		"ethereum": {Price: 3000},
	}}
	svc := newTestService(p)
	ctx := context.Background()

	if _, err := svc.AddTransaction(ctx, btcTx(0, Buy, day(1), 1, 50000)); err != nil {
		t.Fatal(err)
	}
	eth := btcTx(0, Buy, day(2), 10, 20000)
	eth.CoinID = "ethereum"
	eth.CoinSymbol = "eth"
	eth.CoinName = "Ethereum"
	if _, err := svc.AddTransaction(ctx, eth); err != nil {
		t.Fatal(err)
	}

	sum, err := svc.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("Summary() error: %v", err)
	}
	if len(sum.Holdings) != 2 {
		t.Fatalf("Summary() has %d holdings, want 2", len(sum.Holdings))
	}
	if sum.TotalInvested != 70000 {
		t.Errorf("TotalInvested = %v, want 70000", sum.TotalInvested)
	}
	// 1 btc at 60000 plus 10 eth at 3000
	if sum.CurrentValue != 90000 {
		t.Errorf("CurrentValue = %v, want 90000", sum.CurrentValue)
	}
	if sum.ProfitLoss != 20000 {
		t.Errorf("ProfitLoss = %v, want 20000", sum.ProfitLoss)
	}
	wantPct := 20000.0 / 70000.0 * 100
	if sum.ProfitLossPct != wantPct {
		t.Errorf("ProfitLossPct = %v, want %v", sum.ProfitLossPct, wantPct)
	}
}

func TestServiceSummary_SnapshotCached(t *testing.T) {
	p := &fakeProvider{quotes: map[string]Quote{"bitcoin": {Price: 60000}}}
	svc := newTestService(p)
	ctx := context.Background()

	if _, err := svc.AddTransaction(ctx, btcTx(0, Buy, day(1), 1, 10000)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Summary(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	before, _ := p.calls()

	for n := 0; n < 3; n++ {
		if _, err := svc.Summary(ctx, "u1"); err != nil {
			t.Fatal(err)
		}
	}
	if after, _ := p.calls(); after != before {
		t.Errorf("repeated summaries made %d extra provider calls, want 0", after-before)
	}

	// a write invalidates the snapshot, the next summary resolves prices again
	if _, err := svc.AddTransaction(ctx, btcTx(0, Buy, day(2), 1, 12000)); err != nil {
		t.Fatal(err)
	}
	sum, err := svc.Summary(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalInvested != 22000 {
		t.Errorf("TotalInvested after invalidation = %v, want 22000", sum.TotalInvested)
	}
}

func TestServiceWatchlist(t *testing.T) {
	svc := newTestService(&fakeProvider{})
	ctx := context.Background()

	if _, err := svc.Watch(ctx, WatchlistEntry{CoinID: "bitcoin"}); !IsValidation(err) {
		t.Errorf("Watch() without user = %v, want a validation error", err)
	}

	e, err := svc.Watch(ctx, WatchlistEntry{UserID: "u1", CoinID: "bitcoin", CoinSymbol: "btc"})
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	list, err := svc.Watchlist(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("Watchlist() = %v, %v; want one entry", list, err)
	}
	if err := svc.Unwatch(ctx, "u1", e.ID); err != nil {
		t.Fatalf("Unwatch() error: %v", err)
	}
	if list, _ := svc.Watchlist(ctx, "u1"); len(list) != 0 {
		t.Errorf("Watchlist() after Unwatch() = %v, want empty", list)
	}
}

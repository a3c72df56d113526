package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avln/cryptofolio"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestSummaryMarkdown(t *testing.T) {
	s := &cryptofolio.Summary{
		UserID: "u1",
		Holdings: []cryptofolio.Holding{{
			CoinID:         "bitcoin",
			CoinSymbol:     "btc",
			TotalQuantity:  dec(1.5),
			TotalInvested:  dec(45000),
			AvgCost:        dec(30000),
			CurrentPrice:   60000,
			PriceChange24h: 2.5,
		}},
		TotalInvested: 45000,
		CurrentValue:  90000,
		ProfitLoss:    45000,
		ProfitLossPct: 100,
		LastUpdated:   time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
	}
	got := SummaryMarkdown(s, "usd")

	for _, want := range []string{
		"# Portfolio Summary",
		"| BTC | 1.5 | $30,000.00 | $60,000.00 | +2.50% | $90,000.00 |",
		"- Invested: $45,000.00",
		"- P&L: $45,000.00 (+100.00%)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("SummaryMarkdown() is missing %q:\n%s", want, got)
		}
	}
}

func TestSummaryMarkdown_Empty(t *testing.T) {
	got := SummaryMarkdown(&cryptofolio.Summary{UserID: "u1"}, "usd")
	if !strings.Contains(got, "No holdings.") {
		t.Errorf("SummaryMarkdown() = %q, want the empty notice", got)
	}
}

func TestAnalyticsMarkdown(t *testing.T) {
	a := &cryptofolio.Analytics{
		Positions: []cryptofolio.Position{{
			CoinID:        "bitcoin",
			CoinSymbol:    "btc",
			CurrentValue:  60000,
			Profit:        20000,
			ProfitPct:     50,
			AllocationPct: 100,
		}},
		BestPerformer:  "bitcoin",
		WorstPerformer: "bitcoin",
		DiversityScore: 0,
	}
	got := AnalyticsMarkdown(a, "usd")

	for _, want := range []string{
		"| BTC | $60,000.00 | $20,000.00 | +50.00% | 100.00% |",
		"- Best performer: bitcoin",
		"- Diversity score: 0.0/100",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("AnalyticsMarkdown() is missing %q:\n%s", want, got)
		}
	}
}

func TestTransactionsMarkdown(t *testing.T) {
	txs := []cryptofolio.Transaction{{
		ID:         7,
		CoinSymbol: "eth",
		Kind:       cryptofolio.Buy,
		Quantity:   dec(10),
		UnitPrice:  dec(2000),
		TotalPaid:  dec(20000),
		OccurredAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}}
	got := TransactionsMarkdown(txs, "usd")
	if !strings.Contains(got, "| 7 | 2025-02-01 | buy | ETH | 10 | $2,000.00 | $20,000.00 |") {
		t.Errorf("TransactionsMarkdown() =\n%s", got)
	}
}

func TestCandidatesMarkdown(t *testing.T) {
	got := CandidatesMarkdown([]cryptofolio.Candidate{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"}})
	if !strings.Contains(got, "| bitcoin | BTC | Bitcoin |") {
		t.Errorf("CandidatesMarkdown() =\n%s", got)
	}
	if empty := CandidatesMarkdown(nil); !strings.Contains(empty, "No matches.") {
		t.Errorf("CandidatesMarkdown(nil) = %q", empty)
	}
}

func TestWatchlistMarkdown(t *testing.T) {
	entries := []cryptofolio.WatchlistEntry{{
		ID:         3,
		CoinID:     "solana",
		CoinSymbol: "sol",
		CreatedAt:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}}
	got := WatchlistMarkdown(entries)
	if !strings.Contains(got, "| 3 | solana | SOL | 2025-03-01 |") {
		t.Errorf("WatchlistMarkdown() =\n%s", got)
	}
}

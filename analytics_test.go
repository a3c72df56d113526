package cryptofolio

import (
	"math"
	"testing"
)

// enriched builds a price-enriched holding for analytics tests.
func enriched(coin string, qty, invested, price float64) Holding {
	return Holding{
		UserID:        "u1",
		CoinID:        coin,
		CoinSymbol:    coin,
		TotalQuantity: d(qty),
		TotalInvested: d(invested),
		AvgCost:       d(invested / qty),
		CurrentPrice:  price,
	}
}

func TestComputeAnalytics(t *testing.T) {
	holdings := []Holding{
		enriched("bitcoin", 1, 40000, 60000),  // +50%
		enriched("ethereum", 10, 30000, 2000), // -33.3%
		enriched("solana", 100, 10000, 200),   // +100%
	}
	a := ComputeAnalytics(holdings)

	if len(a.Positions) != 3 {
		t.Fatalf("Positions = %d, want 3", len(a.Positions))
	}
	if a.BestPerformer != "solana" {
		t.Errorf("BestPerformer = %q, want solana", a.BestPerformer)
	}
	if a.WorstPerformer != "ethereum" {
		t.Errorf("WorstPerformer = %q, want ethereum", a.WorstPerformer)
	}

	// total value 60000 + 20000 + 20000 = 100000
	btc := a.Positions[0]
	if btc.CurrentValue != 60000 {
		t.Errorf("btc CurrentValue = %v, want 60000", btc.CurrentValue)
	}
	if btc.Profit != 20000 {
		t.Errorf("btc Profit = %v, want 20000", btc.Profit)
	}
	if btc.ProfitPct != 50 {
		t.Errorf("btc ProfitPct = %v, want 50", btc.ProfitPct)
	}
	if btc.AllocationPct != 60 {
		t.Errorf("btc AllocationPct = %v, want 60", btc.AllocationPct)
	}
}

func TestComputeAnalytics_Diversity(t *testing.T) {
	near := func(got, want float64) bool { return math.Abs(got-want) < 0.01 }

	t.Run("empty", func(t *testing.T) {
		if got := ComputeAnalytics(nil).DiversityScore; got != 0 {
			t.Errorf("DiversityScore = %v, want 0", got)
		}
	})
	t.Run("single holding", func(t *testing.T) {
		a := ComputeAnalytics([]Holding{enriched("bitcoin", 1, 10000, 50000)})
		if a.DiversityScore != 0 {
			t.Errorf("DiversityScore = %v, want 0 for one holding", a.DiversityScore)
		}
	})
	t.Run("equal split is maximal", func(t *testing.T) {
		a := ComputeAnalytics([]Holding{
			enriched("bitcoin", 1, 10000, 25000),
			enriched("ethereum", 1, 10000, 25000),
			enriched("solana", 1, 10000, 25000),
			enriched("cardano", 1, 10000, 25000),
		})
		if !near(a.DiversityScore, 100) {
			t.Errorf("DiversityScore = %v, want 100 for an equal split", a.DiversityScore)
		}
	})
	t.Run("concentration lowers the score", func(t *testing.T) {
		a := ComputeAnalytics([]Holding{
			enriched("bitcoin", 1, 10000, 99000),
			enriched("ethereum", 1, 10000, 1000),
		})
		if a.DiversityScore <= 0 || a.DiversityScore >= 50 {
			t.Errorf("DiversityScore = %v, want well below the equal-split score", a.DiversityScore)
		}
	})
}

func TestComputeAnalytics_UnpricedHolding(t *testing.T) {
	h := enriched("obscure", 5, 1000, 0)
	a := ComputeAnalytics([]Holding{h, enriched("bitcoin", 1, 10000, 50000)})

	pos := a.Positions[0]
	if pos.CurrentValue != 0 || pos.Profit != -1000 {
		t.Errorf("unpriced position = value %v profit %v, want 0 and -1000", pos.CurrentValue, pos.Profit)
	}
	if pos.AllocationPct != 0 {
		t.Errorf("unpriced AllocationPct = %v, want 0", pos.AllocationPct)
	}
}

package cryptofolio

import "math"

// Position is the analytics view of a single holding.
type Position struct {
	CoinID         string  `json:"coin_id"`
	CoinSymbol     string  `json:"coin_symbol"`
	CoinName       string  `json:"coin_name"`
	Quantity       float64 `json:"quantity"`
	Invested       float64 `json:"invested"`
	AvgCost        float64 `json:"avg_cost"`
	CurrentPrice   float64 `json:"current_price"`
	CurrentValue   float64 `json:"current_value"`
	Profit         float64 `json:"profit"`
	ProfitPct      float64 `json:"profit_pct"`
	AllocationPct  float64 `json:"allocation_pct"`
	PriceChange24h float64 `json:"price_change_24h"`
}

// Analytics is the portfolio-wide analytics over the enriched holding set.
type Analytics struct {
	Positions      []Position `json:"positions"`
	BestPerformer  string     `json:"best_performer,omitempty"`  // coin id with the highest profit%
	WorstPerformer string     `json:"worst_performer,omitempty"` // coin id with the lowest profit%
	DiversityScore float64    `json:"diversity_score"`
}

// ComputeAnalytics derives per-holding profit and allocation figures, the
// best and worst performer by profit percentage, and a diversity score from
// a set of price-enriched holdings. It is pure and tolerates holdings whose
// price could not be resolved (their value is simply zero).
func ComputeAnalytics(holdings []Holding) *Analytics {
	a := &Analytics{}

	var totalValue float64
	for _, h := range holdings {
		totalValue += h.CurrentValue()
	}

	bestPct := math.Inf(-1)
	worstPct := math.Inf(1)
	for _, h := range holdings {
		p := Position{
			CoinID:         h.CoinID,
			CoinSymbol:     h.CoinSymbol,
			CoinName:       h.CoinName,
			Quantity:       h.TotalQuantity.InexactFloat64(),
			Invested:       h.TotalInvested.InexactFloat64(),
			AvgCost:        h.AvgCost.InexactFloat64(),
			CurrentPrice:   h.CurrentPrice,
			CurrentValue:   h.CurrentValue(),
			PriceChange24h: h.PriceChange24h,
		}
		p.Profit = p.CurrentValue - p.Invested
		if p.Invested > 0 {
			p.ProfitPct = p.Profit / p.Invested * 100
		}
		if totalValue > 0 {
			p.AllocationPct = p.CurrentValue / totalValue * 100
		}
		if p.ProfitPct > bestPct {
			bestPct = p.ProfitPct
			a.BestPerformer = p.CoinID
		}
		if p.ProfitPct < worstPct {
			worstPct = p.ProfitPct
			a.WorstPerformer = p.CoinID
		}
		a.Positions = append(a.Positions, p)
	}

	a.DiversityScore = diversityScore(a.Positions)
	return a
}

// diversityScore is the normalized Shannon entropy of the allocation
// fractions, scaled to 0-100. An empty or single-holding portfolio scores 0
// by convention: the entropy denominator log(n) is zero when n == 1, so the
// ratio is defined as 0 to avoid the division.
func diversityScore(positions []Position) float64 {
	var fractions []float64
	for _, p := range positions {
		if p.AllocationPct > 0 {
			fractions = append(fractions, p.AllocationPct/100)
		}
	}
	n := len(fractions)
	if n <= 1 {
		return 0
	}
	var entropy float64
	for _, f := range fractions {
		entropy -= f * math.Log(f)
	}
	return entropy / math.Log(float64(n)) * 100
}

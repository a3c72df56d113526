// Package renderer produces markdown views of portfolio reports for the CLI.
package renderer

import (
	"fmt"
	"strings"

	"github.com/avln/cryptofolio"
)

// SummaryMarkdown renders the holdings table and the aggregate figures of a
// portfolio summary. Amounts are formatted in the given quote currency.
func SummaryMarkdown(s *cryptofolio.Summary, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio Summary\n\n")

	if len(s.Holdings) == 0 {
		fmt.Fprintln(&b, "No holdings.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Coin | Quantity | Avg Cost | Price | 24h | Value |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|")
	for _, h := range s.Holdings {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			strings.ToUpper(h.CoinSymbol),
			h.TotalQuantity.String(),
			cryptofolio.FormatMoney(h.AvgCost.InexactFloat64(), currency),
			cryptofolio.FormatMoney(h.CurrentPrice, currency),
			cryptofolio.Percent(h.PriceChange24h).SignedString(),
			cryptofolio.FormatMoney(h.CurrentValue(), currency),
		)
	}

	fmt.Fprintf(&b, "\n- Invested: %s\n", cryptofolio.FormatMoney(s.TotalInvested, currency))
	fmt.Fprintf(&b, "- Current value: %s\n", cryptofolio.FormatMoney(s.CurrentValue, currency))
	fmt.Fprintf(&b, "- P&L: %s (%s)\n",
		cryptofolio.FormatMoney(s.ProfitLoss, currency),
		cryptofolio.Percent(s.ProfitLossPct).SignedString(),
	)
	fmt.Fprintf(&b, "- Last updated: %s\n", s.LastUpdated.Format("2006-01-02 15:04:05"))
	return b.String()
}

// AnalyticsMarkdown renders the per-holding analytics and the portfolio-wide
// scores.
func AnalyticsMarkdown(a *cryptofolio.Analytics, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio Analytics\n\n")

	if len(a.Positions) == 0 {
		fmt.Fprintln(&b, "No holdings.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Coin | Value | Profit | Profit% | Allocation |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|")
	for _, p := range a.Positions {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			strings.ToUpper(p.CoinSymbol),
			cryptofolio.FormatMoney(p.CurrentValue, currency),
			cryptofolio.FormatMoney(p.Profit, currency),
			cryptofolio.Percent(p.ProfitPct).SignedString(),
			cryptofolio.Percent(p.AllocationPct).String(),
		)
	}

	fmt.Fprintln(&b)
	if a.BestPerformer != "" {
		fmt.Fprintf(&b, "- Best performer: %s\n", a.BestPerformer)
	}
	if a.WorstPerformer != "" {
		fmt.Fprintf(&b, "- Worst performer: %s\n", a.WorstPerformer)
	}
	fmt.Fprintf(&b, "- Diversity score: %.1f/100\n", a.DiversityScore)
	return b.String()
}

// TransactionsMarkdown renders the transaction log.
func TransactionsMarkdown(txs []cryptofolio.Transaction, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Transactions\n\n")

	if len(txs) == 0 {
		fmt.Fprintln(&b, "No transactions.")
		return b.String()
	}

	fmt.Fprintln(&b, "| ID | Date | Kind | Coin | Quantity | Unit Price | Total Paid |")
	fmt.Fprintln(&b, "|---:|:---|:---|:---|---:|---:|---:|")
	for _, tx := range txs {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |\n",
			tx.ID,
			tx.OccurredAt.Format("2006-01-02"),
			tx.Kind,
			strings.ToUpper(tx.CoinSymbol),
			tx.Quantity.String(),
			cryptofolio.FormatMoney(tx.UnitPrice.InexactFloat64(), currency),
			cryptofolio.FormatMoney(tx.TotalPaid.InexactFloat64(), currency),
		)
	}
	return b.String()
}

// CandidatesMarkdown renders directory search results.
func CandidatesMarkdown(candidates []cryptofolio.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Search Results\n\n")

	if len(candidates) == 0 {
		fmt.Fprintln(&b, "No matches.")
		return b.String()
	}

	fmt.Fprintln(&b, "| ID | Symbol | Name |")
	fmt.Fprintln(&b, "|:---|:---|:---|")
	for _, c := range candidates {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", c.ID, strings.ToUpper(c.Symbol), c.Name)
	}
	return b.String()
}

// WatchlistMarkdown renders the watchlist.
func WatchlistMarkdown(entries []cryptofolio.WatchlistEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Watchlist\n\n")

	if len(entries) == 0 {
		fmt.Fprintln(&b, "Watchlist is empty.")
		return b.String()
	}

	fmt.Fprintln(&b, "| ID | Coin | Symbol | Since |")
	fmt.Fprintln(&b, "|---:|:---|:---|:---|")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
			e.ID, e.CoinID, strings.ToUpper(e.CoinSymbol), e.CreatedAt.Format("2006-01-02"))
	}
	return b.String()
}

package cryptofolio

import (
	"context"
	"strings"
)

// Quote is the market data returned by the provider for a single coin.
// Fields missing from a provider response stay at zero.
type Quote struct {
	Price     float64 `json:"price"`
	Change24h float64 `json:"change_24h"`
	Volume24h float64 `json:"volume_24h"`
	MarketCap float64 `json:"market_cap"`
}

// Candidate is a coin returned by the provider's free-text search.
type Candidate struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// MarketProvider is the external directory of market prices. Both calls may
// fail with network, HTTP or parse errors; the resolver treats every failure
// as "unavailable" and never propagates it raw.
type MarketProvider interface {
	// SimplePrices returns quotes for canonical market ids, in the given
	// quote currency. Ids unknown to the provider are simply absent from
	// the result.
	SimplePrices(ctx context.Context, ids []string, vsCurrency string) (map[string]Quote, error)
	// Search runs a free-text query and returns candidate coins.
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// wellKnown maps exchange symbols of common majors to their canonical market
// ids, so that "btc" resolves without a directory search.
var wellKnown = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"usdt":  "tether",
	"bnb":   "binancecoin",
	"sol":   "solana",
	"xrp":   "ripple",
	"usdc":  "usd-coin",
	"ada":   "cardano",
	"doge":  "dogecoin",
	"dot":   "polkadot",
	"ltc":   "litecoin",
	"link":  "chainlink",
	"matic": "matic-network",
	"avax":  "avalanche-2",
	"xlm":   "stellar",
	"uni":   "uniswap",
}

// DefaultChunkSize is the maximum number of ids sent to the provider in one
// request.
const DefaultChunkSize = 200

// Resolver resolves coin identifiers to market quotes through a
// MarketProvider, with TTL memoization and a multi-step fallback chain.
type Resolver struct {
	provider  MarketProvider
	cache     *Cache
	vs        string
	chunkSize int
}

// NewResolver creates a resolver quoting in vsCurrency (e.g. "usd"), caching
// provider responses in cache. A nil cache disables memoization.
func NewResolver(provider MarketProvider, cache *Cache, vsCurrency string) *Resolver {
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	return &Resolver{
		provider:  provider,
		cache:     cache,
		vs:        strings.ToLower(vsCurrency),
		chunkSize: DefaultChunkSize,
	}
}

// Quote resolves a single coin id or symbol to its market quote. It tries,
// in order: the input as a canonical market id, the static symbol table for
// well-known majors, and finally a free-text search selecting the first
// candidate whose symbol matches case-insensitively. When every step fails
// it reports ok=false; it never returns an error.
func (r *Resolver) Quote(ctx context.Context, idOrSymbol string) (Quote, bool) {
	key := strings.ToLower(strings.TrimSpace(idOrSymbol))
	if key == "" {
		return Quote{}, false
	}

	// 1. input as canonical id
	if q, ok := r.fetchOne(ctx, key); ok {
		return q, true
	}

	// 2. static symbol table
	if canonical, ok := wellKnown[key]; ok {
		if q, ok := r.fetchOne(ctx, canonical); ok {
			return q, true
		}
	}

	// 3. directory search, first case-insensitive symbol match
	candidates, err := r.Search(ctx, key)
	if err != nil {
		return Quote{}, false
	}
	for _, c := range candidates {
		if strings.EqualFold(c.Symbol, key) {
			if q, ok := r.fetchOne(ctx, c.ID); ok {
				return q, true
			}
			break
		}
	}
	return Quote{}, false
}

// Price resolves a single coin id or symbol to its current price.
func (r *Resolver) Price(ctx context.Context, idOrSymbol string) (float64, bool) {
	q, ok := r.Quote(ctx, idOrSymbol)
	return q.Price, ok
}

// Batch resolves quotes for a set of ids. Ids are mapped through the symbol
// table, chunked to respect the provider's per-request limit, and the merged
// result is keyed by the ORIGINAL input id, so callers never see the
// canonical substitution. Unresolvable ids are absent from the result.
func (r *Resolver) Batch(ctx context.Context, ids []string) map[string]Quote {
	result := make(map[string]Quote, len(ids))
	if len(ids) == 0 {
		return result
	}

	// canonical id -> original ids (several symbols may map to one id)
	canonical := make(map[string][]string, len(ids))
	var order []string
	for _, id := range ids {
		key := strings.ToLower(strings.TrimSpace(id))
		if key == "" {
			continue
		}
		c := key
		if mapped, ok := wellKnown[key]; ok {
			c = mapped
		}
		if _, seen := canonical[c]; !seen {
			order = append(order, c)
		}
		canonical[c] = append(canonical[c], id)
	}

	for start := 0; start < len(order); start += r.chunkSize {
		end := min(start+r.chunkSize, len(order))
		chunk := order[start:end]
		quotes, ok := r.fetchChunk(ctx, chunk)
		if !ok {
			continue
		}
		for c, q := range quotes {
			for _, original := range canonical[c] {
				result[original] = q
			}
		}
	}
	return result
}

// Search runs a free-text query against the provider directory. Results are
// memoized; a failed search is not cached and is retried on the next call.
func (r *Resolver) Search(ctx context.Context, query string) ([]Candidate, error) {
	key := Fingerprint("search", r.vs, query)
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			return v.([]Candidate), nil
		}
	}
	candidates, err := r.provider.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Put(key, candidates)
	}
	return candidates, nil
}

// fetchOne fetches the quote of a single canonical id, reporting ok=false
// when the provider fails or does not know the id.
func (r *Resolver) fetchOne(ctx context.Context, id string) (Quote, bool) {
	quotes, ok := r.fetchChunk(ctx, []string{id})
	if !ok {
		return Quote{}, false
	}
	q, ok := quotes[id]
	return q, ok
}

// fetchChunk fetches quotes for one chunk of canonical ids, memoized under a
// fingerprint of the sorted chunk. Failures are never cached.
func (r *Resolver) fetchChunk(ctx context.Context, ids []string) (map[string]Quote, bool) {
	key := Fingerprint("price", append([]string{r.vs}, ids...)...)
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			return v.(map[string]Quote), true
		}
	}
	quotes, err := r.provider.SimplePrices(ctx, ids, r.vs)
	if err != nil {
		return nil, false
	}
	if r.cache != nil {
		r.cache.Put(key, quotes)
	}
	return quotes, true
}

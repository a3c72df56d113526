// Package cryptofolio tracks a user's cryptocurrency holdings as state derived
// from an append-only transaction ledger, enriched with market prices fetched
// from an external provider.
//
// The core functionalities include:
//   - Ledger Management: Recording buy and sell transactions in an immutable,
//     chronologically ordered record, behind a pluggable LedgerStore.
//   - Holding Aggregation: A pure recompute that rebuilds a Holding (quantity
//     and weighted-average cost basis) wholesale from a transaction history,
//     so the materialized position can never drift from the ledger.
//   - Price Resolution: Mapping a coin id or symbol to a canonical market id
//     and fetching price, 24h change, volume and market cap, with request
//     batching and a multi-step fallback chain. A failed lookup degrades to
//     "unavailable", never to a hard error.
//   - Caching: TTL memoization of provider responses keyed by a fingerprint
//     of the operation and its parameters, plus per-user snapshots of the
//     price-enriched holding set.
//   - Portfolio Service: Orchestrating stores, resolver and cache to serve
//     mutations, summaries, analytics and lossless import/export.
//
// This package serves as the foundational logic for the `cfo` command-line
// tool; any other front end is expected to translate the exported record
// shapes into its own transport format.
package cryptofolio

package cryptofolio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// snapshotTTL is how long a per-user price-enriched holding set is reused by
// the summary path before prices are resolved again.
const snapshotTTL = 5 * time.Minute

// Service orchestrates the ledger, the holding store, the price resolver and
// the caches. It holds no process-wide state: every collaborator is injected.
type Service struct {
	ledger    LedgerStore
	holdings  HoldingStore
	watchlist WatchlistStore
	resolver  *Resolver
	snapshots *Cache // per-user enriched holding sets, keyed by user id
	locks     keyLocks
	log       logrus.FieldLogger
}

// NewService creates a portfolio service. The watchlist store may be nil if
// the deployment has no watchlist; log may be nil to discard logs.
func NewService(ledger LedgerStore, holdings HoldingStore, watchlist WatchlistStore, resolver *Resolver, log logrus.FieldLogger) *Service {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Service{
		ledger:    ledger,
		holdings:  holdings,
		watchlist: watchlist,
		resolver:  resolver,
		snapshots: NewCache(snapshotTTL),
		log:       log,
	}
}

// keyLocks serializes holding recomputes per (user, coin) key, so concurrent
// writers cannot interleave a ledger read with a holding write.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*sync.Mutex)
	}
	l, ok := k.m[key]
	if !ok {
		l = new(sync.Mutex)
		k.m[key] = l
	}
	k.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// AddTransaction validates and appends a transaction, then recomputes the
// holding for its (user, coin).
func (s *Service) AddTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = time.Now()
	}
	appended, err := s.ledger.Append(ctx, tx)
	if err != nil {
		return Transaction{}, fmt.Errorf("appending transaction: %w", err)
	}
	if err := s.recompute(ctx, appended.UserID, appended.CoinID); err != nil {
		return Transaction{}, err
	}
	return appended, nil
}

// UpdateTransaction replaces the mutable fields of a transaction and
// recomputes the affected holding. When the update moves the transaction to
// another coin, both the old and the new coin's holdings are recomputed.
func (s *Service) UpdateTransaction(ctx context.Context, userID string, id int64, tx Transaction) (Transaction, error) {
	tx.UserID = userID
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	old, err := s.ledger.Get(ctx, userID, id)
	if err != nil {
		return Transaction{}, err
	}
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = old.OccurredAt
	}
	updated, err := s.ledger.Update(ctx, userID, id, tx)
	if err != nil {
		return Transaction{}, err
	}
	if err := s.recompute(ctx, userID, old.CoinID); err != nil {
		return Transaction{}, err
	}
	if updated.CoinID != old.CoinID {
		if err := s.recompute(ctx, userID, updated.CoinID); err != nil {
			return Transaction{}, err
		}
	}
	return updated, nil
}

// DeleteTransaction removes a transaction and recomputes its coin's holding.
func (s *Service) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	old, err := s.ledger.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.ledger.Delete(ctx, userID, id); err != nil {
		return err
	}
	return s.recompute(ctx, userID, old.CoinID)
}

// Transactions lists all of a user's transactions in ledger order.
func (s *Service) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	return s.ledger.ListByUser(ctx, userID)
}

// Holdings lists the user's current holdings, without refreshing prices.
func (s *Service) Holdings(ctx context.Context, userID string) ([]Holding, error) {
	return s.holdings.ListByUser(ctx, userID)
}

// recompute rebuilds the holding of one (user, coin) key from the ledger,
// serialized per key. Price resolution failure is non-fatal: the recomputed
// cost basis is always persisted, with the price left stale or zero.
func (s *Service) recompute(ctx context.Context, userID, coinID string) error {
	unlock := s.locks.lock(userID + "\x00" + coinID)
	defer unlock()

	txs, err := s.ledger.ListByUserCoin(ctx, userID, coinID)
	if err != nil {
		return fmt.Errorf("reading ledger for %s/%s: %w", userID, coinID, err)
	}

	h, ok := Recompute(txs)
	if !ok {
		// quantity dropped to zero or below: the holding row goes away
		if err := s.holdings.Delete(ctx, userID, coinID); err != nil {
			return fmt.Errorf("deleting holding %s/%s: %w", userID, coinID, err)
		}
		s.snapshots.Delete(userID)
		return nil
	}

	if q, ok := s.resolver.Quote(ctx, coinID); ok {
		h.CurrentPrice = q.Price
		h.PriceChange24h = q.Change24h
	} else if prev, err := s.holdings.Get(ctx, userID, coinID); err == nil {
		// keep the stale price rather than zeroing a known value
		h.CurrentPrice = prev.CurrentPrice
		h.PriceChange24h = prev.PriceChange24h
		s.log.WithFields(logrus.Fields{"user": userID, "coin": coinID}).
			Warn("price unavailable, keeping stale value")
	}
	h.UpdatedAt = time.Now()

	if err := s.holdings.Put(ctx, h); err != nil {
		return fmt.Errorf("storing holding %s/%s: %w", userID, coinID, err)
	}
	s.snapshots.Delete(userID)
	return nil
}

// Rebuild recomputes every holding of a user from the ledger. It is meant
// for bootstrapping a freshly loaded ledger, e.g. the file-backed CLI mode.
func (s *Service) Rebuild(ctx context.Context, userID string) error {
	txs, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("reading ledger for %s: %w", userID, err)
	}
	coins := make(map[string]bool)
	for _, tx := range txs {
		coins[tx.CoinID] = true
	}
	for coin := range coins {
		if err := s.recompute(ctx, userID, coin); err != nil {
			return err
		}
	}
	return nil
}

// Summary is an at-a-glance overview of a user's portfolio: the enriched
// holdings and the aggregate invested, value and profit over them.
type Summary struct {
	UserID        string    `json:"user_id"`
	Holdings      []Holding `json:"holdings"`
	TotalInvested float64   `json:"total_invested"`
	CurrentValue  float64   `json:"current_value"`
	ProfitLoss    float64   `json:"profit_loss"`
	ProfitLossPct float64   `json:"profit_loss_pct"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Summary fetches the user's holdings, enriches them with current prices and
// aggregates invested capital, current value and profit. It is read-only and
// never forces a ledger recompute. The enriched set is cached per user for a
// few minutes, so repeated reads within a session resolve prices once.
func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	if v, ok := s.snapshots.Get(userID); ok {
		return v.(*Summary), nil
	}

	holdings, err := s.holdings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reading holdings for %s: %w", userID, err)
	}

	ids := make([]string, 0, len(holdings))
	for _, h := range holdings {
		ids = append(ids, h.CoinID)
	}
	quotes := s.resolver.Batch(ctx, ids)

	sum := &Summary{UserID: userID, LastUpdated: time.Now()}
	for _, h := range holdings {
		if q, ok := quotes[h.CoinID]; ok {
			h.CurrentPrice = q.Price
			h.PriceChange24h = q.Change24h
		}
		sum.Holdings = append(sum.Holdings, h)
		sum.TotalInvested += h.TotalInvested.InexactFloat64()
		sum.CurrentValue += h.CurrentValue()
	}
	sum.ProfitLoss = sum.CurrentValue - sum.TotalInvested
	if sum.TotalInvested > 0 {
		sum.ProfitLossPct = sum.ProfitLoss / sum.TotalInvested * 100
	}

	s.snapshots.Put(userID, sum)
	return sum, nil
}

// Analytics computes the per-holding and portfolio-wide analytics over the
// price-enriched holding set.
func (s *Service) Analytics(ctx context.Context, userID string) (*Analytics, error) {
	sum, err := s.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ComputeAnalytics(sum.Holdings), nil
}

// Watch adds a coin to the user's watchlist.
func (s *Service) Watch(ctx context.Context, e WatchlistEntry) (WatchlistEntry, error) {
	if s.watchlist == nil {
		return WatchlistEntry{}, errors.New("watchlist is not configured")
	}
	if e.UserID == "" {
		return WatchlistEntry{}, &ValidationError{Field: "user_id", Reason: "is missing"}
	}
	if e.CoinID == "" {
		return WatchlistEntry{}, &ValidationError{Field: "coin_id", Reason: "is missing"}
	}
	return s.watchlist.Add(ctx, e)
}

// Unwatch removes a watchlist entry.
func (s *Service) Unwatch(ctx context.Context, userID string, id int64) error {
	if s.watchlist == nil {
		return errors.New("watchlist is not configured")
	}
	return s.watchlist.Remove(ctx, userID, id)
}

// Watchlist lists the user's watchlist entries.
func (s *Service) Watchlist(ctx context.Context, userID string) ([]WatchlistEntry, error) {
	if s.watchlist == nil {
		return nil, nil
	}
	return s.watchlist.ListByUser(ctx, userID)
}

// SearchCoins resolves a free-text query to candidate coins in the market
// directory.
func (s *Service) SearchCoins(ctx context.Context, query string) ([]Candidate, error) {
	return s.resolver.Search(ctx, query)
}

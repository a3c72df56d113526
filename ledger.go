package cryptofolio

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// LedgerStore is the durable, append-only log of transactions. Entries are
// owned by a user; an update is a full replace of the row's mutable fields.
//
// ListByUserCoin must return transactions ordered ascending by occurrence
// time, ties broken by ascending id, which is the order the aggregation
// engine depends on.
type LedgerStore interface {
	Append(ctx context.Context, tx Transaction) (Transaction, error)
	Update(ctx context.Context, userID string, id int64, tx Transaction) (Transaction, error)
	Delete(ctx context.Context, userID string, id int64) error
	Get(ctx context.Context, userID string, id int64) (Transaction, error)
	ListByUserCoin(ctx context.Context, userID, coinID string) ([]Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]Transaction, error)
}

// HoldingStore persists the materialized holdings, keyed by (user, coin).
// Delete of an absent holding is a no-op.
type HoldingStore interface {
	Put(ctx context.Context, h Holding) error
	Delete(ctx context.Context, userID, coinID string) error
	Get(ctx context.Context, userID, coinID string) (Holding, error)
	ListByUser(ctx context.Context, userID string) ([]Holding, error)
}

// WatchlistStore persists watchlist entries, simple CRUD records outside the
// aggregation core.
type WatchlistStore interface {
	Add(ctx context.Context, e WatchlistEntry) (WatchlistEntry, error)
	Remove(ctx context.Context, userID string, id int64) error
	ListByUser(ctx context.Context, userID string) ([]WatchlistEntry, error)
}

// byTimeThenID is the canonical ledger ordering.
func byTimeThenID(a, b Transaction) int {
	if c := a.OccurredAt.Compare(b.OccurredAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// MemoryLedger is an in-memory LedgerStore. It backs tests and the file-based
// CLI mode, where the ledger is loaded from and saved back to a JSONL file.
type MemoryLedger struct {
	mu           sync.RWMutex
	transactions []Transaction
	nextID       int64
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{nextID: 1}
}

// Append adds a transaction to the ledger, assigning it the next monotonic id
// and stamping RecordedAt if unset.
func (l *MemoryLedger) Append(_ context.Context, tx Transaction) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tx.ID >= l.nextID {
		// imported transactions keep their original ids
		l.nextID = tx.ID + 1
	} else {
		tx.ID = l.nextID
		l.nextID++
	}
	if tx.RecordedAt.IsZero() {
		tx.RecordedAt = time.Now()
	}
	l.transactions = append(l.transactions, tx)
	return tx, nil
}

// Update replaces the mutable fields of the identified transaction. The id,
// owner and RecordedAt of the stored row are preserved.
func (l *MemoryLedger) Update(_ context.Context, userID string, id int64, tx Transaction) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.transactions {
		old := l.transactions[i]
		if old.ID == id && old.UserID == userID {
			tx.ID = old.ID
			tx.UserID = old.UserID
			tx.RecordedAt = old.RecordedAt
			l.transactions[i] = tx
			return tx, nil
		}
	}
	return Transaction{}, fmt.Errorf("transaction %d for user %q: %w", id, userID, ErrNotFound)
}

func (l *MemoryLedger) Delete(_ context.Context, userID string, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, tx := range l.transactions {
		if tx.ID == id && tx.UserID == userID {
			l.transactions = slices.Delete(l.transactions, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("transaction %d for user %q: %w", id, userID, ErrNotFound)
}

func (l *MemoryLedger) Get(_ context.Context, userID string, id int64) (Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, tx := range l.transactions {
		if tx.ID == id && tx.UserID == userID {
			return tx, nil
		}
	}
	return Transaction{}, fmt.Errorf("transaction %d for user %q: %w", id, userID, ErrNotFound)
}

func (l *MemoryLedger) ListByUserCoin(_ context.Context, userID, coinID string) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Transaction
	for _, tx := range l.transactions {
		if tx.UserID == userID && tx.CoinID == coinID {
			out = append(out, tx)
		}
	}
	slices.SortFunc(out, byTimeThenID)
	return out, nil
}

func (l *MemoryLedger) ListByUser(_ context.Context, userID string) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Transaction
	for _, tx := range l.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	slices.SortFunc(out, byTimeThenID)
	return out, nil
}

// All returns every transaction in the ledger, in canonical order. It is
// used to persist the file-backed ledger.
func (l *MemoryLedger) All() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := slices.Clone(l.transactions)
	slices.SortFunc(out, byTimeThenID)
	return out
}

// MemoryHoldings is an in-memory HoldingStore.
type MemoryHoldings struct {
	mu       sync.RWMutex
	holdings map[string]Holding // keyed by userID+"\x00"+coinID
}

// NewMemoryHoldings creates an empty in-memory holding store.
func NewMemoryHoldings() *MemoryHoldings {
	return &MemoryHoldings{holdings: make(map[string]Holding)}
}

func holdingKey(userID, coinID string) string { return userID + "\x00" + coinID }

func (s *MemoryHoldings) Put(_ context.Context, h Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings[holdingKey(h.UserID, h.CoinID)] = h
	return nil
}

func (s *MemoryHoldings) Delete(_ context.Context, userID, coinID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holdings, holdingKey(userID, coinID))
	return nil
}

func (s *MemoryHoldings) Get(_ context.Context, userID, coinID string) (Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.holdings[holdingKey(userID, coinID)]
	if !ok {
		return Holding{}, fmt.Errorf("holding %s/%s: %w", userID, coinID, ErrNotFound)
	}
	return h, nil
}

func (s *MemoryHoldings) ListByUser(_ context.Context, userID string) ([]Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Holding
	for _, h := range s.holdings {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	slices.SortFunc(out, func(a, b Holding) int { return cmp.Compare(a.CoinID, b.CoinID) })
	return out, nil
}

// MemoryWatchlist is an in-memory WatchlistStore.
type MemoryWatchlist struct {
	mu      sync.RWMutex
	entries []WatchlistEntry
	nextID  int64
}

// NewMemoryWatchlist creates an empty in-memory watchlist.
func NewMemoryWatchlist() *MemoryWatchlist {
	return &MemoryWatchlist{nextID: 1}
}

func (s *MemoryWatchlist) Add(_ context.Context, e WatchlistEntry) (WatchlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *MemoryWatchlist) Remove(_ context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id && e.UserID == userID {
			s.entries = slices.Delete(s.entries, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("watchlist entry %d for user %q: %w", id, userID, ErrNotFound)
}

func (s *MemoryWatchlist) ListByUser(_ context.Context, userID string) ([]WatchlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []WatchlistEntry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

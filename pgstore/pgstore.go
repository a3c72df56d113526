// Package pgstore provides Postgres-backed implementations of the
// cryptofolio store interfaces on top of a pgx connection pool.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/avln/cryptofolio"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	user_id      TEXT NOT NULL,
	coin_id      TEXT NOT NULL,
	coin_symbol  TEXT NOT NULL DEFAULT '',
	coin_name    TEXT NOT NULL DEFAULT '',
	kind         TEXT NOT NULL CHECK (kind IN ('buy', 'sell')),
	quantity     NUMERIC NOT NULL CHECK (quantity > 0),
	unit_price   NUMERIC NOT NULL CHECK (unit_price > 0),
	total_paid   NUMERIC NOT NULL CHECK (total_paid > 0),
	fee          NUMERIC NOT NULL DEFAULT 0,
	exchange     TEXT NOT NULL DEFAULT '',
	notes        TEXT NOT NULL DEFAULT '',
	occurred_at  TIMESTAMPTZ NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS transactions_user_coin_idx
	ON transactions (user_id, coin_id, occurred_at, id);

CREATE TABLE IF NOT EXISTS holdings (
	user_id          TEXT NOT NULL,
	coin_id          TEXT NOT NULL,
	coin_symbol      TEXT NOT NULL DEFAULT '',
	coin_name        TEXT NOT NULL DEFAULT '',
	total_quantity   NUMERIC NOT NULL,
	total_invested   NUMERIC NOT NULL,
	avg_cost         NUMERIC NOT NULL,
	current_price    DOUBLE PRECISION NOT NULL DEFAULT 0,
	price_change_24h DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, coin_id)
);

CREATE TABLE IF NOT EXISTS watchlist (
	id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	user_id     TEXT NOT NULL,
	coin_id     TEXT NOT NULL,
	coin_symbol TEXT NOT NULL DEFAULT '',
	coin_name   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store bundles the three Postgres-backed stores over one pool.
type Store struct {
	Ledger    *Ledger
	Holdings  *Holdings
	Watchlist *Watchlist

	pool *pgxpool.Pool
}

// Connect opens a pool against dsn and ensures the schema exists.
func Connect(ctx context.Context, dsn string, log logrus.FieldLogger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if log != nil {
		log.Info("connected to postgres")
	}
	return &Store{
		Ledger:    &Ledger{pool: pool},
		Holdings:  &Holdings{pool: pool},
		Watchlist: &Watchlist{pool: pool},
		pool:      pool,
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// Ledger is the Postgres LedgerStore.
type Ledger struct {
	pool *pgxpool.Pool
}

const txColumns = `id, user_id, coin_id, coin_symbol, coin_name, kind,
	quantity, unit_price, total_paid, fee, exchange, notes, occurred_at, recorded_at`

func scanTransaction(row pgx.Row) (cryptofolio.Transaction, error) {
	var tx cryptofolio.Transaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.CoinID, &tx.CoinSymbol, &tx.CoinName,
		&tx.Kind, &tx.Quantity, &tx.UnitPrice, &tx.TotalPaid, &tx.Fee,
		&tx.Exchange, &tx.Notes, &tx.OccurredAt, &tx.RecordedAt)
	return tx, err
}

func (l *Ledger) Append(ctx context.Context, tx cryptofolio.Transaction) (cryptofolio.Transaction, error) {
	query := `INSERT INTO transactions
		(user_id, coin_id, coin_symbol, coin_name, kind, quantity, unit_price, total_paid, fee, exchange, notes, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + txColumns
	row := l.pool.QueryRow(ctx, query,
		tx.UserID, tx.CoinID, tx.CoinSymbol, tx.CoinName, string(tx.Kind),
		tx.Quantity, tx.UnitPrice, tx.TotalPaid, tx.Fee, tx.Exchange, tx.Notes, tx.OccurredAt)
	appended, err := scanTransaction(row)
	if err != nil {
		return cryptofolio.Transaction{}, fmt.Errorf("inserting transaction for user %s: %w", tx.UserID, err)
	}
	return appended, nil
}

func (l *Ledger) Update(ctx context.Context, userID string, id int64, tx cryptofolio.Transaction) (cryptofolio.Transaction, error) {
	query := `UPDATE transactions SET
		coin_id = $3, coin_symbol = $4, coin_name = $5, kind = $6,
		quantity = $7, unit_price = $8, total_paid = $9, fee = $10,
		exchange = $11, notes = $12, occurred_at = $13
		WHERE id = $1 AND user_id = $2
		RETURNING ` + txColumns
	row := l.pool.QueryRow(ctx, query, id, userID,
		tx.CoinID, tx.CoinSymbol, tx.CoinName, string(tx.Kind),
		tx.Quantity, tx.UnitPrice, tx.TotalPaid, tx.Fee, tx.Exchange, tx.Notes, tx.OccurredAt)
	updated, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cryptofolio.Transaction{}, fmt.Errorf("transaction %d for user %q: %w", id, userID, cryptofolio.ErrNotFound)
		}
		return cryptofolio.Transaction{}, fmt.Errorf("updating transaction %d: %w", id, err)
	}
	return updated, nil
}

func (l *Ledger) Delete(ctx context.Context, userID string, id int64) error {
	tag, err := l.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting transaction %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d for user %q: %w", id, userID, cryptofolio.ErrNotFound)
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, userID string, id int64) (cryptofolio.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1 AND user_id = $2`
	tx, err := scanTransaction(l.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cryptofolio.Transaction{}, fmt.Errorf("transaction %d for user %q: %w", id, userID, cryptofolio.ErrNotFound)
		}
		return cryptofolio.Transaction{}, fmt.Errorf("getting transaction %d: %w", id, err)
	}
	return tx, nil
}

func (l *Ledger) list(ctx context.Context, query string, args ...any) ([]cryptofolio.Transaction, error) {
	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txs []cryptofolio.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction row: %w", err)
		}
		txs = append(txs, tx)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", rows.Err())
	}
	return txs, nil
}

func (l *Ledger) ListByUserCoin(ctx context.Context, userID, coinID string) ([]cryptofolio.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions
		WHERE user_id = $1 AND coin_id = $2
		ORDER BY occurred_at ASC, id ASC`
	return l.list(ctx, query, userID, coinID)
}

func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]cryptofolio.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions
		WHERE user_id = $1
		ORDER BY occurred_at ASC, id ASC`
	return l.list(ctx, query, userID)
}

// Holdings is the Postgres HoldingStore.
type Holdings struct {
	pool *pgxpool.Pool
}

const holdingColumns = `user_id, coin_id, coin_symbol, coin_name,
	total_quantity, total_invested, avg_cost, current_price, price_change_24h, updated_at`

func scanHolding(row pgx.Row) (cryptofolio.Holding, error) {
	var h cryptofolio.Holding
	err := row.Scan(&h.UserID, &h.CoinID, &h.CoinSymbol, &h.CoinName,
		&h.TotalQuantity, &h.TotalInvested, &h.AvgCost,
		&h.CurrentPrice, &h.PriceChange24h, &h.UpdatedAt)
	return h, err
}

func (s *Holdings) Put(ctx context.Context, h cryptofolio.Holding) error {
	query := `INSERT INTO holdings
		(user_id, coin_id, coin_symbol, coin_name, total_quantity, total_invested, avg_cost, current_price, price_change_24h, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, coin_id) DO UPDATE SET
			coin_symbol = EXCLUDED.coin_symbol,
			coin_name = EXCLUDED.coin_name,
			total_quantity = EXCLUDED.total_quantity,
			total_invested = EXCLUDED.total_invested,
			avg_cost = EXCLUDED.avg_cost,
			current_price = EXCLUDED.current_price,
			price_change_24h = EXCLUDED.price_change_24h,
			updated_at = EXCLUDED.updated_at`
	_, err := s.pool.Exec(ctx, query,
		h.UserID, h.CoinID, h.CoinSymbol, h.CoinName,
		h.TotalQuantity, h.TotalInvested, h.AvgCost,
		h.CurrentPrice, h.PriceChange24h, h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting holding %s/%s: %w", h.UserID, h.CoinID, err)
	}
	return nil
}

func (s *Holdings) Delete(ctx context.Context, userID, coinID string) error {
	// deleting an absent holding is a no-op
	_, err := s.pool.Exec(ctx, `DELETE FROM holdings WHERE user_id = $1 AND coin_id = $2`, userID, coinID)
	if err != nil {
		return fmt.Errorf("deleting holding %s/%s: %w", userID, coinID, err)
	}
	return nil
}

func (s *Holdings) Get(ctx context.Context, userID, coinID string) (cryptofolio.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE user_id = $1 AND coin_id = $2`
	h, err := scanHolding(s.pool.QueryRow(ctx, query, userID, coinID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cryptofolio.Holding{}, fmt.Errorf("holding %s/%s: %w", userID, coinID, cryptofolio.ErrNotFound)
		}
		return cryptofolio.Holding{}, fmt.Errorf("getting holding %s/%s: %w", userID, coinID, err)
	}
	return h, nil
}

func (s *Holdings) ListByUser(ctx context.Context, userID string) ([]cryptofolio.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE user_id = $1 ORDER BY coin_id`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying holdings for user %s: %w", userID, err)
	}
	defer rows.Close()

	var hs []cryptofolio.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning holding row: %w", err)
		}
		hs = append(hs, h)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating holding rows: %w", rows.Err())
	}
	return hs, nil
}

// Watchlist is the Postgres WatchlistStore.
type Watchlist struct {
	pool *pgxpool.Pool
}

func (s *Watchlist) Add(ctx context.Context, e cryptofolio.WatchlistEntry) (cryptofolio.WatchlistEntry, error) {
	query := `INSERT INTO watchlist (user_id, coin_id, coin_symbol, coin_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := s.pool.QueryRow(ctx, query, e.UserID, e.CoinID, e.CoinSymbol, e.CoinName).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return cryptofolio.WatchlistEntry{}, fmt.Errorf("inserting watchlist entry for user %s: %w", e.UserID, err)
	}
	return e, nil
}

func (s *Watchlist) Remove(ctx context.Context, userID string, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM watchlist WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting watchlist entry %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("watchlist entry %d for user %q: %w", id, userID, cryptofolio.ErrNotFound)
	}
	return nil
}

func (s *Watchlist) ListByUser(ctx context.Context, userID string) ([]cryptofolio.WatchlistEntry, error) {
	query := `SELECT id, user_id, coin_id, coin_symbol, coin_name, created_at
		FROM watchlist WHERE user_id = $1 ORDER BY created_at, id`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying watchlist for user %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []cryptofolio.WatchlistEntry
	for rows.Next() {
		var e cryptofolio.WatchlistEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.CoinID, &e.CoinSymbol, &e.CoinName, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning watchlist row: %w", err)
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating watchlist rows: %w", rows.Err())
	}
	return entries, nil
}

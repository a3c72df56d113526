// Package cmd implements the CLI application to manage a crypto portfolio.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/avln/cryptofolio"
	"github.com/avln/cryptofolio/coingecko"
	"github.com/avln/cryptofolio/pgstore"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on
// the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&editCmd{}, "transactions")
	c.Register(&rmCmd{}, "transactions")
	c.Register(&txCmd{}, "transactions")

	c.Register(&summaryCmd{}, "reports")
	c.Register(&analyticsCmd{}, "reports")

	c.Register(&exportCmd{}, "data")
	c.Register(&importCmd{}, "data")

	c.Register(&searchCmd{}, "market")
	c.Register(&watchCmd{}, "market")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var _ = godotenv.Load()

var (
	userFlag       = flag.String("user", envOr("CFO_USER", "default"), "User whose portfolio is managed.")
	ledgerFileFlag = flag.String("ledger-file", envOr("LEDGER_FILE", "transactions.jsonl"), "Path to the ledger file (JSONL format), used when DATABASE_URL is not set.")
	currencyFlag   = flag.String("currency", envOr("VS_CURRENCY", "usd"), "Quote currency for prices and reports.")
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// app bundles the portfolio service with the persistence hook of the
// file-backed mode.
type app struct {
	svc   *cryptofolio.Service
	close func()
	// save persists the file-backed ledger after a mutation; nil in
	// postgres mode, where the store is durable on its own.
	save func() error
}

// newApp builds the portfolio service from the environment: a Postgres store
// when DATABASE_URL is set, otherwise a memory store loaded from the ledger
// file.
func newApp(ctx context.Context) (*app, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(envOr("LOG_LEVEL", "warn")); err == nil {
		log.SetLevel(lvl)
	}

	ttl := cryptofolio.DefaultCacheTTL
	if v := os.Getenv("PRICE_CACHE_TTL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PRICE_CACHE_TTL %q: %w", v, err)
		}
		ttl = time.Duration(secs) * time.Second
	}
	cache := cryptofolio.NewCache(ttl)
	provider := coingecko.New(os.Getenv("COINGECKO_API_URL"), os.Getenv("COINGECKO_API_KEY"), log)
	resolver := cryptofolio.NewResolver(provider, cache, *currencyFlag)

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		store, err := pgstore.Connect(ctx, dsn, log)
		if err != nil {
			return nil, err
		}
		svc := cryptofolio.NewService(store.Ledger, store.Holdings, store.Watchlist, resolver, log)
		return &app{svc: svc, close: store.Close}, nil
	}

	ledger := cryptofolio.NewMemoryLedger()
	holdings := cryptofolio.NewMemoryHoldings()
	watchlist := cryptofolio.NewMemoryWatchlist()
	svc := cryptofolio.NewService(ledger, holdings, watchlist, resolver, log)

	f, err := os.Open(*ledgerFileFlag)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// a missing ledger file is an empty portfolio
	case err != nil:
		return nil, fmt.Errorf("opening ledger file %q: %w", *ledgerFileFlag, err)
	default:
		txs, err := cryptofolio.DecodeTransactions(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading ledger file %q: %w", *ledgerFileFlag, err)
		}
		for _, tx := range txs {
			if _, err := ledger.Append(ctx, tx); err != nil {
				return nil, err
			}
		}
		if err := svc.Rebuild(ctx, *userFlag); err != nil {
			return nil, err
		}
	}

	save := func() error {
		f, err := os.Create(*ledgerFileFlag)
		if err != nil {
			return fmt.Errorf("writing ledger file %q: %w", *ledgerFileFlag, err)
		}
		defer f.Close()
		return cryptofolio.EncodeTransactions(f, ledger.All())
	}
	return &app{svc: svc, save: save}, nil
}

func (a *app) Close() {
	if a.close != nil {
		a.close()
	}
}

// persist saves the file-backed ledger after a mutation.
func (a *app) persist() error {
	if a.save == nil {
		return nil
	}
	return a.save()
}

// fail prints the error and returns the failure exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return subcommands.ExitFailure
}

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/avln/cryptofolio"
	"github.com/avln/cryptofolio/renderer"
)

type searchCmd struct{}

func (*searchCmd) Name() string           { return "search" }
func (*searchCmd) Synopsis() string       { return "search the market directory for a coin" }
func (*searchCmd) SetFlags(*flag.FlagSet) {}
func (*searchCmd) Usage() string {
	return `cfo search <query>

  Searches the market data directory and lists candidate coins with their
  canonical id, the id to use with buy/sell/watch.
`
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := strings.Join(f.Args(), " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "Error: missing search query")
		return subcommands.ExitUsageError
	}

	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	candidates, err := a.svc.SearchCoins(ctx, query)
	if err != nil {
		return fail(err)
	}
	fmt.Print(renderer.CandidatesMarkdown(candidates))
	return subcommands.ExitSuccess
}

type watchCmd struct {
	add    string
	symbol string
	name   string
	remove int64
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "manage the watchlist" }
func (*watchCmd) Usage() string {
	return `cfo watch [-add <coin id> [-symbol <sym>] [-name <name>] | -rm <entry id>]

  Without flags, lists the watchlist. With -add, follows a coin; with -rm,
  stops following it.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.add, "add", "", "Canonical id of a coin to follow.")
	f.StringVar(&c.symbol, "symbol", "", "Symbol of the added coin.")
	f.StringVar(&c.name, "name", "", "Display name of the added coin.")
	f.Int64Var(&c.remove, "rm", 0, "Id of the watchlist entry to remove.")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	switch {
	case c.add != "":
		e, err := a.svc.Watch(ctx, cryptofolio.WatchlistEntry{
			UserID:     *userFlag,
			CoinID:     c.add,
			CoinSymbol: c.symbol,
			CoinName:   c.name,
		})
		if err != nil {
			return fail(err)
		}
		fmt.Printf("Watching %s (#%d)\n", e.CoinID, e.ID)
	case c.remove != 0:
		if err := a.svc.Unwatch(ctx, *userFlag, c.remove); err != nil {
			return fail(err)
		}
		fmt.Printf("Removed watchlist entry #%d\n", c.remove)
	default:
		entries, err := a.svc.Watchlist(ctx, *userFlag)
		if err != nil {
			return fail(err)
		}
		fmt.Print(renderer.WatchlistMarkdown(entries))
	}
	return subcommands.ExitSuccess
}

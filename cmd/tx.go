package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/avln/cryptofolio"
	"github.com/avln/cryptofolio/renderer"
)

// txFlags holds the flags shared by the buy, sell and edit subcommands.
type txFlags struct {
	coin     string
	symbol   string
	name     string
	quantity string
	price    string
	total    string
	fee      string
	exchange string
	notes    string
	date     string
}

func (t *txFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&t.coin, "coin", "", "Canonical coin id, e.g. \"bitcoin\".")
	f.StringVar(&t.symbol, "symbol", "", "Coin symbol, e.g. \"btc\".")
	f.StringVar(&t.name, "name", "", "Coin display name.")
	f.StringVar(&t.quantity, "q", "", "Quantity bought or sold.")
	f.StringVar(&t.price, "p", "", "Unit price in the quote currency.")
	f.StringVar(&t.total, "total", "", "Total cash paid or received, fees included. Defaults to q*p.")
	f.StringVar(&t.fee, "fee", "0", "Fee paid, in the quote currency.")
	f.StringVar(&t.exchange, "exchange", "", "Exchange where the trade happened.")
	f.StringVar(&t.notes, "notes", "", "Free-form note.")
	f.StringVar(&t.date, "d", "", "Date of the trade (YYYY-MM-DD), defaults to now.")
}

// transaction builds a Transaction from the flags. Full validation happens in
// the service; here only the numeric parsing can fail.
func (t *txFlags) transaction(kind cryptofolio.Kind) (cryptofolio.Transaction, error) {
	tx := cryptofolio.Transaction{
		UserID:     *userFlag,
		CoinID:     t.coin,
		CoinSymbol: t.symbol,
		CoinName:   t.name,
		Kind:       kind,
		Exchange:   t.exchange,
		Notes:      t.notes,
	}
	var err error
	if tx.Quantity, err = decimal.NewFromString(t.quantity); err != nil {
		return tx, fmt.Errorf("invalid quantity %q: %w", t.quantity, err)
	}
	if tx.UnitPrice, err = decimal.NewFromString(t.price); err != nil {
		return tx, fmt.Errorf("invalid price %q: %w", t.price, err)
	}
	if t.total == "" {
		tx.TotalPaid = tx.Quantity.Mul(tx.UnitPrice)
	} else if tx.TotalPaid, err = decimal.NewFromString(t.total); err != nil {
		return tx, fmt.Errorf("invalid total %q: %w", t.total, err)
	}
	if tx.Fee, err = decimal.NewFromString(t.fee); err != nil {
		return tx, fmt.Errorf("invalid fee %q: %w", t.fee, err)
	}
	if t.date != "" {
		if tx.OccurredAt, err = time.Parse("2006-01-02", t.date); err != nil {
			return tx, fmt.Errorf("invalid date %q: %w", t.date, err)
		}
	}
	return tx, nil
}

type buyCmd struct{ txFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a buy transaction" }
func (*buyCmd) Usage() string {
	return `cfo buy -coin <id> -symbol <sym> -q <quantity> -p <unit price> [-total <cash paid>] [-d <date>]

  Records a buy in the ledger and recomputes the holding. The total defaults
  to quantity times unit price; pass -total to record the cash actually
  spent, fees included.
`
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return recordTransaction(ctx, &c.txFlags, cryptofolio.Buy)
}

type sellCmd struct{ txFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sell transaction" }
func (*sellCmd) Usage() string {
	return `cfo sell -coin <id> -symbol <sym> -q <quantity> -p <unit price> [-total <cash received>] [-d <date>]

  Records a sell in the ledger and recomputes the holding. Selling the whole
  position removes the holding.
`
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return recordTransaction(ctx, &c.txFlags, cryptofolio.Sell)
}

func recordTransaction(ctx context.Context, flags *txFlags, kind cryptofolio.Kind) subcommands.ExitStatus {
	tx, err := flags.transaction(kind)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	recorded, err := a.svc.AddTransaction(ctx, tx)
	if err != nil {
		return fail(err)
	}
	if err := a.persist(); err != nil {
		return fail(err)
	}
	fmt.Printf("Recorded %s #%d: %s %s at %s\n",
		recorded.Kind, recorded.ID, recorded.Quantity, recorded.CoinID, recorded.UnitPrice)
	return subcommands.ExitSuccess
}

type editCmd struct {
	txFlags
	id   int64
	kind string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "replace a recorded transaction" }
func (*editCmd) Usage() string {
	return `cfo edit -id <id> -kind <buy|sell> -coin <id> -q <quantity> -p <unit price> [...]

  Replaces the mutable fields of a transaction and recomputes the affected
  holdings. Moving the transaction to another coin recomputes both coins.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	c.txFlags.SetFlags(f)
	f.Int64Var(&c.id, "id", 0, "Id of the transaction to replace.")
	f.StringVar(&c.kind, "kind", "", "Transaction kind (buy or sell).")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := cryptofolio.ParseKind(c.kind)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	tx, err := c.transaction(kind)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	updated, err := a.svc.UpdateTransaction(ctx, *userFlag, c.id, tx)
	if err != nil {
		return fail(err)
	}
	if err := a.persist(); err != nil {
		return fail(err)
	}
	fmt.Printf("Updated transaction #%d\n", updated.ID)
	return subcommands.ExitSuccess
}

type rmCmd struct {
	id int64
}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete a transaction" }
func (*rmCmd) Usage() string {
	return `cfo rm -id <id>

  Deletes a transaction from the ledger and recomputes its coin's holding.
`
}

func (c *rmCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Id of the transaction to delete.")
}

func (c *rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	if err := a.svc.DeleteTransaction(ctx, *userFlag, c.id); err != nil {
		return fail(err)
	}
	if err := a.persist(); err != nil {
		return fail(err)
	}
	fmt.Printf("Deleted transaction #%d\n", c.id)
	return subcommands.ExitSuccess
}

type txCmd struct{}

func (*txCmd) Name() string           { return "tx" }
func (*txCmd) Synopsis() string       { return "list the transaction log" }
func (*txCmd) SetFlags(*flag.FlagSet) {}
func (*txCmd) Usage() string {
	return `cfo tx

  Displays the user's transactions in chronological order.
`
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	txs, err := a.svc.Transactions(ctx, *userFlag)
	if err != nil {
		return fail(err)
	}
	fmt.Print(renderer.TransactionsMarkdown(txs, *currencyFlag))
	return subcommands.ExitSuccess
}

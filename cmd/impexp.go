package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/avln/cryptofolio"
)

type exportCmd struct {
	format string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the portfolio" }
func (*exportCmd) Usage() string {
	return `cfo export [-format json|csv] [-o <file>]

  Exports the portfolio. The json format is a structured document with
  holdings, analytics, transactions and watchlist; the csv format is a flat
  transaction table. Both can be re-imported without losing ledger content.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "json", "Export format (json or csv).")
	f.StringVar(&c.output, "o", "", "Output file, defaults to stdout.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := cryptofolio.ParseExportFormat(c.format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	out := os.Stdout
	if c.output != "" {
		out, err = os.Create(c.output)
		if err != nil {
			return fail(err)
		}
		defer out.Close()
	}

	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	if err := a.svc.Export(ctx, *userFlag, format, out); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	format string
	input  string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from an export" }
func (*importCmd) Usage() string {
	return `cfo import [-format json|csv] -i <file>

  Appends the transactions of an export to the ledger and recomputes every
  affected holding.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "json", "Import format (json or csv).")
	f.StringVar(&c.input, "i", "", "Input file, defaults to stdin.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := cryptofolio.ParseExportFormat(c.format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	in := os.Stdin
	if c.input != "" {
		in, err = os.Open(c.input)
		if err != nil {
			return fail(err)
		}
		defer in.Close()
	}

	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	n, err := a.svc.Import(ctx, *userFlag, format, in)
	if err != nil {
		return fail(err)
	}
	if err := a.persist(); err != nil {
		return fail(err)
	}
	fmt.Printf("Imported %d transactions\n", n)
	return subcommands.ExitSuccess
}

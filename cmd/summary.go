package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/avln/cryptofolio/renderer"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct{}

func (*summaryCmd) Name() string           { return "summary" }
func (*summaryCmd) Synopsis() string       { return "display a portfolio summary" }
func (*summaryCmd) SetFlags(*flag.FlagSet) {}
func (*summaryCmd) Usage() string {
	return `cfo summary

  Displays the holdings enriched with current prices, and the aggregate
  invested capital, current value and profit.
`
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	sum, err := a.svc.Summary(ctx, *userFlag)
	if err != nil {
		return fail(err)
	}
	fmt.Print(renderer.SummaryMarkdown(sum, *currencyFlag))
	return subcommands.ExitSuccess
}

type analyticsCmd struct{}

func (*analyticsCmd) Name() string           { return "analytics" }
func (*analyticsCmd) Synopsis() string       { return "display portfolio analytics" }
func (*analyticsCmd) SetFlags(*flag.FlagSet) {}
func (*analyticsCmd) Usage() string {
	return `cfo analytics

  Displays per-holding profit and allocation, the best and worst performer,
  and the portfolio diversity score.
`
}

func (c *analyticsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	analytics, err := a.svc.Analytics(ctx, *userFlag)
	if err != nil {
		return fail(err)
	}
	fmt.Print(renderer.AnalyticsMarkdown(analytics, *currencyFlag))
	return subcommands.ExitSuccess
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/mystock/internal/models"
)

type holdingsCmd struct {
	category string
	asJSON   bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "list stored holdings" }
func (*holdingsCmd) Usage() string {
	return `mystock holdings [-category <CATEGORY>] [-json]

  Lists the holdings in the store, optionally filtered to one category
  (INDIAN_STOCK, SG_STOCK, US_STOCK, INDIAN_MF, SG_MF, PRECIOUS_METAL).
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "category", "", "Only list holdings in this category")
	f.BoolVar(&c.asJSON, "json", false, "Print JSON instead of a table")
}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var category models.Category
	if c.category != "" {
		cat, ok := models.ParseCategory(c.category)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown category %q\n", c.category)
			return subcommands.ExitUsageError
		}
		category = cat
	}

	a, err := openApp(true)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	holdings, err := a.Store.GetHoldings(ctx, category)
	if err != nil {
		return fail(err)
	}
	if c.asJSON {
		return printJSON(holdings)
	}
	printMarkdown(holdingsMarkdown(holdings))
	return subcommands.ExitSuccess
}

type portfolioCmd struct {
	asJSON bool
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "show the enriched portfolio with current prices" }
func (*portfolioCmd) Usage() string {
	return `mystock portfolio [-json]

  Resolves a price for every holding and prints values, profit and loss,
  category totals and portfolio totals in the reporting currency.
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "Print JSON instead of a report")
}

func (c *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(true)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	summary, err := a.Portfolio.GetPortfolio(ctx)
	if err != nil {
		return fail(err)
	}
	if c.asJSON {
		return printJSON(summary)
	}
	printMarkdown(portfolioMarkdown(summary))
	return subcommands.ExitSuccess
}

func printJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

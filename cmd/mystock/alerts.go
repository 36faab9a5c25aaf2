package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/mystock/internal/common"
)

type alertsCmd struct {
	threshold float64
	asJSON    bool
}

func (*alertsCmd) Name() string     { return "alerts" }
func (*alertsCmd) Synopsis() string { return "check equity holdings for large daily moves" }
func (*alertsCmd) Usage() string {
	return `mystock alerts [-threshold <pct>] [-json]

  Runs one monitor pass over the equity holdings and lists every symbol
  whose last close moved by at least the threshold. Alerts are also sent
  to Kafka when it is configured.
`
}

func (c *alertsCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.threshold, "threshold", 0, "Move in percent that raises an alert; defaults to the configured threshold")
	f.BoolVar(&c.asJSON, "json", false, "Print JSON instead of a list")
}

func (c *alertsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.threshold < 0 {
		fmt.Fprintln(os.Stderr, "threshold must not be negative")
		return subcommands.ExitUsageError
	}

	a, err := openApp(true, func(cfg *common.Config) {
		if c.threshold > 0 {
			cfg.Monitor.AlertThreshold = c.threshold
		}
	})
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	alerts, err := a.Monitor.Check(ctx)
	if err != nil {
		return fail(err)
	}
	if c.asJSON {
		return printJSON(alerts)
	}
	printMarkdown(alertsMarkdown(alerts))
	return subcommands.ExitSuccess
}

// Command mystock is the command line client for the portfolio tracker.
// Every subcommand runs the application in-process against the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/bobmcallan/mystock/internal/app"
	"github.com/bobmcallan/mystock/internal/common"
)

var (
	configPath = flag.String("config", "", "Path to a TOML config file merged over the defaults")
	verbose    = flag.Bool("v", false, "Log at the configured level instead of warnings only")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&serveCmd{}, "server")

	c.Register(&holdingsCmd{}, "portfolio")
	c.Register(&portfolioCmd{}, "portfolio")
	c.Register(&importCmd{}, "portfolio")
	c.Register(&exportCmd{}, "portfolio")

	c.Register(&chatCmd{}, "ai")
	c.Register(&insightsCmd{}, "ai")

	c.Register(&alertsCmd{}, "monitor")
}

// openApp loads the merged config and builds the application. Quiet
// commands only log warnings unless -v is set.
func openApp(quiet bool, tweaks ...func(*common.Config)) (*app.App, error) {
	cfg, err := common.LoadConfig(app.ConfigPaths(*configPath)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if quiet && !*verbose {
		cfg.Logging.Level = "warn"
	}
	for _, tweak := range tweaks {
		tweak(cfg)
	}
	return app.NewAppWithConfig(cfg)
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Println(md)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

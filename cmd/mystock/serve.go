package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/server"
)

type serveCmd struct {
	port int
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the REST, websocket and MCP server" }
func (*serveCmd) Usage() string {
	return `mystock serve [-port <n>]

  Starts the HTTP server with the background monitor and price scheduler.
  Stops on SIGINT or SIGTERM.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.port, "port", 0, "Listen port; overrides the configured port when set")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(false, func(cfg *common.Config) {
		if c.port > 0 {
			cfg.Server.Port = c.port
		}
	})
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	common.PrintBanner(a.Config, a.Logger)
	a.StartBackground()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = server.NewServer(a).Serve(ctx)
	common.PrintShutdownBanner(a.Logger)
	if err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

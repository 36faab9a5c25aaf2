package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bobmcallan/mystock/internal/app"
	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/server"
)

func main() {
	a, err := app.NewApp("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	common.PrintBanner(a.Config, a.Logger)
	a.StartBackground()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.NewServer(a).Serve(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server failed")
	}

	common.PrintShutdownBanner(a.Logger)
}

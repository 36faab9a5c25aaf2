package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner to stderr.
func PrintBanner(config *Config, logger *Logger) {
	printBanner(os.Stderr, config)

	logger.Info().
		Str("version", Version).
		Str("build", Build).
		Str("commit", GitCommit).
		Str("environment", config.Environment).
		Str("storage", config.Storage.Backend).
		Str("ai_provider", config.AI.Provider).
		Str("ai_model", config.AI.ModelID()).
		Msg("Application started")
}

func printBanner(w io.Writer, config *Config) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 60) + banner.ColorReset

	art := []string{
		`  _ __ ___  _   _ ___| |_ ___   ___| | __`,
		` | '_ ' _ \| | | / __| __/ _ \ / __| |/ /`,
		` | | | | | | |_| \__ \ || (_) | (__|   <`,
		` |_| |_| |_|\__, |___/\__\___/ \___|_|\_\`,
		`            |___/`,
	}

	fmt.Fprintf(w, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(w, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s  Personal Portfolio Tracker%s\n\n%s\n\n", textColor, banner.ColorReset, hr)

	ai := "not configured"
	if config.AI.IsConfigured() {
		ai = fmt.Sprintf("%s (%s)", config.AI.Provider, config.AI.ModelID())
	}

	kvLines := [][2]string{
		{"Version", Version},
		{"Commit", GitCommit},
		{"Environment", config.Environment},
		{"Service URL", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)},
		{"Storage", config.Storage.Backend},
		{"AI", ai},
		{"Currency", config.ReportingCurrency},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-14s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)
}

// PrintShutdownBanner displays the application shutdown banner to stderr.
func PrintShutdownBanner(logger *Logger) {
	hr := banner.ColorCyan + strings.Repeat("═", 36) + banner.ColorReset
	fmt.Fprintf(os.Stderr, "\n%s\n%s  MYSTOCK: SHUTTING DOWN%s\n%s\n\n", hr, banner.ColorBold+banner.ColorWhite, banner.ColorReset, hr)

	logger.Info().Msg("Application shutting down")
}

package app

import (
	"context"
	"time"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

// startPriceScheduler re-enriches the portfolio on a fixed interval so the
// price cache stays warm for the UI and the agent's cached-price tools
func startPriceScheduler(ctx context.Context, portfolioService interfaces.PortfolioService, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Price scheduler: stopped")
			return
		case <-ticker.C:
			refreshPrices(ctx, portfolioService, logger)
		}
	}
}

func refreshPrices(ctx context.Context, portfolioService interfaces.PortfolioService, logger *common.Logger) {
	start := time.Now()

	summary, err := portfolioService.GetPortfolio(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Price refresh: failed to load portfolio")
		return
	}
	if len(summary.Holdings) == 0 {
		return
	}

	unpriced := 0
	for _, h := range summary.Holdings {
		if h.PriceSource == models.PriceSourceBuyPrice {
			unpriced++
		}
	}

	logger.Info().
		Int("holdings", len(summary.Holdings)).
		Int("unpriced", unpriced).
		Dur("elapsed", time.Since(start)).
		Msg("Price refresh: complete")
}

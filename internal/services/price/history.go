// Package price resolves normalised price records for equities, funds and metals
package price

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

// FallbackHistory tries each history source in order and returns the first
// non-empty result
type FallbackHistory struct {
	sources []interfaces.HistoryClient
	logger  *common.Logger
}

// NewFallbackHistory chains history sources; nil sources are skipped
func NewFallbackHistory(logger *common.Logger, sources ...interfaces.HistoryClient) *FallbackHistory {
	h := &FallbackHistory{logger: logger}
	for _, s := range sources {
		if s != nil {
			h.sources = append(h.sources, s)
		}
	}
	return h
}

// GetHistory implements interfaces.HistoryClient
func (h *FallbackHistory) GetHistory(ctx context.Context, symbol, rng string) (*models.PriceHistory, error) {
	var errs []error
	for i, src := range h.sources {
		hist, err := src.GetHistory(ctx, symbol, rng)
		if err == nil && hist != nil && len(hist.Bars) > 0 {
			return hist, nil
		}
		if err == nil {
			err = fmt.Errorf("no bars for %s", symbol)
		}
		errs = append(errs, err)
		if i < len(h.sources)-1 {
			h.logger.Debug().Str("symbol", symbol).Str("range", rng).Err(err).Msg("History source failed, trying next")
		}
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no history source configured")
	}
	return nil, errors.Join(errs...)
}

var _ interfaces.HistoryClient = (*FallbackHistory)(nil)

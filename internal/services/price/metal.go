package price

import (
	"context"
	"strings"
	"time"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
	"github.com/bobmcallan/mystock/internal/signals"
)

// FallbackUSDSGD is used when no USD/SGD rate can be resolved
const FallbackUSDSGD = 1.35

// MetalTickers maps supported metals to their USD per troy ounce futures
var MetalTickers = map[string]string{
	"GOLD":   "GC=F",
	"SILVER": "SI=F",
}

// MetalResolver prices precious metals in SGD per gram
type MetalResolver struct {
	store     interfaces.PriceCacheStore
	history   interfaces.HistoryClient
	converter interfaces.CurrencyConverter
	cache     common.CacheConfig
	logger    *common.Logger
	now       func() time.Time
}

// NewMetalResolver creates a metal resolver
func NewMetalResolver(store interfaces.PriceCacheStore, history interfaces.HistoryClient, converter interfaces.CurrencyConverter, cache common.CacheConfig, logger *common.Logger) *MetalResolver {
	return &MetalResolver{
		store:     store,
		history:   history,
		converter: converter,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// Resolve prices metal ("GOLD" or "SILVER") from its futures contract,
// converted from USD per troy ounce to SGD per gram and rounded to cents
func (r *MetalResolver) Resolve(ctx context.Context, metal string) (*models.PriceRecord, bool) {
	metal = strings.ToUpper(strings.TrimSpace(metal))
	key := models.MetalKey(metal)

	cached, err := r.store.GetCachedPrice(ctx, key, r.cache.MetalTTL())
	if err != nil {
		r.logger.Warn().Str("key", key).Err(err).Msg("Price cache read failed")
	}
	if cached != nil && cached.CurrentPrice > 0 {
		cached.Source = models.PriceSourceCache
		return cached, true
	}

	ticker, ok := MetalTickers[metal]
	if !ok {
		r.logger.Warn().Str("metal", metal).Msg("Unsupported metal")
		return nil, false
	}

	recent, err := r.history.GetHistory(ctx, ticker, models.Range5Day)
	latest, ok := recent.Latest()
	if err != nil || !ok {
		r.logger.Warn().Str("metal", metal).Err(err).Msg("Failed to fetch metal price")
		return nil, false
	}

	usdSGD, ok := r.converter.GetRate(ctx, "USD", "SGD")
	if !ok {
		r.logger.Warn().Float64("rate", FallbackUSDSGD).Msg("USD/SGD unavailable, using fallback rate")
		usdSGD = FallbackUSDSGD
	}
	perGram := func(usdPerOz float64) float64 {
		return usdPerOz / common.TroyOunceGrams * usdSGD
	}

	current := perGram(latest.Close)
	high, low := current, current
	if full, err := r.history.GetHistory(ctx, ticker, models.RangeMax); err == nil && full != nil && len(full.Bars) > 0 {
		h, l := signals.Extremes(full.Bars)
		high, low = perGram(h), perGram(l)
	}

	trend := models.TrendSideways
	if hist, err := r.history.GetHistory(ctx, ticker, models.Range3Month); err == nil && hist != nil {
		trend = signals.ClassifyTrend(hist.Bars)
	}

	rec := &models.PriceRecord{
		Symbol:       key,
		CurrentPrice: signals.Round2(current),
		AllTimeHigh:  signals.Round2(high),
		AllTimeLow:   signals.Round2(low),
		Trend:        trend,
		Currency:     "SGD",
		FetchedAt:    r.now().UTC(),
		Source:       models.PriceSourceLive,
	}

	if err := r.store.UpsertPriceCache(ctx, rec); err != nil {
		r.logger.Warn().Str("key", key).Err(err).Msg("Failed to write price cache")
	}

	return rec, true
}

var _ interfaces.PriceResolver = (*MetalResolver)(nil)

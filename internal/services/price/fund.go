package price

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
	"github.com/bobmcallan/mystock/internal/signals"
)

// FundResolver resolves Indian mutual funds from their NAV history
type FundResolver struct {
	store     interfaces.PriceCacheStore
	funds     interfaces.FundClient
	cache     common.CacheConfig
	logger    *common.Logger
	now       func() time.Time
	searches  *ristretto.Cache
	searchTTL time.Duration
}

// NewFundResolver creates a fund resolver with an in-process search cache
func NewFundResolver(store interfaces.PriceCacheStore, funds interfaces.FundClient, cache common.CacheConfig, logger *common.Logger) (*FundResolver, error) {
	searches, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fund search cache: %w", err)
	}

	return &FundResolver{
		store:     store,
		funds:     funds,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
		searches:  searches,
		searchTTL: cache.GetFundSearchTTL(),
	}, nil
}

// Resolve returns the cached NAV record while fresh, otherwise derives the
// price, extremes and trend from the full NAV series
func (r *FundResolver) Resolve(ctx context.Context, schemeCode string) (*models.PriceRecord, bool) {
	cached, err := r.store.GetCachedPrice(ctx, schemeCode, r.cache.FundTTL())
	if err != nil {
		r.logger.Warn().Str("scheme_code", schemeCode).Err(err).Msg("Price cache read failed")
	}
	if cached != nil && cached.CurrentPrice > 0 {
		cached.Source = models.PriceSourceCache
		return cached, true
	}

	hist, err := r.funds.GetFundHistory(ctx, schemeCode)
	if err != nil || hist == nil || len(hist.NAVs) == 0 {
		r.logger.Warn().Str("scheme_code", schemeCode).Err(err).Msg("Failed to fetch fund NAV")
		return nil, false
	}

	high, low := signals.NAVExtremes(hist.NAVs)
	rec := &models.PriceRecord{
		Symbol:       schemeCode,
		CurrentPrice: hist.NAVs[0].NAV,
		AllTimeHigh:  high,
		AllTimeLow:   low,
		Trend:        signals.NAVTrend(hist.NAVs),
		Currency:     models.CategoryIndianMF.Currency(),
		FetchedAt:    r.now().UTC(),
		Source:       models.PriceSourceLive,
	}

	if err := r.store.UpsertPriceCache(ctx, rec); err != nil {
		r.logger.Warn().Str("scheme_code", schemeCode).Err(err).Msg("Failed to write price cache")
	}

	return rec, true
}

// Search finds schemes by name. Results are kept in process for the
// configured search TTL; a failed search returns no results.
func (r *FundResolver) Search(ctx context.Context, query string) []models.FundSearchResult {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return []models.FundSearchResult{}
	}

	if v, ok := r.searches.Get(key); ok {
		if results, ok := v.([]models.FundSearchResult); ok {
			return results
		}
	}

	results, err := r.funds.SearchFunds(ctx, query)
	if err != nil {
		r.logger.Warn().Str("query", query).Err(err).Msg("Fund search failed")
		return []models.FundSearchResult{}
	}

	r.searches.SetWithTTL(key, results, 1, r.searchTTL)
	r.searches.Wait()

	return results
}

// Close releases the search cache
func (r *FundResolver) Close() {
	r.searches.Close()
}

// ManualNAVLifetime is how long a user-entered NAV stays usable
const ManualNAVLifetime = 10 * 365 * 24 * time.Hour

// ManualNAVResolver serves NAVs entered by hand for funds with no feed,
// such as Singapore unit trusts
type ManualNAVResolver struct {
	store  interfaces.PriceCacheStore
	logger *common.Logger
	now    func() time.Time
}

// NewManualNAVResolver creates a resolver over manually entered NAVs
func NewManualNAVResolver(store interfaces.PriceCacheStore, logger *common.Logger) *ManualNAVResolver {
	return &ManualNAVResolver{store: store, logger: logger, now: time.Now}
}

// Resolve returns the last manual NAV for symbol; absent when none was entered
func (r *ManualNAVResolver) Resolve(ctx context.Context, symbol string) (*models.PriceRecord, bool) {
	rec, err := r.store.GetCachedPrice(ctx, symbol, ManualNAVLifetime)
	if err != nil {
		r.logger.Warn().Str("symbol", symbol).Err(err).Msg("Price cache read failed")
		return nil, false
	}
	if rec == nil || rec.CurrentPrice <= 0 {
		return nil, false
	}
	rec.Source = models.PriceSourceCache
	return rec, true
}

// SetManualNAV records a user-entered NAV for a fund with no feed, such as
// a Singapore unit trust. The record is stored with currency SGD, and its
// extremes fold in those of the previous entry.
func (r *ManualNAVResolver) SetManualNAV(ctx context.Context, symbol string, nav float64) (*models.PriceRecord, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, &models.ValidationError{Field: "symbol", Message: "symbol is required"}
	}
	if nav <= 0 {
		return nil, &models.ValidationError{Field: "nav", Message: "NAV must be greater than 0"}
	}

	rec := &models.PriceRecord{
		Symbol:       symbol,
		CurrentPrice: nav,
		AllTimeHigh:  nav,
		AllTimeLow:   nav,
		Trend:        models.TrendSideways,
		Currency:     models.CategorySGMF.Currency(),
		FetchedAt:    r.now().UTC(),
	}

	// extremes span every NAV entered so far
	prior, err := r.store.GetCachedPrice(ctx, symbol, ManualNAVLifetime)
	if err != nil {
		r.logger.Warn().Str("symbol", symbol).Err(err).Msg("Price cache read failed")
	}
	if prior != nil {
		if prior.AllTimeHigh > rec.AllTimeHigh {
			rec.AllTimeHigh = prior.AllTimeHigh
		}
		if prior.AllTimeLow > 0 && prior.AllTimeLow < rec.AllTimeLow {
			rec.AllTimeLow = prior.AllTimeLow
		}
	}

	if err := r.store.UpsertPriceCache(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store manual NAV: %w", err)
	}
	return rec, nil
}

var (
	_ interfaces.PriceResolver = (*FundResolver)(nil)
	_ interfaces.PriceResolver = (*ManualNAVResolver)(nil)
)

package price

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
	"github.com/bobmcallan/mystock/internal/signals"
)

// DefaultBatchWorkers bounds concurrent symbol fetches in a batch
const DefaultBatchWorkers = 5

// EquityResolver resolves stocks and ETFs from daily history
type EquityResolver struct {
	store   interfaces.PriceCacheStore
	history interfaces.HistoryClient
	cache   common.CacheConfig
	logger  *common.Logger
	now     func() time.Time
	workers int
}

// NewEquityResolver creates an equity resolver
func NewEquityResolver(store interfaces.PriceCacheStore, history interfaces.HistoryClient, cache common.CacheConfig, logger *common.Logger) *EquityResolver {
	return &EquityResolver{
		store:   store,
		history: history,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
		workers: DefaultBatchWorkers,
	}
}

// SetBatchWorkers overrides the batch worker count
func (r *EquityResolver) SetBatchWorkers(n int) {
	if n > 0 {
		r.workers = n
	}
}

// Resolve returns the cached record while fresh, otherwise fetches 5d
// history for the price, max history for the extremes (unless a record
// younger than the extremes TTL exists) and 3mo history for the trend.
// A fresh record without extremes, as written by the monitor for a symbol
// never resolved before, is treated as a miss.
func (r *EquityResolver) Resolve(ctx context.Context, symbol string) (*models.PriceRecord, bool) {
	if cached := r.cached(ctx, symbol, r.cache.PriceTTL()); cached != nil && cached.AllTimeHigh > 0 {
		cached.Source = models.PriceSourceCache
		return cached, true
	}

	recent, err := r.history.GetHistory(ctx, symbol, models.Range5Day)
	latest, ok := recent.Latest()
	if err != nil || !ok {
		r.logger.Warn().Str("symbol", symbol).Err(err).Msg("Failed to fetch price")
		return nil, false
	}

	rec := &models.PriceRecord{
		Symbol:       symbol,
		CurrentPrice: latest.Close,
		Currency:     recent.Currency,
		FetchedAt:    r.now().UTC(),
		Source:       models.PriceSourceLive,
	}

	rec.AllTimeHigh, rec.AllTimeLow = r.extremes(ctx, symbol, latest.Close)
	rec.Trend = r.trend(ctx, symbol)

	if err := r.store.UpsertPriceCache(ctx, rec); err != nil {
		r.logger.Warn().Str("symbol", symbol).Err(err).Msg("Failed to write price cache")
	}

	return rec, true
}

func (r *EquityResolver) cached(ctx context.Context, key string, ttl time.Duration) *models.PriceRecord {
	rec, err := r.store.GetCachedPrice(ctx, key, ttl)
	if err != nil {
		r.logger.Warn().Str("key", key).Err(err).Msg("Price cache read failed")
		return nil
	}
	if rec == nil || rec.CurrentPrice <= 0 {
		return nil
	}
	return rec
}

func (r *EquityResolver) extremes(ctx context.Context, symbol string, current float64) (float64, float64) {
	if rec := r.cached(ctx, symbol, r.cache.ExtremesTTL()); rec != nil && rec.AllTimeHigh > 0 {
		return rec.AllTimeHigh, rec.AllTimeLow
	}

	full, err := r.history.GetHistory(ctx, symbol, models.RangeMax)
	if err != nil || full == nil || len(full.Bars) == 0 {
		r.logger.Debug().Str("symbol", symbol).Err(err).Msg("No max history, extremes fall back to current price")
		return current, current
	}
	return signals.Extremes(full.Bars)
}

func (r *EquityResolver) trend(ctx context.Context, symbol string) models.Trend {
	hist, err := r.history.GetHistory(ctx, symbol, models.Range3Month)
	if err != nil || hist == nil {
		r.logger.Debug().Str("symbol", symbol).Err(err).Msg("No 3mo history, trend is sideways")
		return models.TrendSideways
	}
	return signals.ClassifyTrend(hist.Bars)
}

// ResolveBatch resolves symbols over a bounded worker pool. Failed symbols
// are absent from the result.
func (r *EquityResolver) ResolveBatch(ctx context.Context, symbols []string) map[string]*models.PriceRecord {
	results := make(map[string]*models.PriceRecord, len(symbols))
	var mu sync.Mutex

	Batch(ctx, symbols, r.workers, func(ctx context.Context, symbol string) {
		rec, ok := r.Resolve(ctx, symbol)
		if !ok {
			return
		}
		mu.Lock()
		results[symbol] = rec
		mu.Unlock()
	})

	return results
}

// Batch runs fn for each distinct item with at most workers in flight.
// A panic in one item is recovered so the rest of the batch completes.
func Batch(ctx context.Context, items []string, workers int, fn func(context.Context, string)) {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(item string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() { _ = recover() }()
			fn(ctx, item)
		}(item)
	}

	wg.Wait()
}

var _ interfaces.PriceResolver = (*EquityResolver)(nil)

package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/models"
)

const priceSelectFields = "symbol, current_price, all_time_high, all_time_low, trend, currency, fetched_at"

// GetCachedPrice returns the cached record for key, or nil when absent or stale
func (s *Store) GetCachedPrice(ctx context.Context, key string, ttl time.Duration) (*models.PriceRecord, error) {
	sql := "SELECT " + priceSelectFields + " FROM $rid"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(tablePrice, key)}

	results, err := surrealdb.Query[[]models.PriceRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to read price cache: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	rec := (*results)[0].Result[0]
	if !common.IsFreshAt(rec.FetchedAt, ttl, s.now()) {
		return nil, nil
	}
	return &rec, nil
}

// UpsertPriceCache replaces the full record for rec.Symbol
func (s *Store) UpsertPriceCache(ctx context.Context, rec *models.PriceRecord) error {
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = s.timestamp()
	}
	if rec.Trend == "" {
		rec.Trend = models.TrendSideways
	}

	sql := "UPSERT $rid CONTENT $rec"
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID(tablePrice, rec.Symbol),
		"rec": map[string]any{
			"symbol":        rec.Symbol,
			"current_price": rec.CurrentPrice,
			"all_time_high": rec.AllTimeHigh,
			"all_time_low":  rec.AllTimeLow,
			"trend":         string(rec.Trend),
			"currency":      rec.Currency,
			"fetched_at":    rec.FetchedAt.UTC(),
		},
	}
	return s.upsert(ctx, sql, vars, "price cache")
}

// GetCachedForex returns the cached rate for pair, or nil when absent or stale
func (s *Store) GetCachedForex(ctx context.Context, pair string, ttl time.Duration) (*models.ForexRate, error) {
	rate, err := surrealdb.Select[models.ForexRate](ctx, s.db, surrealmodels.NewRecordID(tableForex, pair))
	if err != nil {
		return nil, fmt.Errorf("failed to read forex cache: %w", err)
	}
	if rate == nil || !common.IsFreshAt(rate.FetchedAt, ttl, s.now()) {
		return nil, nil
	}
	return rate, nil
}

// UpsertForexCache stores rate for pair, stamped now
func (s *Store) UpsertForexCache(ctx context.Context, pair string, rate float64) error {
	sql := "UPSERT $rid CONTENT $rate"
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID(tableForex, pair),
		"rate": map[string]any{
			"pair":       pair,
			"rate":       rate,
			"fetched_at": s.timestamp(),
		},
	}
	return s.upsert(ctx, sql, vars, "forex cache")
}

// LogAIUsage appends a usage row
func (s *Store) LogAIUsage(ctx context.Context, rec *models.AIUsageRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.timestamp()
	}

	sql := "CREATE ai_usage CONTENT $rec"
	vars := map[string]any{
		"rec": map[string]any{
			"timestamp":     rec.Timestamp.UTC(),
			"provider":      rec.Provider,
			"model":         rec.Model,
			"input_tokens":  rec.InputTokens,
			"output_tokens": rec.OutputTokens,
			"cost_usd":      rec.CostUSD,
			"feature":       rec.Feature,
		},
	}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to log AI usage: %w", err)
	}
	return nil
}

// GetMonthlyAICost sums cost since the first instant of the current UTC month
func (s *Store) GetMonthlyAICost(ctx context.Context) (float64, error) {
	type sumResult struct {
		Total float64 `json:"total"`
	}

	sql := "SELECT math::sum(cost_usd) AS total FROM ai_usage WHERE timestamp >= $start GROUP ALL"
	vars := map[string]any{"start": common.StartOfMonthUTC(s.now())}

	results, err := surrealdb.Query[[]sumResult](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to sum AI cost: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Total, nil
}

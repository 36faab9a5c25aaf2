package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/models"
)

// GetCachedPrice returns the cached record for key, or nil when absent or
// older than ttl at the time of the read.
func (s *Store) GetCachedPrice(ctx context.Context, key string, ttl time.Duration) (*models.PriceRecord, error) {
	var rec models.PriceRecord
	err := s.db.GetContext(ctx, &rec, s.q(`SELECT symbol, current_price, all_time_high, all_time_low, trend, currency, fetched_at
		FROM price_cache WHERE symbol = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read price cache: %w", err)
	}
	if !common.IsFreshAt(rec.FetchedAt, ttl, s.now()) {
		return nil, nil
	}
	return &rec, nil
}

// UpsertPriceCache replaces the full record for rec.Symbol. A zero
// FetchedAt is stamped with the current time.
func (s *Store) UpsertPriceCache(ctx context.Context, rec *models.PriceRecord) error {
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = s.timestamp()
	} else {
		rec.FetchedAt = rec.FetchedAt.UTC()
	}
	if rec.Trend == "" {
		rec.Trend = models.TrendSideways
	}

	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO price_cache
		(symbol, current_price, all_time_high, all_time_low, trend, currency, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			current_price = excluded.current_price,
			all_time_high = excluded.all_time_high,
			all_time_low = excluded.all_time_low,
			trend = excluded.trend,
			currency = excluded.currency,
			fetched_at = excluded.fetched_at`),
		rec.Symbol, rec.CurrentPrice, rec.AllTimeHigh, rec.AllTimeLow, string(rec.Trend), rec.Currency, rec.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price cache: %w", err)
	}
	return nil
}

// GetCachedForex returns the cached rate for pair, or nil when absent or stale
func (s *Store) GetCachedForex(ctx context.Context, pair string, ttl time.Duration) (*models.ForexRate, error) {
	var rate models.ForexRate
	err := s.db.GetContext(ctx, &rate, s.q(`SELECT pair, rate, fetched_at FROM forex_cache WHERE pair = ?`), pair)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read forex cache: %w", err)
	}
	if !common.IsFreshAt(rate.FetchedAt, ttl, s.now()) {
		return nil, nil
	}
	return &rate, nil
}

// UpsertForexCache stores rate for pair, stamped now
func (s *Store) UpsertForexCache(ctx context.Context, pair string, rate float64) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO forex_cache (pair, rate, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT (pair) DO UPDATE SET rate = excluded.rate, fetched_at = excluded.fetched_at`),
		pair, rate, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert forex cache: %w", err)
	}
	return nil
}

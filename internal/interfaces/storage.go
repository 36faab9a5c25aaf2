// Package interfaces defines service contracts for mystock
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/mystock/internal/models"
)

// Store is the persistent store: holdings ledger, keyed caches and the AI usage log
type Store interface {
	HoldingStore
	PriceCacheStore
	ForexCacheStore
	UsageStore

	// Backend returns the backend name, e.g. "sqlite"
	Backend() string

	// Close releases the underlying connection
	Close() error
}

// HoldingStore manages the holdings ledger
type HoldingStore interface {
	// AddHolding validates and inserts a holding, returning its new id
	AddHolding(ctx context.Context, h *models.Holding) (int64, error)

	// UpdateHolding replaces all mutable fields of an existing holding
	UpdateHolding(ctx context.Context, id int64, h *models.Holding) error

	GetHolding(ctx context.Context, id int64) (*models.Holding, error)

	// GetHoldings lists holdings ordered by category then name, or by name
	// when filtered to one category. An empty category means all.
	GetHoldings(ctx context.Context, category models.Category) ([]models.Holding, error)

	DeleteHolding(ctx context.Context, id int64) error
	DeleteAllHoldings(ctx context.Context) (int, error)
	BulkInsertHoldings(ctx context.Context, rows []models.Holding) (int, error)

	// ReplaceHoldings deletes every holding and inserts rows in one transaction
	ReplaceHoldings(ctx context.Context, rows []models.Holding) (deleted, inserted int, err error)
}

// PriceCacheStore is the TTL-checked price cache. A nil record means absent or stale.
type PriceCacheStore interface {
	GetCachedPrice(ctx context.Context, key string, ttl time.Duration) (*models.PriceRecord, error)
	UpsertPriceCache(ctx context.Context, rec *models.PriceRecord) error
}

// ForexCacheStore is the TTL-checked forex cache. A nil rate means absent or stale.
type ForexCacheStore interface {
	GetCachedForex(ctx context.Context, pair string, ttl time.Duration) (*models.ForexRate, error)
	UpsertForexCache(ctx context.Context, pair string, rate float64) error
}

// UsageStore is the append-only AI usage log
type UsageStore interface {
	LogAIUsage(ctx context.Context, rec *models.AIUsageRecord) error

	// GetMonthlyAICost sums cost for rows on or after the start of the current UTC month
	GetMonthlyAICost(ctx context.Context) (float64, error)
}

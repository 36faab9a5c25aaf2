package interfaces

import (
	"context"

	"github.com/bobmcallan/mystock/internal/models"
)

// PriceResolver produces a normalised price record for one asset class.
// Failures are logged and reported as ok=false, never returned.
type PriceResolver interface {
	Resolve(ctx context.Context, identifier string) (*models.PriceRecord, bool)
}

// ResolverSet selects the price resolver for a holding category
type ResolverSet interface {
	For(category models.Category) (PriceResolver, bool)
}

// CurrencyConverter resolves exchange rates and converts amounts
type CurrencyConverter interface {
	GetRate(ctx context.Context, from, to string) (float64, bool)

	// Convert returns the converted amount, or the amount unchanged with
	// converted=false when no rate is available
	Convert(ctx context.Context, amount float64, from, to string) (value float64, converted bool)
}

// PortfolioService enriches holdings with prices and aggregates them
type PortfolioService interface {
	Enrich(ctx context.Context, holdings []models.Holding) *models.PortfolioSummary
	GetPortfolio(ctx context.Context) (*models.PortfolioSummary, error)
}

// LLMGateway is the provider-neutral model entry point
type LLMGateway interface {
	Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
	Provider() string
	Model() string
	Configured() bool
}

// AlertSink receives newly raised alerts
type AlertSink interface {
	Publish(ctx context.Context, alert models.Alert) error
}

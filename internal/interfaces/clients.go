package interfaces

import (
	"context"

	"github.com/bobmcallan/mystock/internal/models"
)

// HistoryClient fetches daily price history for a ticker, newest bar first.
// Range is one of models.Range5Day, Range3Month, Range1Year or RangeMax.
type HistoryClient interface {
	GetHistory(ctx context.Context, symbol, rng string) (*models.PriceHistory, error)
}

// FundClient provides mutual fund NAV data
type FundClient interface {
	// GetFundHistory returns the full NAV series, newest first
	GetFundHistory(ctx context.Context, schemeCode string) (*models.FundHistory, error)
	GetLatestNAV(ctx context.Context, schemeCode string) (*models.FundNAV, error)
	SearchFunds(ctx context.Context, query string) ([]models.FundSearchResult, error)
}

// RateClient fetches a live exchange rate
type RateClient interface {
	GetRate(ctx context.Context, from, to string) (float64, error)
}

// LLMBackend performs one model call in a provider's native API and
// normalises the reply. Cost is left to the gateway.
type LLMBackend interface {
	Provider() string
	Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
}

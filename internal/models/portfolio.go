package models

// PriceSource records where an enriched holding's price came from
type PriceSource string

const (
	PriceSourceLive     PriceSource = "live"
	PriceSourceCache    PriceSource = "cache"
	PriceSourceBuyPrice PriceSource = "buy_price"
)

// EnrichedHolding is a holding joined with its resolved price and derived analytics.
// It is recomputed on every enrichment pass and never stored.
type EnrichedHolding struct {
	Holding
	CurrentPrice        float64     `json:"current_price"`
	TotalInvested       float64     `json:"total_invested"`
	CurrentValue        float64     `json:"current_value"`
	PnL                 float64     `json:"pnl"`
	PnLPct              float64     `json:"pnl_pct"`
	AllTimeHigh         float64     `json:"all_time_high,omitempty"`
	AllTimeLow          float64     `json:"all_time_low,omitempty"`
	Trend               Trend       `json:"trend"`
	ReportingCurrency   string      `json:"reporting_currency"`
	ValueInReporting    float64     `json:"value_in_reporting"`
	InvestedInReporting float64     `json:"invested_in_reporting"`
	PriceSource         PriceSource `json:"price_source"`
	Converted           bool        `json:"converted"`
}

// CategoryTotal aggregates enriched holdings of one category in its native currency
type CategoryTotal struct {
	Category      Category `json:"category"`
	Label         string   `json:"label"`
	Currency      string   `json:"currency"`
	Count         int      `json:"count"`
	TotalInvested float64  `json:"total_invested"`
	CurrentValue  float64  `json:"current_value"`
	PnL           float64  `json:"pnl"`
	PnLPct        float64  `json:"pnl_pct"`
	SharePct      float64  `json:"share_pct"`
}

// PortfolioSummary is the result of an enrichment pass
type PortfolioSummary struct {
	Holdings          []EnrichedHolding `json:"holdings"`
	Categories        []CategoryTotal   `json:"categories"`
	ReportingCurrency string            `json:"reporting_currency"`
	TotalInvested     float64           `json:"total_invested"`
	TotalValue        float64           `json:"total_value"`
	TotalPnL          float64           `json:"total_pnl"`
	TotalPnLPct       float64           `json:"total_pnl_pct"`
	Unconverted       int               `json:"unconverted"`
}

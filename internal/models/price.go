package models

import "time"

// Trend is a coarse momentum classification
type Trend string

const (
	TrendUp       Trend = "UP"
	TrendDown     Trend = "DOWN"
	TrendSideways Trend = "SIDEWAYS"
)

// PriceRecord is a cached, normalised price for a symbol-like key
type PriceRecord struct {
	Symbol       string    `json:"symbol" db:"symbol"`
	CurrentPrice float64   `json:"current_price" db:"current_price"`
	AllTimeHigh  float64   `json:"all_time_high" db:"all_time_high"`
	AllTimeLow   float64   `json:"all_time_low" db:"all_time_low"`
	Trend        Trend     `json:"trend" db:"trend"`
	Currency     string    `json:"currency,omitempty" db:"currency"`
	FetchedAt    time.Time `json:"fetched_at" db:"fetched_at"`

	// Source is set by resolvers and never stored
	Source PriceSource `json:"source,omitempty" db:"-"`
}

// ForexRate is a cached exchange rate for an ordered currency pair
type ForexRate struct {
	Pair      string    `json:"pair" db:"pair"`
	Rate      float64   `json:"rate" db:"rate"`
	FetchedAt time.Time `json:"fetched_at" db:"fetched_at"`
}

// ForexPair returns the cache key for a currency pair, e.g. USDSGD
func ForexPair(from, to string) string {
	return from + to
}

// MetalKey returns the price cache key for a precious metal priced in SGD
func MetalKey(metal string) string {
	return "METAL_" + metal + "_SGD"
}

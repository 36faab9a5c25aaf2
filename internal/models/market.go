package models

import (
	"time"
)

// History ranges understood by the history clients
const (
	Range5Day   = "5d"
	Range3Month = "3mo"
	Range1Year  = "1y"
	RangeMax    = "max"
)

// EODBar represents a single day's price data
type EODBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceHistory holds daily bars for a symbol, newest first
type PriceHistory struct {
	Symbol   string   `json:"symbol"`
	Currency string   `json:"currency,omitempty"`
	Bars     []EODBar `json:"bars"`
	Source   string   `json:"source,omitempty"`
}

// Latest returns the newest bar; ok is false for an empty history
func (h *PriceHistory) Latest() (EODBar, bool) {
	if h == nil || len(h.Bars) == 0 {
		return EODBar{}, false
	}
	return h.Bars[0], true
}

// NAVPoint is a single fund NAV observation
type NAVPoint struct {
	Date time.Time `json:"date"`
	NAV  float64   `json:"nav"`
}

// FundHistory holds a fund's NAV series, newest first
type FundHistory struct {
	SchemeCode string     `json:"scheme_code"`
	SchemeName string     `json:"scheme_name"`
	NAVs       []NAVPoint `json:"navs"`
}

// FundNAV is the latest NAV for a fund
type FundNAV struct {
	SchemeCode string    `json:"scheme_code"`
	SchemeName string    `json:"scheme_name"`
	NAV        float64   `json:"nav"`
	Date       time.Time `json:"date"`
}

// FundSearchResult is a single fund search hit
type FundSearchResult struct {
	SchemeCode string `json:"scheme_code"`
	SchemeName string `json:"scheme_name"`
}

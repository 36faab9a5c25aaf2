// Package models defines data structures for mystock
package models

import (
	"strings"
	"time"
)

// Category identifies the market or asset class of a holding
type Category string

const (
	CategoryIndianStock   Category = "INDIAN_STOCK"
	CategorySGStock       Category = "SG_STOCK"
	CategoryUSStock       Category = "US_STOCK"
	CategoryIndianMF      Category = "INDIAN_MF"
	CategorySGMF          Category = "SG_MF"
	CategoryPreciousMetal Category = "PRECIOUS_METAL"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryIndianStock,
	CategorySGStock,
	CategoryUSStock,
	CategoryIndianMF,
	CategorySGMF,
	CategoryPreciousMetal,
}

type categoryInfo struct {
	label    string
	currency string
}

var categoryTable = map[Category]categoryInfo{
	CategoryIndianStock:   {"Indian Stocks (NSE/BSE)", "INR"},
	CategorySGStock:       {"Singapore Stocks (SGX)", "SGD"},
	CategoryUSStock:       {"US Stocks (NYSE/NASDAQ)", "USD"},
	CategoryIndianMF:      {"Indian Mutual Funds (Zerodha)", "INR"},
	CategorySGMF:          {"Singapore Mutual Funds (Tiger Trade)", "SGD"},
	CategoryPreciousMetal: {"Precious Metals (OCBC)", "SGD"},
}

// ParseCategory normalises a category string; ok is false when unknown
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := categoryTable[c]
	return c, ok
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

// Label returns the human-readable category name
func (c Category) Label() string {
	if info, ok := categoryTable[c]; ok {
		return info.label
	}
	return string(c)
}

// Currency returns the currency holdings in this category are priced in
func (c Category) Currency() string {
	return categoryTable[c].currency
}

// IsEquity reports whether the category is priced from exchange tickers
func (c Category) IsEquity() bool {
	switch c {
	case CategoryIndianStock, CategorySGStock, CategoryUSStock:
		return true
	}
	return false
}

// Exchange ticker suffixes
const (
	SuffixNSE = ".NS"
	SuffixBSE = ".BO"
	SuffixSGX = ".SI"
)

// Holding is a user-entered position
type Holding struct {
	ID        int64     `json:"id" db:"id"`
	Category  Category  `json:"category" db:"category"`
	Name      string    `json:"name" db:"name"`
	Symbol    string    `json:"symbol" db:"symbol"`
	Quantity  float64   `json:"quantity" db:"quantity"`
	BuyPrice  float64   `json:"buy_price" db:"buy_price"`
	BuyDate   string    `json:"buy_date,omitempty" db:"buy_date"` // YYYY-MM-DD
	Currency  string    `json:"currency" db:"currency"`
	Broker    string    `json:"broker,omitempty" db:"broker"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the fields required to store a holding and fills the
// currency from the category when it is empty.
func (h *Holding) Validate() error {
	h.Name = strings.TrimSpace(h.Name)
	h.Symbol = strings.TrimSpace(h.Symbol)

	if !h.Category.Valid() {
		return &ValidationError{Field: "category", Message: "unknown category " + string(h.Category)}
	}
	if h.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if h.Symbol == "" {
		return &ValidationError{Field: "symbol", Message: "symbol is required"}
	}
	if h.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Message: "quantity must be positive"}
	}
	if h.BuyPrice <= 0 {
		return &ValidationError{Field: "buy_price", Message: "buy price must be positive"}
	}
	if h.BuyDate != "" {
		if _, err := time.Parse("2006-01-02", h.BuyDate); err != nil {
			return &ValidationError{Field: "buy_date", Message: "buy date must be YYYY-MM-DD"}
		}
	}
	if h.Currency == "" {
		h.Currency = h.Category.Currency()
	}
	h.Currency = strings.ToUpper(h.Currency)
	return nil
}

// PriceKey returns the price cache key the holding's resolver writes under
func (h *Holding) PriceKey() string {
	if h.Category == CategoryPreciousMetal {
		return MetalKey(strings.ToUpper(h.Symbol))
	}
	return h.Symbol
}

// Invested returns quantity times buy price
func (h *Holding) Invested() float64 {
	return h.Quantity * h.BuyPrice
}

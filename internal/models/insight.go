package models

import "time"

// Insight is a single finding from a portfolio analysis
type Insight struct {
	Category         string   `json:"category"`
	Severity         string   `json:"severity"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	AffectedHoldings []string `json:"affected_holdings"`
}

// InsightsReport is the result of one analysis run
type InsightsReport struct {
	Insights    []Insight `json:"insights"`
	Summary     string    `json:"summary"`
	CostUSD     float64   `json:"cost_usd"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

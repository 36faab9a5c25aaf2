package models

import "time"

// AI usage feature tags
const (
	FeatureChat     = "chat"
	FeatureInsights = "insights"
)

// AIUsageRecord is an append-only log row for a model call
type AIUsageRecord struct {
	ID           int64     `json:"id" db:"id"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	Provider     string    `json:"provider" db:"provider"`
	Model        string    `json:"model" db:"model"`
	InputTokens  int       `json:"input_tokens" db:"input_tokens"`
	OutputTokens int       `json:"output_tokens" db:"output_tokens"`
	CostUSD      float64   `json:"cost_usd" db:"cost_usd"`
	Feature      string    `json:"feature" db:"feature"`
}

// AIStatus summarises the configured provider and this month's spend
type AIStatus struct {
	Provider         string  `json:"provider"`
	Model            string  `json:"model"`
	Configured       bool    `json:"configured"`
	MonthlyCostUSD   float64 `json:"monthly_cost_usd"`
	MonthlyBudgetUSD float64 `json:"monthly_budget_usd"`
}

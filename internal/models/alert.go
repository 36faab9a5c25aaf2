package models

import "time"

// Alert types and severities
const (
	AlertTypePriceMove = "price_move"

	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is a monitor-raised notification
type Alert struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Symbol      string    `json:"symbol"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Dismissed   bool      `json:"dismissed"`
}

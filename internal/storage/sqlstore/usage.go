package sqlstore

import (
	"context"
	"fmt"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/models"
)

// LogAIUsage appends a usage row
func (s *Store) LogAIUsage(ctx context.Context, rec *models.AIUsageRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.timestamp()
	} else {
		rec.Timestamp = rec.Timestamp.UTC()
	}

	err := s.db.QueryRowxContext(ctx, s.q(`INSERT INTO ai_usage_log
		(timestamp, provider, model, input_tokens, output_tokens, cost_usd, feature)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		rec.Timestamp, rec.Provider, rec.Model, rec.InputTokens, rec.OutputTokens, rec.CostUSD, rec.Feature,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to log AI usage: %w", err)
	}
	return nil
}

// GetMonthlyAICost sums cost since the first instant of the current UTC month
func (s *Store) GetMonthlyAICost(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.GetContext(ctx, &total,
		s.q(`SELECT COALESCE(SUM(cost_usd), 0) FROM ai_usage_log WHERE timestamp >= ?`),
		common.StartOfMonthUTC(s.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to sum AI cost: %w", err)
	}
	return total, nil
}

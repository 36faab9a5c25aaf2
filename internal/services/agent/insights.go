package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
	"github.com/bobmcallan/mystock/internal/signals"
)

// Insights request settings
const (
	InsightsTemperature = 0.4
	InsightsMaxTokens   = 3000
	insightsPriceTTL    = 1440 * time.Minute
)

// InsightsStore is the store surface the generator reads
type InsightsStore interface {
	interfaces.HoldingStore
	interfaces.PriceCacheStore
}

// InsightsGenerator produces a one-shot analysis of the portfolio
type InsightsGenerator struct {
	store   InsightsStore
	gateway interfaces.LLMGateway
	budget  *Budget
	ttl     time.Duration
	logger  *common.Logger
	now     func() time.Time

	mu   sync.Mutex
	last *models.InsightsReport
}

// NewInsightsGenerator creates a generator whose last report is reused for ttl
func NewInsightsGenerator(store InsightsStore, gateway interfaces.LLMGateway, budget *Budget, ttl time.Duration, logger *common.Logger) *InsightsGenerator {
	return &InsightsGenerator{
		store:   store,
		gateway: gateway,
		budget:  budget,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the last report while it is fresh, otherwise generates one
func (g *InsightsGenerator) Get(ctx context.Context, refresh bool) (*models.InsightsReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !refresh && g.last != nil && common.IsFreshAt(g.last.GeneratedAt, g.ttl, g.now()) {
		return g.last, nil
	}
	report, err := g.generate(ctx)
	if err != nil {
		return nil, err
	}
	g.last = report
	return report, nil
}

type insightHolding struct {
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	Category     models.Category `json:"category"`
	Quantity     float64         `json:"quantity"`
	BuyPrice     float64         `json:"buy_price"`
	Currency     string          `json:"currency"`
	Invested     float64         `json:"invested"`
	CurrentPrice float64         `json:"current_price,omitempty"`
	CurrentValue float64         `json:"current_value,omitempty"`
	ReturnPct    *float64        `json:"return_pct,omitempty"`
	AllTimeHigh  float64         `json:"all_time_high,omitempty"`
	AllTimeLow   float64         `json:"all_time_low,omitempty"`
	Trend        models.Trend    `json:"trend,omitempty"`
}

type insightsInput struct {
	Holdings      []insightHolding `json:"holdings"`
	TotalHoldings int              `json:"total_holdings"`
}

func (g *InsightsGenerator) gather(ctx context.Context) (*insightsInput, error) {
	holdings, err := g.store.GetHoldings(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	in := &insightsInput{Holdings: make([]insightHolding, 0, len(holdings)), TotalHoldings: len(holdings)}
	for _, h := range holdings {
		entry := insightHolding{
			Name:     h.Name,
			Symbol:   h.Symbol,
			Category: h.Category,
			Quantity: h.Quantity,
			BuyPrice: h.BuyPrice,
			Currency: h.Currency,
			Invested: h.Invested(),
		}
		rec, err := g.store.GetCachedPrice(ctx, h.PriceKey(), insightsPriceTTL)
		if err != nil {
			g.logger.Warn().Str("symbol", h.Symbol).Err(err).Msg("Price cache read failed")
		}
		if rec != nil && rec.CurrentPrice > 0 {
			ret := signals.Round2(signals.PctChange(h.BuyPrice, rec.CurrentPrice))
			entry.CurrentPrice = rec.CurrentPrice
			entry.CurrentValue = h.Quantity * rec.CurrentPrice
			entry.ReturnPct = &ret
			entry.AllTimeHigh = rec.AllTimeHigh
			entry.AllTimeLow = rec.AllTimeLow
			entry.Trend = rec.Trend
		}
		in.Holdings = append(in.Holdings, entry)
	}
	return in, nil
}

func (g *InsightsGenerator) generate(ctx context.Context) (*models.InsightsReport, error) {
	if err := g.budget.Check(ctx); err != nil {
		return nil, err
	}

	input, err := g.gather(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode portfolio: %w", err)
	}

	resp, err := g.gateway.Chat(ctx, &models.ChatRequest{
		Messages: []models.Message{
			models.SystemMessage{Content: InsightsSystemPrompt},
			models.UserMessage{Content: fmt.Sprintf(insightsUserTemplate, data)},
		},
		Temperature: models.Temperature(InsightsTemperature),
		MaxTokens:   InsightsMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	g.budget.Record(ctx, resp, models.FeatureInsights)

	insights := g.parse(resp.Content)
	return &models.InsightsReport{
		Insights:    insights,
		Summary:     Summarize(insights),
		CostUSD:     resp.CostUSD,
		Model:       resp.Model,
		GeneratedAt: g.now().UTC(),
	}, nil
}

// extractJSON strips a ```json or bare ``` fence around the payload
func extractJSON(content string) string {
	if _, after, ok := strings.Cut(content, "```json"); ok {
		body, _, _ := strings.Cut(after, "```")
		return body
	}
	if _, after, ok := strings.Cut(content, "```"); ok {
		body, _, _ := strings.Cut(after, "```")
		return body
	}
	return content
}

type rawInsight struct {
	Category         *string  `json:"category"`
	Severity         *string  `json:"severity"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	AffectedHoldings []string `json:"affected_holdings"`
}

// parse decodes the model reply. Empty replies and unparsable replies
// become a single info insight.
func (g *InsightsGenerator) parse(content string) []models.Insight {
	if strings.TrimSpace(content) == "" {
		return []models.Insight{{
			Category:         "performance",
			Severity:         models.SeverityInfo,
			Title:            "Analysis Unavailable",
			Description:      "Could not generate insights.",
			AffectedHoldings: []string{},
		}}
	}

	var doc struct {
		Insights []rawInsight `json:"insights"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(extractJSON(content))), &doc); err != nil {
		g.logger.Warn().Err(err).Msg("Failed to parse insights JSON")
		return []models.Insight{{
			Category:         "performance",
			Severity:         models.SeverityInfo,
			Title:            "Portfolio Analysis",
			Description:      content,
			AffectedHoldings: []string{},
		}}
	}

	out := make([]models.Insight, 0, len(doc.Insights))
	for _, r := range doc.Insights {
		in := models.Insight{
			Category:         "info",
			Severity:         models.SeverityInfo,
			Title:            r.Title,
			Description:      r.Description,
			AffectedHoldings: r.AffectedHoldings,
		}
		if r.Category != nil {
			in.Category = *r.Category
		}
		if r.Severity != nil {
			in.Severity = *r.Severity
		}
		if in.AffectedHoldings == nil {
			in.AffectedHoldings = []string{}
		}
		out = append(out, in)
	}
	return out
}

// Summarize counts critical and warning insights into a one-line verdict
func Summarize(insights []models.Insight) string {
	critical, warnings := 0, 0
	for _, in := range insights {
		switch in.Severity {
		case models.SeverityCritical:
			critical++
		case models.SeverityWarning:
			warnings++
		}
	}
	switch {
	case critical > 0:
		return fmt.Sprintf("%d critical issue(s) and %d warning(s) detected.", critical, warnings)
	case warnings > 0:
		return fmt.Sprintf("%d warning(s) found. Portfolio generally healthy.", warnings)
	default:
		return "Portfolio looks healthy. No critical issues detected."
	}
}

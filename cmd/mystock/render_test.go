package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/mystock/internal/models"
)

func TestHoldingsMarkdown(t *testing.T) {
	md := holdingsMarkdown([]models.Holding{
		{ID: 1, Category: models.CategorySGStock, Name: "DBS | Group", Symbol: "D05.SI", Quantity: 100, BuyPrice: 30.5, Currency: "SGD", BuyDate: "2024-03-01"},
	})

	assert.Contains(t, md, `DBS \| Group`)
	assert.Contains(t, md, "| 1 | SG_STOCK |")
	assert.Contains(t, md, "S$30.50")
	assert.Contains(t, md, "2024-03-01")
	assert.Equal(t, "_No holdings._\n", holdingsMarkdown(nil))
}

func TestPortfolioMarkdown(t *testing.T) {
	summary := &models.PortfolioSummary{
		ReportingCurrency: "SGD",
		TotalInvested:     3000,
		TotalValue:        3300,
		TotalPnL:          300,
		TotalPnLPct:       10,
		Unconverted:       1,
		Categories: []models.CategoryTotal{
			{Category: models.CategorySGStock, Label: "Singapore Stocks", Currency: "SGD", Count: 1, CurrentValue: 3300, PnL: 300, PnLPct: 10, SharePct: 100},
		},
		Holdings: []models.EnrichedHolding{{
			Holding:      models.Holding{Name: "DBS", Symbol: "D05.SI", Quantity: 100, Currency: "SGD"},
			CurrentPrice: 33,
			CurrentValue: 3300,
			PnL:          300,
			PnLPct:       10,
			Trend:        models.TrendUp,
			PriceSource:  models.PriceSourceLive,
		}},
	}

	md := portfolioMarkdown(summary)
	assert.Contains(t, md, "**Value** S$3,300.00")
	assert.Contains(t, md, "+S$300.00 (+10.0%)")
	assert.Contains(t, md, "| Singapore Stocks | 1 |")
	assert.Contains(t, md, "| DBS | D05.SI | 100 | S$33.00 |")
	assert.Contains(t, md, "1 holding(s) could not be converted to SGD and are counted at their unconverted amount")

	empty := portfolioMarkdown(&models.PortfolioSummary{ReportingCurrency: "SGD"})
	assert.Contains(t, empty, "_No holdings._")
}

func TestInsightsMarkdown(t *testing.T) {
	md := insightsMarkdown(&models.InsightsReport{
		Summary: "1 critical issue(s) and 0 warning(s) detected.",
		Insights: []models.Insight{
			{Severity: models.SeverityCritical, Title: "Concentration", Description: "One stock is 60% of the portfolio.", AffectedHoldings: []string{"AAPL"}},
			{Severity: models.SeverityInfo, Title: "Diversified funds"},
		},
		Model:       "gpt-4o-mini",
		CostUSD:     0.0012,
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	})

	assert.Contains(t, md, "1 critical issue(s)")
	assert.Contains(t, md, "## 🔴 Concentration")
	assert.Contains(t, md, "## 🔵 Diversified funds")
	assert.Contains(t, md, "_Affects: AAPL_")
	assert.Contains(t, md, "2 insights, gpt-4o-mini")
}

func TestAlertsMarkdown(t *testing.T) {
	assert.Equal(t, "_No price alerts._\n", alertsMarkdown(nil))

	md := alertsMarkdown([]models.Alert{
		{Severity: models.SeverityWarning, Title: "Apple up 6.0%", Description: "AAPL: 150.00 -> 159.00 (+6.0%)"},
	})
	assert.Contains(t, md, "🟠 **Apple up 6.0%** AAPL: 150.00 -> 159.00 (+6.0%)")
}

type scriptedAgent struct {
	messages []string
	errs     map[string]error
}

func (a *scriptedAgent) Respond(_ context.Context, sessionID, message string) (*models.ChatReply, error) {
	a.messages = append(a.messages, message)
	if err := a.errs[message]; err != nil {
		return nil, err
	}
	return &models.ChatReply{SessionID: sessionID, Content: "re: " + message, TurnCostUSD: 0.001, TotalCostUSD: 0.002}, nil
}

func TestChatLoop_ReadsUntilExit(t *testing.T) {
	agent := &scriptedAgent{errs: map[string]error{"bad": errors.New("provider down")}}
	in := strings.NewReader("hello\n\nbad\nhow am I doing?\nexit\nignored\n")
	var out bytes.Buffer
	var rendered []string

	err := chatLoop(context.Background(), agent, "s1", in, &out, func(s string) { rendered = append(rendered, s) })
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "bad", "how am I doing?"}, agent.messages)
	assert.Equal(t, []string{"re: hello", "re: how am I doing?"}, rendered)
	assert.Contains(t, out.String(), "error: provider down")
	assert.Contains(t, out.String(), "(turn $0.0010, session $0.0020)")
}

func TestChatLoop_StopsOnBudget(t *testing.T) {
	agent := &scriptedAgent{errs: map[string]error{"spend": models.ErrBudgetExceeded}}
	in := strings.NewReader("spend\nagain\n")

	err := chatLoop(context.Background(), agent, "s1", in, &bytes.Buffer{}, func(string) {})
	assert.ErrorIs(t, err, models.ErrBudgetExceeded)
	assert.Equal(t, []string{"spend"}, agent.messages)
}

func TestChatLoop_EOF(t *testing.T) {
	agent := &scriptedAgent{}
	err := chatLoop(context.Background(), agent, "s1", strings.NewReader("hi"), &bytes.Buffer{}, func(string) {})
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, agent.messages)
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/models"
)

// cell escapes table separators in user-entered text
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func quantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func holdingsMarkdown(holdings []models.Holding) string {
	if len(holdings) == 0 {
		return "_No holdings._\n"
	}

	var b strings.Builder
	b.WriteString("| ID | Category | Name | Symbol | Quantity | Buy Price | Buy Date |\n")
	b.WriteString("|---:|---|---|---|---:|---:|---|\n")
	for _, h := range holdings {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |\n",
			h.ID, h.Category, cell(h.Name), cell(h.Symbol), quantity(h.Quantity),
			common.FormatCurrency(h.BuyPrice, h.Currency), h.BuyDate)
	}
	return b.String()
}

func portfolioMarkdown(s *models.PortfolioSummary) string {
	var b strings.Builder
	ccy := s.ReportingCurrency

	b.WriteString("# Portfolio\n\n")
	fmt.Fprintf(&b, "**Value** %s  **Invested** %s  **P&L** %s (%s)\n\n",
		common.FormatCurrency(s.TotalValue, ccy),
		common.FormatCurrency(s.TotalInvested, ccy),
		common.FormatPnL(s.TotalPnL, ccy),
		common.FormatPercentage(s.TotalPnLPct))

	if len(s.Holdings) == 0 {
		b.WriteString("_No holdings._\n")
		return b.String()
	}

	b.WriteString("## Categories\n\n")
	b.WriteString("| Category | Holdings | Value | P&L | Share |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, c := range s.Categories {
		fmt.Fprintf(&b, "| %s | %d | %s | %s (%s) | %.1f%% |\n",
			c.Label, c.Count,
			common.FormatCurrency(c.CurrentValue, c.Currency),
			common.FormatPnL(c.PnL, c.Currency), common.FormatPercentage(c.PnLPct),
			c.SharePct)
	}

	b.WriteString("\n## Holdings\n\n")
	b.WriteString("| Name | Symbol | Quantity | Price | Value | P&L | Trend | Source |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---|---|\n")
	for _, h := range s.Holdings {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s (%s) | %s | %s |\n",
			cell(h.Name), cell(h.Symbol), quantity(h.Quantity),
			common.FormatCurrency(h.CurrentPrice, h.Currency),
			common.FormatCurrency(h.CurrentValue, h.Currency),
			common.FormatPnL(h.PnL, h.Currency), common.FormatPercentage(h.PnLPct),
			h.Trend, h.PriceSource)
	}

	if s.Unconverted > 0 {
		fmt.Fprintf(&b, "\n_%d holding(s) could not be converted to %s and are counted at their unconverted amount._\n", s.Unconverted, ccy)
	}
	return b.String()
}

func severityMark(severity string) string {
	switch severity {
	case models.SeverityCritical:
		return "🔴"
	case models.SeverityWarning:
		return "🟠"
	default:
		return "🔵"
	}
}

func insightsMarkdown(r *models.InsightsReport) string {
	var b strings.Builder
	b.WriteString("# Portfolio Insights\n\n")
	if r.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", r.Summary)
	}
	for _, in := range r.Insights {
		fmt.Fprintf(&b, "## %s %s\n\n", severityMark(in.Severity), in.Title)
		if in.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", in.Description)
		}
		if len(in.AffectedHoldings) > 0 {
			fmt.Fprintf(&b, "_Affects: %s_\n\n", strings.Join(in.AffectedHoldings, ", "))
		}
	}
	fmt.Fprintf(&b, "---\n_%s, %s at %s, cost $%.4f_\n",
		pluralise(len(r.Insights), "insight"), r.Model, r.GeneratedAt.Local().Format("2006-01-02 15:04"), r.CostUSD)
	return b.String()
}

func alertsMarkdown(alerts []models.Alert) string {
	if len(alerts) == 0 {
		return "_No price alerts._\n"
	}
	var b strings.Builder
	b.WriteString("# Price Alerts\n\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "- %s **%s** %s\n", severityMark(a.Severity), a.Title, a.Description)
	}
	return b.String()
}

func pluralise(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

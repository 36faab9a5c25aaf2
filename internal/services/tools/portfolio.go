package tools

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
	"github.com/bobmcallan/mystock/internal/signals"
)

// CachedPriceTTL bounds how old a cached price the portfolio tools will read
const CachedPriceTTL = 1440 * time.Minute

// PortfolioStore is the store surface the portfolio tools read
type PortfolioStore interface {
	interfaces.HoldingStore
	interfaces.PriceCacheStore
}

type portfolioTools struct {
	store  PortfolioStore
	logger *common.Logger
}

// RegisterPortfolioTools adds the holdings and allocation tools
func RegisterPortfolioTools(r *Registry, store PortfolioStore, logger *common.Logger) {
	p := &portfolioTools{store: store, logger: logger}

	categoryNames := make([]string, 0, len(models.Categories))
	for _, c := range models.Categories {
		categoryNames = append(categoryNames, string(c))
	}

	r.Register(Tool{
		Name:        "get_all_holdings",
		Description: "Get current portfolio holdings. Optionally filter by category: " + strings.Join(categoryNames, ", ") + ".",
		Parameters: objectSchema(map[string]any{
			"category": map[string]any{
				"type":        "string",
				"enum":        categoryNames,
				"description": "Filter by holding category.",
			},
		}, nil),
		Invoke: p.allHoldings,
	})

	r.Register(Tool{
		Name:        "get_portfolio_summary",
		Description: "Get a high-level portfolio summary with total invested amount and breakdown by category (market/asset type).",
		Parameters:  objectSchema(nil, nil),
		Invoke:      p.summary,
	})

	r.Register(Tool{
		Name:        "get_top_performers",
		Description: "Get the top N best or worst performing holdings by percentage return.",
		Parameters: objectSchema(map[string]any{
			"n": map[string]any{
				"type":        "integer",
				"description": "Number of results. Default 5.",
				"default":     5,
			},
			"worst": map[string]any{
				"type":        "boolean",
				"description": "If true, return worst performers.",
				"default":     false,
			},
		}, nil),
		Invoke: p.topPerformers,
	})

	r.Register(Tool{
		Name:        "get_holding_detail",
		Description: "Get detailed information about a specific holding by its ticker symbol.",
		Parameters: objectSchema(map[string]any{
			"symbol": map[string]any{
				"type":        "string",
				"description": "Ticker symbol (e.g. RELIANCE.NS, D05.SI, AAPL, GOLD).",
			},
		}, []string{"symbol"}),
		Invoke: p.holdingDetail,
	})

	r.Register(Tool{
		Name:        "search_holdings",
		Description: "Search portfolio holdings by name or symbol using partial matching.",
		Parameters: objectSchema(map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search term (company name or partial ticker symbol).",
			},
		}, []string{"query"}),
		Invoke: p.search,
	})

	r.Register(Tool{
		Name:        "get_allocation_breakdown",
		Description: "Get portfolio allocation breakdown. Group by 'category' or 'currency'.",
		Parameters: objectSchema(map[string]any{
			"group_by": map[string]any{
				"type":        "string",
				"enum":        []string{"category", "currency"},
				"description": "How to group. Default 'category'.",
				"default":     "category",
			},
		}, nil),
		Invoke: p.allocation,
	})
}

func (p *portfolioTools) cachedPrice(ctx context.Context, h models.Holding) *models.PriceRecord {
	rec, err := p.store.GetCachedPrice(ctx, h.PriceKey(), CachedPriceTTL)
	if err != nil {
		p.logger.Warn().Str("symbol", h.Symbol).Err(err).Msg("Price cache read failed")
		return nil
	}
	return rec
}

type holdingsResult struct {
	Holdings []models.Holding `json:"holdings"`
	Count    int              `json:"count"`
}

func (p *portfolioTools) allHoldings(ctx context.Context, args map[string]any) (any, error) {
	var category models.Category
	if raw := stringArg(args, "category"); raw != "" {
		c, ok := models.ParseCategory(raw)
		if !ok {
			return nil, fmt.Errorf("unknown category %s", raw)
		}
		category = c
	}

	holdings, err := p.store.GetHoldings(ctx, category)
	if err != nil {
		return nil, err
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	return holdingsResult{Holdings: holdings, Count: len(holdings)}, nil
}

type categoryInvested struct {
	TotalInvested float64 `json:"total_invested"`
	Count         int     `json:"count"`
	Currency      string  `json:"currency"`
}

type summaryResult struct {
	ByCategory    map[models.Category]*categoryInvested `json:"by_category"`
	TotalInvested float64                               `json:"total_invested"`
	TotalHoldings int                                   `json:"total_holdings"`
}

// summary sums invested amounts at buy price; the grand total mixes currencies
func (p *portfolioTools) summary(ctx context.Context, _ map[string]any) (any, error) {
	holdings, err := p.store.GetHoldings(ctx, "")
	if err != nil {
		return nil, err
	}

	out := summaryResult{ByCategory: map[models.Category]*categoryInvested{}, TotalHoldings: len(holdings)}
	for _, h := range holdings {
		c, ok := out.ByCategory[h.Category]
		if !ok {
			c = &categoryInvested{Currency: h.Currency}
			out.ByCategory[h.Category] = c
		}
		cost := h.Invested()
		c.TotalInvested += cost
		c.Count++
		out.TotalInvested += cost
	}
	return out, nil
}

type performer struct {
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	Category     models.Category `json:"category"`
	BuyPrice     float64         `json:"buy_price"`
	CurrentPrice float64         `json:"current_price"`
	ReturnPct    float64         `json:"return_pct"`
	Currency     string          `json:"currency"`
}

type performersResult struct {
	Performers []performer `json:"performers"`
	Type       string      `json:"type"`
}

// topPerformers ranks holdings with a cached price by return over buy price
func (p *portfolioTools) topPerformers(ctx context.Context, args map[string]any) (any, error) {
	n := intArg(args, "n", 5)
	if n < 0 {
		n = 0
	}
	worst := boolArg(args, "worst", false)

	holdings, err := p.store.GetHoldings(ctx, "")
	if err != nil {
		return nil, err
	}

	performers := []performer{}
	for _, h := range holdings {
		rec := p.cachedPrice(ctx, h)
		if rec == nil || rec.CurrentPrice == 0 || h.BuyPrice == 0 {
			continue
		}
		performers = append(performers, performer{
			Name:         h.Name,
			Symbol:       h.Symbol,
			Category:     h.Category,
			BuyPrice:     h.BuyPrice,
			CurrentPrice: rec.CurrentPrice,
			ReturnPct:    signals.Round2(signals.PctChange(h.BuyPrice, rec.CurrentPrice)),
			Currency:     h.Currency,
		})
	}

	sort.SliceStable(performers, func(i, j int) bool {
		if worst {
			return performers[i].ReturnPct < performers[j].ReturnPct
		}
		return performers[i].ReturnPct > performers[j].ReturnPct
	})
	if len(performers) > n {
		performers = performers[:n]
	}

	kind := "best"
	if worst {
		kind = "worst"
	}
	return performersResult{Performers: performers, Type: kind}, nil
}

type holdingDetail struct {
	models.Holding
	CurrentPrice *float64     `json:"current_price,omitempty"`
	AllTimeHigh  *float64     `json:"all_time_high,omitempty"`
	AllTimeLow   *float64     `json:"all_time_low,omitempty"`
	Trend        models.Trend `json:"trend,omitempty"`
}

func (p *portfolioTools) holdingDetail(ctx context.Context, args map[string]any) (any, error) {
	symbol := strings.TrimSpace(stringArg(args, "symbol"))

	holdings, err := p.store.GetHoldings(ctx, "")
	if err != nil {
		return nil, err
	}

	for _, h := range holdings {
		if !strings.EqualFold(h.Symbol, symbol) {
			continue
		}
		detail := holdingDetail{Holding: h}
		if rec := p.cachedPrice(ctx, h); rec != nil {
			detail.CurrentPrice = &rec.CurrentPrice
			detail.AllTimeHigh = &rec.AllTimeHigh
			detail.AllTimeLow = &rec.AllTimeLow
			detail.Trend = rec.Trend
		}
		return detail, nil
	}
	return map[string]string{"error": "No holding found with symbol " + symbol}, nil
}

type searchResult struct {
	Results []models.Holding `json:"results"`
	Count   int              `json:"count"`
}

func (p *portfolioTools) search(ctx context.Context, args map[string]any) (any, error) {
	q := strings.ToLower(stringArg(args, "query"))

	holdings, err := p.store.GetHoldings(ctx, "")
	if err != nil {
		return nil, err
	}

	results := []models.Holding{}
	for _, h := range holdings {
		if strings.Contains(strings.ToLower(h.Name), q) || strings.Contains(strings.ToLower(h.Symbol), q) {
			results = append(results, h)
		}
	}
	return searchResult{Results: results, Count: len(results)}, nil
}

type allocationEntry struct {
	TotalInvested float64 `json:"total_invested"`
	Count         int     `json:"count"`
	Pct           float64 `json:"pct"`
}

type allocationResult struct {
	Breakdown  map[string]*allocationEntry `json:"breakdown"`
	GroupBy    string                      `json:"group_by"`
	GrandTotal float64                     `json:"grand_total"`
}

func (p *portfolioTools) allocation(ctx context.Context, args map[string]any) (any, error) {
	groupBy := stringArg(args, "group_by")
	if groupBy == "" {
		groupBy = "category"
	}
	if groupBy != "category" && groupBy != "currency" {
		return nil, fmt.Errorf("group_by must be category or currency, got %s", groupBy)
	}

	holdings, err := p.store.GetHoldings(ctx, "")
	if err != nil {
		return nil, err
	}

	out := allocationResult{Breakdown: map[string]*allocationEntry{}, GroupBy: groupBy}
	for _, h := range holdings {
		key := string(h.Category)
		if groupBy == "currency" {
			key = h.Currency
		}
		e, ok := out.Breakdown[key]
		if !ok {
			e = &allocationEntry{}
			out.Breakdown[key] = e
		}
		e.TotalInvested += h.Invested()
		e.Count++
		out.GrandTotal += h.Invested()
	}

	if out.GrandTotal > 0 {
		for _, e := range out.Breakdown {
			e.Pct = math.Round(e.TotalInvested/out.GrandTotal*1000) / 10
		}
	}
	return out, nil
}

package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
	"github.com/bobmcallan/mystock/internal/signals"
)

type marketTools struct {
	history   interfaces.HistoryClient
	funds     interfaces.FundClient
	converter interfaces.CurrencyConverter
	logger    *common.Logger
}

// RegisterMarketTools adds the live market data tools. Feed failures are
// returned inside the result payload next to the requested identifier.
func RegisterMarketTools(r *Registry, history interfaces.HistoryClient, funds interfaces.FundClient, converter interfaces.CurrencyConverter, logger *common.Logger) {
	m := &marketTools{history: history, funds: funds, converter: converter, logger: logger}

	symbolParam := map[string]any{
		"symbol": map[string]any{"type": "string", "description": "Yahoo Finance ticker symbol."},
	}

	r.Register(Tool{
		Name:        "get_current_price",
		Description: "Fetch the current market price for a stock or ETF using its Yahoo Finance ticker symbol (e.g. RELIANCE.NS, D05.SI, AAPL).",
		Parameters:  objectSchema(symbolParam, []string{"symbol"}),
		Invoke:      m.currentPrice,
	})

	r.Register(Tool{
		Name:        "get_mutual_fund_nav",
		Description: "Fetch the latest NAV for an Indian mutual fund using its AMFI scheme code.",
		Parameters: objectSchema(map[string]any{
			"scheme_code": map[string]any{"type": "string", "description": "AMFI scheme code (e.g. '119597')."},
		}, []string{"scheme_code"}),
		Invoke: m.fundNAV,
	})

	r.Register(Tool{
		Name:        "get_forex_rate",
		Description: "Get the current exchange rate between two currencies (e.g. USD to SGD, INR to SGD).",
		Parameters: objectSchema(map[string]any{
			"from_currency": map[string]any{"type": "string", "description": "Source currency code (e.g. USD, SGD, INR)."},
			"to_currency":   map[string]any{"type": "string", "description": "Target currency code."},
		}, []string{"from_currency", "to_currency"}),
		Invoke: m.forexRate,
	})

	r.Register(Tool{
		Name:        "get_52_week_range",
		Description: "Get the 52-week high/low prices for a stock and how far it is from its 52-week high.",
		Parameters:  objectSchema(symbolParam, []string{"symbol"}),
		Invoke:      m.weekRange,
	})
}

func failure(key, id string, err error) map[string]any {
	return map[string]any{key: id, "error": err.Error()}
}

var errNoData = errors.New("no data available")

type currentPriceResult struct {
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousClose float64 `json:"previous_close"`
	DayChangePct  float64 `json:"day_change_pct"`
}

func (m *marketTools) currentPrice(ctx context.Context, args map[string]any) (any, error) {
	symbol := strings.TrimSpace(stringArg(args, "symbol"))

	hist, err := m.history.GetHistory(ctx, symbol, models.Range5Day)
	if err != nil {
		return failure("symbol", symbol, err), nil
	}
	latest, ok := hist.Latest()
	if !ok {
		return failure("symbol", symbol, errNoData), nil
	}

	prev := latest.Close
	if len(hist.Bars) > 1 {
		prev = hist.Bars[1].Close
	}
	return currentPriceResult{
		Symbol:        symbol,
		CurrentPrice:  signals.Round2(latest.Close),
		PreviousClose: signals.Round2(prev),
		DayChangePct:  signals.Round2(signals.PctChange(prev, latest.Close)),
	}, nil
}

type fundNAVResult struct {
	SchemeCode string  `json:"scheme_code"`
	SchemeName string  `json:"scheme_name"`
	NAV        float64 `json:"nav"`
	Date       string  `json:"date"`
}

func (m *marketTools) fundNAV(ctx context.Context, args map[string]any) (any, error) {
	code := strings.TrimSpace(stringArg(args, "scheme_code"))

	nav, err := m.funds.GetLatestNAV(ctx, code)
	if err != nil {
		return failure("scheme_code", code, err), nil
	}
	return fundNAVResult{
		SchemeCode: code,
		SchemeName: nav.SchemeName,
		NAV:        nav.NAV,
		Date:       nav.Date.Format("2006-01-02"),
	}, nil
}

type forexResult struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

func (m *marketTools) forexRate(ctx context.Context, args map[string]any) (any, error) {
	from := strings.ToUpper(strings.TrimSpace(stringArg(args, "from_currency")))
	to := strings.ToUpper(strings.TrimSpace(stringArg(args, "to_currency")))

	rate, ok := m.converter.GetRate(ctx, from, to)
	if !ok {
		return map[string]any{"from": from, "to": to, "error": "exchange rate unavailable"}, nil
	}
	return forexResult{From: from, To: to, Rate: rate}, nil
}

type weekRangeResult struct {
	Symbol          string  `json:"symbol"`
	CurrentPrice    float64 `json:"current_price"`
	High52Week      float64 `json:"52_week_high"`
	Low52Week       float64 `json:"52_week_low"`
	PctBelow52WHigh float64 `json:"pct_below_52w_high"`
}

func (m *marketTools) weekRange(ctx context.Context, args map[string]any) (any, error) {
	symbol := strings.TrimSpace(stringArg(args, "symbol"))

	hist, err := m.history.GetHistory(ctx, symbol, models.Range1Year)
	if err != nil {
		return failure("symbol", symbol, err), nil
	}
	latest, ok := hist.Latest()
	if !ok {
		return failure("symbol", symbol, errNoData), nil
	}

	high, low := signals.Extremes(hist.Bars)
	return weekRangeResult{
		Symbol:          symbol,
		CurrentPrice:    signals.Round2(latest.Close),
		High52Week:      signals.Round2(high),
		Low52Week:       signals.Round2(low),
		PctBelow52WHigh: signals.Round2(signals.PctBelow(high, latest.Close)),
	}, nil
}

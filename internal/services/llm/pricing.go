package llm

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ModelPrice is the USD price per million tokens
type ModelPrice struct {
	Input  float64
	Output float64
}

// Prices covers the catalog models. Local Ollama models are free and absent.
var Prices = map[string]ModelPrice{
	"gpt-4o-mini":                {Input: 0.15, Output: 0.60},
	"gpt-4o":                     {Input: 2.50, Output: 10.00},
	"claude-haiku-4-5-20251001":  {Input: 1.00, Output: 5.00},
	"claude-haiku-4-5":           {Input: 1.00, Output: 5.00},
	"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
	"claude-sonnet-4-5":          {Input: 3.00, Output: 15.00},
	"gemini-2.0-flash":           {Input: 0.10, Output: 0.40},
	"gemini-2.5-pro":             {Input: 1.25, Output: 10.00},
}

var perMillion = decimal.NewFromInt(1_000_000)

// lookupPrice matches the exact model id first, then the longest known
// prefix, so dated variants such as gpt-4o-mini-2024-07-18 are priced.
func lookupPrice(model string) (ModelPrice, bool) {
	if p, ok := Prices[model]; ok {
		return p, true
	}
	best := ""
	for id := range Prices {
		if strings.HasPrefix(model, id) && len(id) > len(best) {
			best = id
		}
	}
	if best == "" {
		return ModelPrice{}, false
	}
	return Prices[best], true
}

// Cost returns the USD cost of a call; unknown models cost 0
func Cost(model string, inputTokens, outputTokens int) float64 {
	p, ok := lookupPrice(model)
	if !ok {
		return 0
	}
	in := decimal.NewFromInt(int64(inputTokens)).Mul(decimal.NewFromFloat(p.Input))
	out := decimal.NewFromInt(int64(outputTokens)).Mul(decimal.NewFromFloat(p.Output))
	return in.Add(out).Div(perMillion).InexactFloat64()
}

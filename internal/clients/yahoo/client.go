// Package yahoo provides a client for the Yahoo Finance chart API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

const (
	DefaultBaseURL   = "https://query2.finance.yahoo.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
)

// Client implements interfaces.HistoryClient and interfaces.RateClient
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Yahoo chart client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo API error: %s (status: %d, symbol: %s)", e.Message, e.StatusCode, e.Symbol)
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func interval(rng string) string {
	if rng == models.RangeMax {
		return "1wk"
	}
	return "1d"
}

// GetHistory fetches the chart for symbol over rng, newest bar first.
// Bars with a missing close are skipped.
func (c *Client) GetHistory(ctx context.Context, symbol, rng string) (*models.PriceHistory, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("range", rng)
	params.Set("interval", interval(rng))
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("symbol", symbol).Str("range", rng).Msg("Yahoo chart request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body)), Symbol: symbol}
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Chart.Error != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: payload.Chart.Error.Description, Symbol: symbol}
	}
	if len(payload.Chart.Result) == 0 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "empty chart result", Symbol: symbol}
	}

	result := payload.Chart.Result[0]
	history := &models.PriceHistory{
		Symbol:   symbol,
		Currency: result.Meta.Currency,
		Source:   "yahoo",
	}
	if len(result.Indicators.Quote) == 0 {
		return history, nil
	}
	q := result.Indicators.Quote[0]

	history.Bars = make([]models.EODBar, 0, len(result.Timestamp))
	for i := len(result.Timestamp) - 1; i >= 0; i-- {
		closePrice := at(q.Close, i)
		if closePrice == nil {
			continue
		}
		bar := models.EODBar{
			Date:  time.Unix(result.Timestamp[i], 0).UTC(),
			Close: *closePrice,
			Open:  valueOr(at(q.Open, i), *closePrice),
			High:  valueOr(at(q.High, i), *closePrice),
			Low:   valueOr(at(q.Low, i), *closePrice),
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		history.Bars = append(history.Bars, bar)
	}

	return history, nil
}

// GetRate reads the latest close of the FROMTO=X currency pair
func (c *Client) GetRate(ctx context.Context, from, to string) (float64, error) {
	history, err := c.GetHistory(ctx, from+to+"=X", models.Range5Day)
	if err != nil {
		return 0, err
	}
	latest, ok := history.Latest()
	if !ok || latest.Close <= 0 {
		return 0, fmt.Errorf("no rate for %s%s", from, to)
	}
	return latest.Close, nil
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

var (
	_ interfaces.HistoryClient = (*Client)(nil)
	_ interfaces.RateClient    = (*Client)(nil)
)

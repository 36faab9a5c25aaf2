// Package eodhd provides a client for the EODHD end-of-day price API
package eodhd

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
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements interfaces.HistoryClient against EODHD
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	now        func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
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

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
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
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// GetHistory retrieves daily bars for a Yahoo-style symbol, newest first
func (c *Client) GetHistory(ctx context.Context, symbol, rng string) (*models.PriceHistory, error) {
	ticker := Ticker(symbol)

	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "d") // descending (most recent first)

	now := c.now().UTC()
	limit := 0
	switch rng {
	case models.Range5Day:
		params.Set("from", now.AddDate(0, 0, -10).Format("2006-01-02"))
		limit = 5
	case models.Range3Month:
		params.Set("from", now.AddDate(0, -3, 0).Format("2006-01-02"))
	case models.Range1Year:
		params.Set("from", now.AddDate(-1, 0, 0).Format("2006-01-02"))
	case models.RangeMax:
	default:
		return nil, fmt.Errorf("unsupported range %q", rng)
	}

	var bars []eodBarResponse
	if err := c.get(ctx, "/eod/"+url.PathEscape(ticker), params, &bars); err != nil {
		return nil, err
	}

	if limit > 0 && len(bars) > limit {
		bars = bars[:limit]
	}

	history := &models.PriceHistory{
		Symbol: symbol,
		Bars:   make([]models.EODBar, 0, len(bars)),
		Source: "eodhd",
	}
	for _, bar := range bars {
		date, _ := time.Parse("2006-01-02", bar.Date)
		history.Bars = append(history.Bars, models.EODBar{
			Date:   date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}

	return history, nil
}

// Ticker maps a Yahoo-style symbol to its EODHD code:
// exchange suffixes, metal futures and currency pairs.
func Ticker(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))

	switch s {
	case "GC=F":
		return "XAUUSD.FOREX"
	case "SI=F":
		return "XAGUSD.FOREX"
	}

	switch {
	case strings.HasSuffix(s, "=X"):
		return strings.TrimSuffix(s, "=X") + ".FOREX"
	case strings.HasSuffix(s, models.SuffixNSE):
		return strings.TrimSuffix(s, models.SuffixNSE) + ".NSE"
	case strings.HasSuffix(s, models.SuffixBSE):
		return strings.TrimSuffix(s, models.SuffixBSE) + ".BSE"
	case strings.HasSuffix(s, models.SuffixSGX):
		return strings.TrimSuffix(s, models.SuffixSGX) + ".SG"
	case strings.Contains(s, "."):
		return s
	}
	return s + ".US"
}

// Ensure Client implements HistoryClient
var _ interfaces.HistoryClient = (*Client)(nil)

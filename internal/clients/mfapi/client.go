// Package mfapi provides a client for the mfapi.in Indian mutual fund NAV API
package mfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

const (
	DefaultBaseURL   = "https://api.mfapi.in"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5

	navDateLayout = "02-01-2006"
)

// Client implements interfaces.FundClient
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

// NewClient creates a new mfapi client
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
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mfapi error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("path", path).Msg("mfapi request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body)), Endpoint: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type schemeResponse struct {
	Meta struct {
		SchemeCode json.Number `json:"scheme_code"`
		SchemeName string      `json:"scheme_name"`
	} `json:"meta"`
	Data []struct {
		Date string `json:"date"`
		NAV  string `json:"nav"`
	} `json:"data"`
	Status string `json:"status"`
}

func (r *schemeResponse) points() []models.NAVPoint {
	points := make([]models.NAVPoint, 0, len(r.Data))
	for _, d := range r.Data {
		nav, err := strconv.ParseFloat(strings.TrimSpace(d.NAV), 64)
		if err != nil {
			continue
		}
		date, _ := time.Parse(navDateLayout, d.Date)
		points = append(points, models.NAVPoint{Date: date, NAV: nav})
	}
	return points
}

// GetFundHistory returns the full NAV series for a scheme, newest first
func (c *Client) GetFundHistory(ctx context.Context, schemeCode string) (*models.FundHistory, error) {
	var resp schemeResponse
	if err := c.get(ctx, "/mf/"+url.PathEscape(schemeCode), nil, &resp); err != nil {
		return nil, err
	}

	return &models.FundHistory{
		SchemeCode: schemeCode,
		SchemeName: resp.Meta.SchemeName,
		NAVs:       resp.points(),
	}, nil
}

// GetLatestNAV returns the most recent NAV for a scheme
func (c *Client) GetLatestNAV(ctx context.Context, schemeCode string) (*models.FundNAV, error) {
	var resp schemeResponse
	if err := c.get(ctx, "/mf/"+url.PathEscape(schemeCode)+"/latest", nil, &resp); err != nil {
		return nil, err
	}

	points := resp.points()
	if len(points) == 0 {
		return nil, fmt.Errorf("no NAV data for scheme %s", schemeCode)
	}

	return &models.FundNAV{
		SchemeCode: schemeCode,
		SchemeName: resp.Meta.SchemeName,
		NAV:        points[0].NAV,
		Date:       points[0].Date,
	}, nil
}

type searchHit struct {
	SchemeCode json.Number `json:"schemeCode"`
	SchemeName string      `json:"schemeName"`
}

// SearchFunds searches schemes by name
func (c *Client) SearchFunds(ctx context.Context, query string) ([]models.FundSearchResult, error) {
	params := url.Values{}
	params.Set("q", query)

	var hits []searchHit
	if err := c.get(ctx, "/mf/search", params, &hits); err != nil {
		return nil, err
	}

	results := make([]models.FundSearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, models.FundSearchResult{
			SchemeCode: h.SchemeCode.String(),
			SchemeName: h.SchemeName,
		})
	}
	return results, nil
}

var _ interfaces.FundClient = (*Client)(nil)

// Package llm provides the provider-neutral model gateway
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/mystock/internal/clients/anthropic"
	"github.com/bobmcallan/mystock/internal/clients/gemini"
	"github.com/bobmcallan/mystock/internal/clients/openai"
	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

// Request defaults
const (
	DefaultToolChoice  = "auto"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2048
)

// Gateway implements interfaces.LLMGateway over a single backend
type Gateway struct {
	backend    interfaces.LLMBackend
	provider   string
	model      string
	configured bool
	timeout    time.Duration
	logger     *common.Logger
}

// NewGateway wraps a backend. A nil backend yields an unconfigured gateway.
func NewGateway(backend interfaces.LLMBackend, model string, timeout time.Duration, logger *common.Logger) *Gateway {
	g := &Gateway{
		backend:    backend,
		model:      model,
		configured: backend != nil,
		timeout:    timeout,
		logger:     logger,
	}
	if backend != nil {
		g.provider = backend.Provider()
	}
	if g.timeout <= 0 {
		g.timeout = 60 * time.Second
	}
	return g
}

// NewFromConfig builds the backend for the configured provider. An
// unconfigured provider still returns a gateway that reports Configured=false.
func NewFromConfig(ctx context.Context, cfg common.AIConfig, logger *common.Logger) (*Gateway, error) {
	model := cfg.ModelID()
	if !cfg.IsConfigured() {
		g := NewGateway(nil, model, cfg.GetTimeout(), logger)
		g.provider = cfg.Provider
		return g, nil
	}

	backend, err := NewBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewGateway(backend, model, cfg.GetTimeout(), logger), nil
}

// NewBackend selects the client for cfg.Provider
func NewBackend(ctx context.Context, cfg common.AIConfig, logger *common.Logger) (interfaces.LLMBackend, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewClient(cfg.APIKey, openai.WithLogger(logger)), nil
	case "ollama":
		return openai.NewOllamaClient(cfg.OllamaBaseURL, logger), nil
	case "anthropic":
		return anthropic.NewClient(cfg.APIKey, logger), nil
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.APIKey, gemini.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}

// Provider returns the configured provider name
func (g *Gateway) Provider() string {
	return g.provider
}

// Model returns the default model id
func (g *Gateway) Model() string {
	return g.model
}

// Configured reports whether calls can be made
func (g *Gateway) Configured() bool {
	return g.configured
}

// Chat applies request defaults, calls the backend under the gateway
// timeout and prices the response. Backend failures are wrapped in
// models.ProviderError.
func (g *Gateway) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	if !g.configured {
		return nil, models.ErrAINotConfigured
	}

	call := *req
	if call.Model == "" {
		call.Model = g.model
	}
	if call.ToolChoice == "" && len(call.Tools) > 0 {
		call.ToolChoice = DefaultToolChoice
	}
	if call.Temperature == nil {
		call.Temperature = models.Temperature(DefaultTemperature)
	}
	if call.MaxTokens <= 0 {
		call.MaxTokens = DefaultMaxTokens
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.backend.Chat(ctx, &call)
	if err != nil {
		g.logger.Warn().Str("provider", g.provider).Str("model", call.Model).Err(err).Msg("LLM call failed")
		return nil, &models.ProviderError{Provider: g.provider, Err: err}
	}

	if resp.Model == "" {
		resp.Model = call.Model
	}
	if resp.ToolCalls == nil {
		resp.ToolCalls = []models.ToolCall{}
	}
	resp.CostUSD = Cost(resp.Model, resp.InputTokens, resp.OutputTokens)

	g.logger.Info().
		Str("provider", g.provider).
		Str("model", resp.Model).
		Int("input_tokens", resp.InputTokens).
		Int("output_tokens", resp.OutputTokens).
		Float64("cost_usd", resp.CostUSD).
		Int("tool_calls", len(resp.ToolCalls)).
		Dur("elapsed", time.Since(start)).
		Msg("LLM call complete")

	return resp, nil
}

var _ interfaces.LLMGateway = (*Gateway)(nil)

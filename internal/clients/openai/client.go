// Package openai adapts the OpenAI chat completions API, and any
// OpenAI-compatible endpoint such as Ollama, to interfaces.LLMBackend
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

// Client implements interfaces.LLMBackend
type Client struct {
	client   *goopenai.Client
	provider string
	logger   *common.Logger
}

// ClientOption configures the client
type ClientOption func(*clientSettings)

type clientSettings struct {
	baseURL  string
	provider string
	logger   *common.Logger
}

// WithBaseURL points the client at an OpenAI-compatible endpoint
func WithBaseURL(baseURL string) ClientOption {
	return func(s *clientSettings) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithProvider overrides the reported provider name
func WithProvider(provider string) ClientOption {
	return func(s *clientSettings) {
		s.provider = provider
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(s *clientSettings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewClient creates an OpenAI backend
func NewClient(apiKey string, opts ...ClientOption) *Client {
	s := &clientSettings{provider: "openai", logger: common.NewSilentLogger()}
	for _, opt := range opts {
		opt(s)
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}

	return &Client{
		client:   goopenai.NewClientWithConfig(cfg),
		provider: s.provider,
		logger:   s.logger,
	}
}

// NewOllamaClient creates a backend for a local Ollama server through its
// OpenAI-compatible /v1 endpoint
func NewOllamaClient(baseURL string, logger *common.Logger) *Client {
	return NewClient("ollama",
		WithBaseURL(strings.TrimRight(baseURL, "/")+"/v1"),
		WithProvider("ollama"),
		WithLogger(logger),
	)
}

// Provider returns the provider name
func (c *Client) Provider() string {
	return c.provider
}

// Chat performs one chat completion
func (c *Client) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	creq := goopenai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  toMessages(req.Messages),
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != nil {
		creq.Temperature = float32(*req.Temperature)
		if creq.Temperature == 0 {
			// the request field is omitempty, so zero would fall back to the provider default
			creq.Temperature = math.SmallestNonzeroFloat32
		}
	}
	if len(req.Tools) > 0 {
		creq.Tools = toTools(req.Tools)
		if req.ToolChoice != "" {
			creq.ToolChoice = req.ToolChoice
		}
	}

	c.logger.Debug().Str("provider", c.provider).Str("model", req.Model).Int("messages", len(creq.Messages)).Msg("Chat completion request")

	resp, err := c.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	msg := resp.Choices[0].Message
	out := &models.ChatResponse{
		Content:      msg.Content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	if out.Model == "" {
		out.Model = req.Model
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: parseArguments(tc.Function.Arguments),
		})
	}

	return out, nil
}

func toMessages(msgs []models.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		switch m := m.(type) {
		case models.SystemMessage:
			out = append(out, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: m.Content})
		case models.UserMessage:
			out = append(out, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: m.Content})
		case models.AssistantMessage:
			am := goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: m.Content}
			for _, tc := range m.ToolCalls {
				args, _ := json.Marshal(tc.Arguments)
				am.ToolCalls = append(am.ToolCalls, goopenai.ToolCall{
					ID:   tc.ID,
					Type: goopenai.ToolTypeFunction,
					Function: goopenai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, am)
		case models.ToolResultMessage:
			out = append(out, goopenai.ChatCompletionMessage{
				Role:       goopenai.ChatMessageRoleTool,
				Content:    m.Content,
				Name:       m.Name,
				ToolCallID: m.CallID,
			})
		}
	}
	return out
}

func toTools(schemas []models.ToolSchema) []goopenai.Tool {
	tools := make([]goopenai.Tool, 0, len(schemas))
	for _, s := range schemas {
		tools = append(tools, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	return tools
}

// parseArguments decodes a tool call's JSON arguments; malformed input yields no arguments
func parseArguments(raw string) map[string]any {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}

var _ interfaces.LLMBackend = (*Client)(nil)

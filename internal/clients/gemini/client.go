// Package gemini adapts the Google Gemini API to interfaces.LLMBackend
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

// Client implements interfaces.LLMBackend
type Client struct {
	client *genai.Client
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*genai.ClientConfig, *Client)

// WithBaseURL overrides the API endpoint
func WithBaseURL(baseURL string) ClientOption {
	return func(cfg *genai.ClientConfig, _ *Client) {
		cfg.HTTPOptions.BaseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(_ *genai.ClientConfig, c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new Gemini backend
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	c := &Client{logger: common.NewSilentLogger()}
	for _, opt := range opts {
		opt(cfg, c)
	}

	genaiClient, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = genaiClient

	return c, nil
}

// Provider returns the provider name
func (c *Client) Provider() string {
	return "gemini"
}

// Chat performs one GenerateContent call
func (c *Client) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	system, contents := toContents(req.Messages)

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(req.Tools)}}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto},
		}
	}

	c.logger.Debug().Str("model", req.Model).Int("contents", len(contents)).Msg("Gemini generate request")

	result, err := c.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	return fromResponse(result, req.Model), nil
}

func fromResponse(result *genai.GenerateContentResponse, model string) *models.ChatResponse {
	out := &models.ChatResponse{Model: result.ModelVersion}
	if out.Model == "" {
		out.Model = model
	}
	if result.UsageMetadata != nil {
		out.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return out
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			id := part.FunctionCall.ID
			if id == "" {
				id = "call_" + uuid.NewString()[:8]
			}
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			out.ToolCalls = append(out.ToolCalls, models.ToolCall{ID: id, Name: part.FunctionCall.Name, Arguments: args})
			continue
		}
		text.WriteString(part.Text)
	}
	out.Content = text.String()
	return out
}

// toContents maps the transcript onto user/model turns. Tool results become
// function responses in a user turn, keyed by the tool name.
func toContents(msgs []models.Message) (string, []*genai.Content) {
	var system []string
	var out []*genai.Content

	for _, m := range msgs {
		switch m := m.(type) {
		case models.SystemMessage:
			system = append(system, m.Content)
		case models.UserMessage:
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleUser))
		case models.AssistantMessage:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: tc.Arguments}})
			}
			if len(parts) > 0 {
				out = append(out, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		case models.ToolResultMessage:
			part := &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       m.CallID,
				Name:     m.Name,
				Response: toolResponse(m.Content),
			}}
			if n := len(out); n > 0 && out[n-1].Role == string(genai.RoleUser) && isFunctionResponses(out[n-1]) {
				out[n-1].Parts = append(out[n-1].Parts, part)
			} else {
				out = append(out, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
			}
		}
	}

	return strings.Join(system, "\n\n"), out
}

func isFunctionResponses(content *genai.Content) bool {
	for _, p := range content.Parts {
		if p.FunctionResponse == nil {
			return false
		}
	}
	return len(content.Parts) > 0
}

// toolResponse wraps a JSON tool result as the function response object
func toolResponse(content string) map[string]any {
	var decoded any
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		return map[string]any{"output": content}
	}
	if obj, ok := decoded.(map[string]any); ok {
		return obj
	}
	return map[string]any{"output": decoded}
}

func toDeclarations(schemas []models.ToolSchema) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(schemas))
	for _, s := range schemas {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 s.Name,
			Description:          s.Description,
			ParametersJsonSchema: s.Parameters,
		})
	}
	return decls
}

var _ interfaces.LLMBackend = (*Client)(nil)

// Package anthropic adapts the Anthropic Messages API to interfaces.LLMBackend
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

// Client implements interfaces.LLMBackend
type Client struct {
	client sdk.Client
	logger *common.Logger
}

// NewClient creates an Anthropic backend. Extra request options, such as
// option.WithBaseURL, are passed through to the SDK.
func NewClient(apiKey string, logger *common.Logger, opts ...option.RequestOption) *Client {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		client: sdk.NewClient(opts...),
		logger: logger,
	}
}

// Provider returns the provider name
func (c *Client) Provider() string {
	return "anthropic"
}

// Chat performs one Messages API call
func (c *Client) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	system, messages := toMessages(req.Messages)

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  messages,
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if len(req.Tools) > 0 {
		params.Tools = toTools(req.Tools)
	}

	c.logger.Debug().Str("model", req.Model).Int("messages", len(messages)).Msg("Anthropic messages request")

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	out := &models.ChatResponse{
		Model:        string(msg.Model),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
	if out.Model == "" {
		out.Model = req.Model
	}

	var text strings.Builder
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			args := map[string]any{}
			if len(block.Input) > 0 {
				_ = json.Unmarshal(block.Input, &args)
			}
			out.ToolCalls = append(out.ToolCalls, models.ToolCall{ID: block.ID, Name: block.Name, Arguments: args})
		}
	}
	out.Content = text.String()

	return out, nil
}

// toMessages splits the system instruction out and folds consecutive tool
// results into a single user turn, as the Messages API expects
func toMessages(msgs []models.Message) (string, []sdk.MessageParam) {
	var system []string
	var out []sdk.MessageParam
	var pendingResults []sdk.ContentBlockParamUnion

	flush := func() {
		if len(pendingResults) > 0 {
			out = append(out, sdk.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, m := range msgs {
		switch m := m.(type) {
		case models.SystemMessage:
			system = append(system, m.Content)
		case models.UserMessage:
			flush()
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case models.AssistantMessage:
			flush()
			var blocks []sdk.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				args := tc.Arguments
				if args == nil {
					args = map[string]any{}
				}
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, args, tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, sdk.NewAssistantMessage(blocks...))
			}
		case models.ToolResultMessage:
			pendingResults = append(pendingResults, sdk.NewToolResultBlock(m.CallID, m.Content, false))
		}
	}
	flush()

	return strings.Join(system, "\n\n"), out
}

func toTools(schemas []models.ToolSchema) []sdk.ToolUnionParam {
	tools := make([]sdk.ToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		schema := sdk.ToolInputSchemaParam{Properties: s.Parameters["properties"]}
		if req, ok := s.Parameters["required"].([]string); ok {
			schema.Required = req
		} else if req, ok := s.Parameters["required"].([]any); ok {
			for _, r := range req {
				if name, ok := r.(string); ok {
					schema.Required = append(schema.Required, name)
				}
			}
		}
		tools = append(tools, sdk.ToolUnionParam{OfTool: &sdk.ToolParam{
			Name:        s.Name,
			Description: sdk.String(s.Description),
			InputSchema: schema,
		}})
	}
	return tools
}

var _ interfaces.LLMBackend = (*Client)(nil)

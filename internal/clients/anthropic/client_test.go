package anthropic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/mystock/internal/models"
)

func TestToMessages_SystemAndToolResults(t *testing.T) {
	system, msgs := toMessages([]models.Message{
		models.SystemMessage{Content: "You are a portfolio assistant."},
		models.UserMessage{Content: "summary please"},
		models.AssistantMessage{ToolCalls: []models.ToolCall{
			{ID: "tu_1", Name: "get_portfolio_summary"},
			{ID: "tu_2", Name: "get_forex_rate", Arguments: map[string]any{"from_currency": "USD", "to_currency": "SGD"}},
		}},
		models.ToolResultMessage{CallID: "tu_1", Name: "get_portfolio_summary", Content: `{}`},
		models.ToolResultMessage{CallID: "tu_2", Name: "get_forex_rate", Content: `{"rate":1.34}`},
	})

	assert.Equal(t, "You are a portfolio assistant.", system)
	require.Len(t, msgs, 3, "both tool results share one user turn")
	assert.Len(t, msgs[1].Content, 2)
	assert.Len(t, msgs[2].Content, 2)
}

func TestToTools_RequiredFields(t *testing.T) {
	tools := toTools([]models.ToolSchema{{
		Name:        "get_current_price",
		Description: "price",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"symbol": map[string]any{"type": "string"}},
			"required":   []string{"symbol"},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, []string{"symbol"}, tools[0].OfTool.InputSchema.Required)
}

func TestChat_ParsesToolUse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5-20251001",
			"content":[
				{"type":"text","text":"Let me check."},
				{"type":"tool_use","id":"tu_1","name":"get_current_price","input":{"symbol":"AAPL"}}
			],
			"stop_reason":"tool_use",
			"usage":{"input_tokens":200,"output_tokens":30}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", nil, option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	resp, err := c.Chat(context.Background(), &models.ChatRequest{
		Model:     "claude-haiku-4-5-20251001",
		Messages:  []models.Message{models.UserMessage{Content: "AAPL?"}},
		MaxTokens: 2048,
	})
	require.NoError(t, err)

	assert.Equal(t, "Let me check.", resp.Content)
	assert.Equal(t, 200, resp.InputTokens)
	assert.Equal(t, 30, resp.OutputTokens)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "AAPL", resp.ToolCalls[0].Arguments["symbol"])
}

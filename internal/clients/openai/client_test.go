package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/mystock/internal/models"
)

func TestChat_ToolCallRoundTrip(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"tool_calls","message":{
				"role":"assistant","content":"",
				"tool_calls":[{"id":"call_1","type":"function","function":{"name":"get_top_performers","arguments":"{\"n\":3}"}}]
			}}],
			"usage":{"prompt_tokens":120,"completion_tokens":15,"total_tokens":135}
		}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", WithBaseURL(srv.URL+"/v1"))
	resp, err := c.Chat(context.Background(), &models.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []models.Message{
			models.SystemMessage{Content: "sys"},
			models.UserMessage{Content: "best holdings?"},
		},
		Tools: []models.ToolSchema{{
			Name:        "get_top_performers",
			Description: "Top performers",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		}},
		ToolChoice:  "auto",
		Temperature: models.Temperature(0.3),
		MaxTokens:   2048,
	})
	require.NoError(t, err)

	assert.Equal(t, "auto", body["tool_choice"])
	assert.Len(t, body["tools"], 1)
	assert.Len(t, body["messages"], 2)

	assert.Equal(t, 120, resp.InputTokens)
	assert.Equal(t, 15, resp.OutputTokens)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "get_top_performers", resp.ToolCalls[0].Name)
	assert.Equal(t, float64(3), resp.ToolCalls[0].Arguments["n"])
}

func TestChat_ZeroTemperatureIsSent(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-2","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}],
			"usage":{"prompt_tokens":5,"completion_tokens":1,"total_tokens":6}}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", WithBaseURL(srv.URL+"/v1"))
	msgs := []models.Message{models.UserMessage{Content: "hi"}}

	_, err := c.Chat(context.Background(), &models.ChatRequest{Model: "gpt-4o-mini", Messages: msgs, Temperature: models.Temperature(0)})
	require.NoError(t, err)
	_, err = c.Chat(context.Background(), &models.ChatRequest{Model: "gpt-4o-mini", Messages: msgs})
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	require.Contains(t, bodies[0], "temperature")
	assert.InDelta(t, 0, bodies[0]["temperature"], 1e-9)
	assert.NotContains(t, bodies[1], "temperature")
}

func TestChat_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewClient("bad", WithBaseURL(srv.URL+"/v1"))
	_, err := c.Chat(context.Background(), &models.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []models.Message{models.UserMessage{Content: "hi"}},
	})
	require.Error(t, err)
}

func TestToMessages_ToolTurn(t *testing.T) {
	msgs := toMessages([]models.Message{
		models.AssistantMessage{ToolCalls: []models.ToolCall{{ID: "c1", Name: "get_portfolio_summary", Arguments: map[string]any{}}}},
		models.ToolResultMessage{CallID: "c1", Name: "get_portfolio_summary", Content: `{"total":1}`},
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, "assistant", msgs[0].Role)
	assert.Equal(t, "{}", msgs[0].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "tool", msgs[1].Role)
	assert.Equal(t, "c1", msgs[1].ToolCallID)
}

func TestParseArguments(t *testing.T) {
	assert.Equal(t, map[string]any{}, parseArguments(""))
	assert.Equal(t, map[string]any{}, parseArguments("{not json"))
	assert.Equal(t, map[string]any{"symbol": "AAPL"}, parseArguments(`{"symbol":"AAPL"}`))
}

func TestNewOllamaClient(t *testing.T) {
	c := NewOllamaClient("http://localhost:11434/", nil)
	assert.Equal(t, "ollama", c.Provider())
}

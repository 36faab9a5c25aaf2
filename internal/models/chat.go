package models

import (
	"encoding/json"
	"time"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one transcript entry. The concrete types are SystemMessage,
// UserMessage, AssistantMessage and ToolResultMessage.
type Message interface {
	Role() string
	isMessage()
}

// SystemMessage carries the fixed system instruction
type SystemMessage struct {
	Content string
}

// UserMessage is a user turn
type UserMessage struct {
	Content string
}

// AssistantMessage is a model turn; ToolCalls is empty for a direct answer
type AssistantMessage struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolResultMessage carries the serialized result of one tool call
type ToolResultMessage struct {
	CallID  string
	Name    string
	Content string
}

func (SystemMessage) Role() string     { return RoleSystem }
func (UserMessage) Role() string       { return RoleUser }
func (AssistantMessage) Role() string  { return RoleAssistant }
func (ToolResultMessage) Role() string { return RoleTool }

func (SystemMessage) isMessage()     {}
func (UserMessage) isMessage()       {}
func (AssistantMessage) isMessage()  {}
func (ToolResultMessage) isMessage() {}

// ToolCall is a model-requested tool invocation
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type wireMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	CallID    string     `json:"tool_call_id,omitempty"`
	Name      string     `json:"name,omitempty"`
}

func (m SystemMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{Role: RoleSystem, Content: m.Content})
}

func (m UserMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{Role: RoleUser, Content: m.Content})
}

func (m AssistantMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{Role: RoleAssistant, Content: m.Content, ToolCalls: m.ToolCalls})
}

func (m ToolResultMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{Role: RoleTool, Content: m.Content, CallID: m.CallID, Name: m.Name})
}

// ChatSession is a process-scoped conversation with running usage totals
type ChatSession struct {
	ID           string    `json:"id"`
	Messages     []Message `json:"messages"`
	TotalCostUSD float64   `json:"total_cost_usd"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChatReply is the outcome of one user turn
type ChatReply struct {
	SessionID    string  `json:"session_id"`
	Content      string  `json:"content"`
	Rounds       int     `json:"rounds"`
	Exhausted    bool    `json:"exhausted"`
	TurnCostUSD  float64 `json:"turn_cost_usd"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

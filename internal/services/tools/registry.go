// Package tools provides the name-indexed catalog of model-callable tools
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/models"
)

// InvokeFunc runs a tool with decoded JSON arguments
type InvokeFunc func(ctx context.Context, args map[string]any) (any, error)

// Tool is a schema-described callable
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema of the arguments object
	Invoke      InvokeFunc
}

// Schema returns the model-facing description of the tool
func (t Tool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Registry holds tools in registration order
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	logger *common.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *common.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds a tool. Registering an existing name replaces it in place.
func (r *Registry) Register(tool Tool) {
	if tool.Parameters == nil {
		tool.Parameters = objectSchema(nil, nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = tool
}

// Tools returns the registered tools in registration order
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Schemas returns every tool schema in registration order
func (r *Registry) Schemas() []models.ToolSchema {
	tools := r.Tools()
	out := make([]models.ToolSchema, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Schema())
	}
	return out
}

// Execute runs the named tool and returns its result as JSON. Unknown tools,
// failures and panics are reported as an {"error": ...} payload.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (result string) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return errorPayload("Unknown tool: " + name)
	}
	if args == nil {
		args = map[string]any{}
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Str("tool", name).Str("panic", fmt.Sprintf("%v", p)).Msg("Tool panicked")
			result = errorPayload(fmt.Sprintf("%v", p))
		}
	}()

	value, err := tool.Invoke(ctx, args)
	if err != nil {
		r.logger.Warn().Str("tool", name).Err(err).Msg("Tool failed")
		return errorPayload(err.Error())
	}

	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn().Str("tool", name).Err(err).Msg("Tool result not serializable")
		return errorPayload(err.Error())
	}
	return string(data)
}

func errorPayload(msg string) string {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return string(data)
}

// objectSchema builds a JSON schema for an arguments object
func objectSchema(properties map[string]any, required []string) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg accepts JSON numbers and numeric strings
func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}

func boolArg(args map[string]any, key string, fallback bool) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		switch v {
		case "true", "True", "1":
			return true
		case "false", "False", "0":
			return false
		}
	}
	return fallback
}

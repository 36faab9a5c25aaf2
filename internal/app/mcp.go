package app

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/services/tools"
)

// registerMCPTools exposes every registry tool on the MCP server with its
// own JSON schema. Results are the same JSON strings the agent sees.
func registerMCPTools(s *server.MCPServer, registry *tools.Registry, logger *common.Logger) {
	for _, t := range registry.Tools() {
		schema, err := json.Marshal(t.Parameters)
		if err != nil {
			logger.Warn().Str("tool", t.Name).Err(err).Msg("Skipping MCP tool with unencodable schema")
			continue
		}
		s.AddTool(mcp.NewToolWithRawSchema(t.Name, t.Description, schema), handleRegistryTool(registry, t.Name))
	}
}

func handleRegistryTool(registry *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		return mcp.NewToolResultText(registry.Execute(ctx, name, args)), nil
	}
}

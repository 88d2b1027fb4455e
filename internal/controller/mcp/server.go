// Package mcp serves capabilities as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/anupakum/MCP-Payment-idea/internal/capability"
	"github.com/anupakum/MCP-Payment-idea/pkg/correlation"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const ServerName = "dispute-capabilities"

// NewServer registers every capability of reg as a tool.
func NewServer(reg *capability.Registry, version string) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{Name: ServerName, Version: version}, nil)

	for _, c := range reg.List() {
		server.AddTool(&sdkmcp.Tool{
			Name:        c.Name(),
			Description: c.Description(),
			InputSchema: c.InputSchema(),
		}, toolHandler(reg, c.Name()))
	}
	return server
}

func toolHandler(reg *capability.Registry, name string) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		ctx, _ = correlation.Ensure(ctx)

		var args json.RawMessage
		if req.Params != nil {
			args = req.Params.Arguments
		}
		return toolResult(ctx, reg.Invoke(ctx, name, args)), nil
	}
}

// toolResult encodes the Result as text. Failed capabilities are tool
// errors, not protocol errors.
func toolResult(ctx context.Context, res capability.Result) *sdkmcp.CallToolResult {
	text, err := json.Marshal(res)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode capability result", slog.Any("error", err))
		text = []byte(`{"success":false,"message":"result could not be encoded","error":"internal"}`)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(text)}},
		IsError: !res.Success,
	}
}

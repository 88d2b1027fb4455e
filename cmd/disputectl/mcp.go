package main

import (
	"os"

	"github.com/anupakum/MCP-Payment-idea/config"
	"github.com/anupakum/MCP-Payment-idea/internal/app"
	"github.com/anupakum/MCP-Payment-idea/internal/controller/mcp"
	"github.com/anupakum/MCP-Payment-idea/pkg/logger"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the dispute capabilities as MCP tools over stdio",
		Long: `Serve the dispute capabilities as MCP tools over stdin/stdout.

The store backend and event sinks come from the same environment as the
HTTP service. Logs go to stderr because stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			logger.Setup(logger.Options{
				Level:   cfg.LogLevel,
				Console: cfg.LogFormat == "console",
				Output:  os.Stderr,
				Service: "dispute-mcp",
			})

			ctx := cmd.Context()
			a, err := app.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			server := mcp.NewServer(a.Registry, Version)
			return server.Run(ctx, &sdkmcp.StdioTransport{})
		},
	}
}

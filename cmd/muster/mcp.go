package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/muster"
	"github.com/aretw0/muster/pkg/adapters/mcp"
	"github.com/aretw0/muster/pkg/adapters/memory"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the coordination commands as MCP tools over an in-memory chat platform.
This allows AI agents to rehearse a coordination on behalf of chat users.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		coordCfg := cfg.CoordinatorConfig()
		if coordCfg.CoordinationChannelID == "" {
			coordCfg.CoordinationChannelID = consoleChannel
		}
		bot := muster.New(memory.NewGateway(coordCfg.CoordinationChannelID), memory.Grantor{}, coordCfg,
			muster.WithLogger(logger),
		)
		srv := mcp.NewServer(bot.Registry(), bot.Coordinator(), mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting Muster MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting Muster MCP Server (SSE)", "port", port)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.ServeSSE(ctx, port); err != nil {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}

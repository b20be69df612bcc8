package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/quire/internal/cli"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes document sessions as MCP tools, so agents can submit descriptions,
check whether they changed and read back layout and text.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP on --addr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		if transport == cli.TransportStdio {
			// Stdout carries JSON-RPC.
			log.SetOutput(os.Stderr)
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.ServeMCP(ctx, cfg, transport, logger)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", cli.TransportStdio, "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8080", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("store", "memory", "Document store: memory, file or redis")
}

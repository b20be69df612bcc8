package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/quire/internal/cli"
	"github.com/aretw0/quire/internal/presentation/tui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves document sessions over HTTP. Descriptions are kept in memory, in a
directory or in Redis; Markdown documents from --dir are loaded on demand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		tui.PrintBanner(cmd.OutOrStdout())

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		err = cli.Serve(ctx, cfg, cmd.OutOrStdout(), logger, nil)
		if sig := ctx.Signal(); sig != nil {
			logger.Info("Shutdown requested", "signal", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("store", "memory", "Document store: memory, file or redis")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address for --store redis")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics at /metrics")
	serveCmd.Flags().Bool("compress", true, "Compress page content streams")
}

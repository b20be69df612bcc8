package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/quire/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "quire",
	Short: "Quire renders declarative document trees to PDF",
	Long: `Quire keeps live document sessions: submit a description tree, and render it
to a streamed buffer, a downloadable blob or text whenever it changes.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Config file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing Markdown documents")
}

// loadConfig reads the config file and applies the flags the user set.
// The default config path may be absent; an explicit one must exist.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOptional(path)
	}
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("dir") {
		cfg.Documents, _ = flags.GetString("dir")
	}
	if f := flags.Lookup("addr"); f != nil && f.Changed {
		cfg.Addr = f.Value.String()
	}
	if f := flags.Lookup("store"); f != nil && f.Changed {
		cfg.Store.Kind = f.Value.String()
	}
	if f := flags.Lookup("redis-addr"); f != nil && f.Changed {
		cfg.Store.Redis.Addr = f.Value.String()
	}
	if flags.Lookup("metrics") != nil && flags.Changed("metrics") {
		cfg.Metrics, _ = flags.GetBool("metrics")
	}
	if flags.Lookup("compress") != nil && flags.Changed("compress") {
		cfg.Compress, _ = flags.GetBool("compress")
	}
	return cfg, cfg.Validate()
}

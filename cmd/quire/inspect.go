package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/quire/internal/cli"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.yaml|file.json|document-id>",
	Short: "Show the page layout of a document",
	Long:  `Lays the document out and prints its pages and node boxes, or a Mermaid diagram of the tree with --graph.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("dir")
		graph, _ := cmd.Flags().GetBool("graph")
		plain, _ := cmd.Flags().GetBool("plain")
		width, _ := cmd.Flags().GetInt("width")

		return cli.Inspect(cmd.Context(), cli.InspectOptions{
			Source: cli.Source{Path: args[0], Dir: dir},
			Graph:  graph,
			Plain:  plain,
			Width:  width,
		}, cmd.OutOrStdout(), logger)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().Bool("graph", false, "Print a Mermaid diagram of the tree")
	inspectCmd.Flags().Bool("plain", false, "Print raw Markdown")
	inspectCmd.Flags().Int("width", 0, "Wrap width for the styled report")
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/quire/internal/cli"
)

var renderCmd = &cobra.Command{
	Use:   "render <file.yaml|file.json|document-id>",
	Short: "Render a document to PDF or text",
	Long: `Renders a description file, or a Markdown document from --dir, once.
PDF output is never written to a terminal unless --force is given.
With --watch, Markdown documents are re-rendered whenever they change.`,
	Args: cobra.ExactArgs(1),
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
		output, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")
		force, _ := cmd.Flags().GetBool("force")
		watch, _ := cmd.Flags().GetBool("watch")
		stamp, _ := cmd.Flags().GetBool("stamp")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.Render(ctx, cli.RenderOptions{
			Source:   cli.Source{Path: args[0], Dir: dir},
			Output:   output,
			Format:   format,
			Force:    force,
			Watch:    watch,
			Compress: cfg.Compress,
			Stamp:    stamp,
		}, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("output", "o", "-", "Output file, - for stdout")
	renderCmd.Flags().StringP("format", "f", cli.FormatPDF, "Output format: pdf or text")
	renderCmd.Flags().Bool("force", false, "Write PDF to stdout even when it is a terminal")
	renderCmd.Flags().BoolP("watch", "w", false, "Re-render Markdown documents on change")
	renderCmd.Flags().Bool("compress", true, "Compress page content streams")
	renderCmd.Flags().Bool("stamp", false, "Record the creation date in the PDF")
}

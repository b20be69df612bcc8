package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/codec"
	"github.com/aretw0/quire/internal/presentation/graph"
	"github.com/aretw0/quire/internal/presentation/tui"
)

// InspectOptions contains the configuration for the inspect command.
type InspectOptions struct {
	Source Source
	Graph  bool // print a Mermaid diagram instead of the report
	Plain  bool // skip terminal styling
	Width  int
}

// Inspect lays the source out and prints a report of its pages and nodes.
func Inspect(ctx context.Context, opts InspectOptions, w io.Writer, logger *slog.Logger) error {
	desc, err := opts.Source.Load(ctx)
	if err != nil {
		return err
	}
	fp, err := codec.Fingerprint(desc)
	if err != nil {
		return err
	}
	sess, err := quire.Start(&desc,
		quire.WithName(opts.Source.ID()),
		quire.WithLogger(logger),
		quire.WithRenderer(newRenderer(RenderOptions{Source: opts.Source, Compress: true}, logger)),
	)
	if err != nil {
		return err
	}
	defer sess.Destroy()

	// Layout data is produced by a render pass.
	if _, err := sess.ToBlob(ctx); err != nil {
		return err
	}
	ld, err := sess.LayoutData()
	if err != nil {
		return err
	}

	if opts.Graph {
		_, err := io.WriteString(w, graph.GenerateMermaid(desc, &graph.Overlay{Layout: ld}))
		return err
	}

	title, _ := desc.Props["title"].(string)
	if title == "" {
		title = opts.Source.ID()
	}
	md := tui.Report{
		Title:       title,
		Fingerprint: fp,
		Dirty:       sess.IsDirty(),
		Generation:  sess.Generation(),
		Layout:      ld,
	}.Markdown()
	if opts.Plain || !isTerminal(w) {
		_, err := io.WriteString(w, md)
		return err
	}
	out, err := tui.NewRenderer(opts.Width)(md)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

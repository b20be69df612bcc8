package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/presentation/tui"
	loamadapter "github.com/aretw0/quire/pkg/adapters/loam"
	"github.com/aretw0/quire/pkg/adapters/pdf"
)

// ErrTerminalOutput is returned when binary output would go to a terminal.
var ErrTerminalOutput = errors.New("refusing to write PDF to a terminal; use --output or --force")

// Output formats.
const (
	FormatPDF  = "pdf"
	FormatText = "text"
)

// RenderOptions contains the configuration for the render command.
type RenderOptions struct {
	Source   Source
	Output   string // file path, "-" for stdout
	Format   string
	Force    bool
	Watch    bool
	Compress bool
	Stamp    bool // write a creation date
}

// Render renders the source once, or on every change with Watch.
func Render(ctx context.Context, opts RenderOptions, stdout, stderr io.Writer, logger *slog.Logger) error {
	if opts.Format == "" {
		opts.Format = FormatPDF
	}
	if opts.Format != FormatPDF && opts.Format != FormatText {
		return fmt.Errorf("unknown format %q", opts.Format)
	}
	if opts.Output == "" {
		opts.Output = "-"
	}
	if opts.Output == "-" && opts.Format == FormatPDF && !opts.Force && isTerminal(stdout) {
		return ErrTerminalOutput
	}
	if opts.Watch && opts.Output == "-" {
		return errors.New("--watch needs --output")
	}

	desc, err := opts.Source.Load(ctx)
	if err != nil {
		return err
	}
	sess, err := quire.Start(&desc,
		quire.WithName(opts.Source.ID()),
		quire.WithLogger(logger),
		quire.WithRenderer(newRenderer(opts, logger)),
	)
	if err != nil {
		return err
	}
	defer sess.Destroy()

	if err := renderOnce(ctx, sess, opts, stdout); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}
	return watch(ctx, sess, opts, stderr, logger)
}

func newRenderer(opts RenderOptions, logger *slog.Logger) *pdf.Renderer {
	ropts := []pdf.Option{
		pdf.WithLogger(logger),
		pdf.WithCompression(opts.Compress),
		pdf.WithBaseDir(opts.Source.BaseDir()),
	}
	if opts.Stamp {
		ropts = append(ropts, pdf.WithClock(time.Now))
	}
	return pdf.New(ropts...)
}

func renderOnce(ctx context.Context, sess *quire.Session, opts RenderOptions, stdout io.Writer) error {
	if opts.Format == FormatText {
		text, err := sess.ToText(ctx)
		if err != nil {
			return err
		}
		return writeOutput(opts.Output, stdout, []byte(text))
	}

	if opts.Output == "-" {
		rc, err := sess.ToBuffer(ctx)
		if err != nil {
			return err
		}
		defer rc.Close()
		_, err = io.Copy(stdout, rc)
		return err
	}
	blob, err := sess.ToBlob(ctx)
	if err != nil {
		return err
	}
	return writeOutput(opts.Output, stdout, blob.Bytes())
}

// writeOutput replaces path atomically, or writes to stdout for "-".
func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".quire-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// watch re-renders whenever the Markdown source changes.
func watch(ctx context.Context, sess *quire.Session, opts RenderOptions, stderr io.Writer, logger *slog.Logger) error {
	if opts.Source.IsDescription() {
		return errors.New("--watch works with Markdown documents only")
	}
	loader, err := loamadapter.Open(opts.Source.Dir)
	if err != nil {
		return err
	}
	events, err := loader.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	tui.PrintBanner(stderr)
	printSystemMessage(stderr, "Watching %s, writing %s", opts.Source.Path, opts.Output)

	for {
		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-events:
			if !ok {
				return nil
			}
			if id != opts.Source.DocumentID() {
				continue
			}
			if err := reload(ctx, sess, loader, opts); err != nil {
				logger.Error("Reload failed", "document", id, "error", err)
				printSystemMessage(stderr, "Reload failed: %v", err)
				continue
			}
			printSystemMessage(stderr, "Rendered %s (%s)", opts.Output, tui.DirtyLabel(stderr, sess.IsDirty()))
		}
	}
}

func reload(ctx context.Context, sess *quire.Session, loader *loamadapter.Loader, opts RenderOptions) error {
	desc, err := loader.Load(ctx, opts.Source.Path)
	if err != nil {
		return err
	}
	if err := sess.Update(ctx, desc); err != nil {
		return err
	}
	if !sess.IsDirty() {
		return nil
	}
	return renderOnce(ctx, sess, opts, io.Discard)
}

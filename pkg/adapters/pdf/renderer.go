// Package pdf is the default Renderer: it lays out the mounted document and
// streams it as PDF.
package pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/quire/internal/layout"
	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/internal/pdf"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/aretw0/quire/pkg/tree"
)

// Renderer implements ports.Renderer.
type Renderer struct {
	baseDir  string
	compress bool
	clock    func() time.Time
	logger   *slog.Logger
	engine   *layout.Engine
}

var _ ports.Renderer = (*Renderer)(nil)

// Option configures the Renderer.
type Option func(*Renderer)

// WithLogger configures a logger for the Renderer.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithCompression toggles compression of page content streams (default on).
func WithCompression(on bool) Option {
	return func(r *Renderer) {
		r.compress = on
	}
}

// WithBaseDir resolves relative IMAGE sources against dir.
func WithBaseDir(dir string) Option {
	return func(r *Renderer) {
		r.baseDir = dir
	}
}

// WithClock stamps every document with a creation date taken from clock.
// Without it output is byte-for-byte reproducible.
func WithClock(clock func() time.Time) Option {
	return func(r *Renderer) {
		r.clock = clock
	}
}

// New creates a PDF renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{compress: true, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.engine = layout.New(layout.WithBaseDir(r.baseDir), layout.WithLogger(r.logger))
	return r
}

// Render lays out the document synchronously, records the layout on the
// container and returns a stream fed by a background writer. The writer
// stops when ctx is canceled or the stream is closed.
func (r *Renderer) Render(ctx context.Context, c *tree.Container) (io.ReadCloser, error) {
	doc, err := r.engine.Layout(c.Document())
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	c.SetLayout(doc.Data())

	opts := []pdf.Option{pdf.WithCompression(r.compress)}
	if r.clock != nil {
		opts = append(opts, pdf.WithCreationDate(r.clock()))
	}

	pr, pw := io.Pipe()
	go func() {
		err := pdf.Write(ctx, pw, doc, r.engine.Face(), opts...)
		if err != nil {
			r.logger.Debug("PDF stream aborted", "error", err)
		}
		pw.CloseWithError(err)
	}()
	return pr, nil
}

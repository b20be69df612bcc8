// Package layout places a document tree on pages.
//
// The model is a simple block flow: every element takes the full width of
// its container and stacks vertically, text is word-wrapped with the
// metrics of the embedded face, and content that does not fit the
// remaining height moves to a new page. Coordinates are points with the
// origin at the top-left corner of the page.
package layout

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/quire/internal/fonts"
	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/schema"
	"github.com/aretw0/quire/pkg/tree"
)

// Defaults applied when props are absent.
const (
	DefaultFontSize   = 12.0
	DefaultLineHeight = 1.2
	DefaultCanvasSize = 100.0
	NoteIconSize      = 16.0
	DefaultProducer   = "quire"
)

// Document is an immutable, laid-out snapshot of a tree.
type Document struct {
	Info  Info
	Pages []*Page
}

// Info is the document metadata.
type Info struct {
	Title, Author, Subject, Keywords, Creator, Producer string
}

// Page is one physical page.
type Page struct {
	Number     int
	Width      float64
	Height     float64
	Background *domain.Color
	Items      []Item // paint order
}

// Item is one placed node, or one fragment of a node split across pages.
type Item struct {
	Kind domain.Kind
	Key  string
	Path string
	Box  domain.Rect

	Fill        *domain.Color
	Stroke      *domain.Color
	StrokeWidth float64

	Lines    []Line            // TEXT, LINK
	Note     string            // NOTE
	NoteOpen bool              // NOTE
	Image    *Image            // IMAGE
	Paint    domain.CanvasFunc // CANVAS
}

// Line is one wrapped line of text.
type Line struct {
	Baseline float64 // absolute y of the baseline
	Runs     []Run
}

// Run is a stretch of a line sharing one style.
type Run struct {
	X     float64
	Width float64
	Text  string
	Size  float64
	Color domain.Color
	Href  string
}

// Engine lays out trees.
type Engine struct {
	face    *fonts.Face
	baseDir string
	logger  *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithFace replaces the default face used for measurement.
func WithFace(face *fonts.Face) Option {
	return func(e *Engine) {
		e.face = face
	}
}

// WithBaseDir resolves relative image paths against dir.
func WithBaseDir(dir string) Option {
	return func(e *Engine) {
		e.baseDir = dir
	}
}

// WithLogger configures a logger for the Engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates a layout engine.
func New(opts ...Option) *Engine {
	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.face == nil {
		e.face = fonts.Default()
	}
	return e
}

// Face returns the face used for measurement.
func (e *Engine) Face() *fonts.Face { return e.face }

// Layout places the DOCUMENT node doc. A nil document yields no pages.
func (e *Engine) Layout(doc *tree.Node) (*Document, error) {
	out := &Document{Info: Info{Producer: DefaultProducer}}
	if doc == nil {
		return out, nil
	}

	var props schema.DocumentProps
	if err := schema.DecodeProps(doc.Props, &props); err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	out.Info.Title = props.Title
	out.Info.Author = props.Author
	out.Info.Subject = props.Subject
	out.Info.Keywords = props.Keywords
	out.Info.Creator = props.Creator
	if props.Producer != "" {
		out.Info.Producer = props.Producer
	}

	for _, pageNode := range doc.Children {
		if err := e.layoutPage(out, pageNode); err != nil {
			return nil, err
		}
	}
	e.logger.Debug("Document laid out", "pages", len(out.Pages))
	return out, nil
}

// Data summarizes the layout for render callbacks and inspection.
func (d *Document) Data() domain.LayoutData {
	data := domain.LayoutData{Pages: make([]domain.PageLayout, 0, len(d.Pages))}
	for _, p := range d.Pages {
		pl := domain.PageLayout{Number: p.Number, Width: p.Width, Height: p.Height}
		for _, it := range p.Items {
			pl.Nodes = append(pl.Nodes, domain.NodeLayout{
				Kind:  it.Kind,
				Key:   it.Key,
				Path:  it.Path,
				Box:   it.Box,
				Lines: len(it.Lines),
			})
		}
		data.Pages = append(data.Pages, pl)
	}
	return data
}

func parseColor(s string) (*domain.Color, error) {
	if s == "" {
		return nil, nil
	}
	c, err := schema.ParseColor(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

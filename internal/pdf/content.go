package pdf

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/quire/internal/fonts"
	"github.com/aretw0/quire/internal/layout"
	"github.com/aretw0/quire/pkg/domain"
)

// pageContent builds the content stream of one page. Layout coordinates are
// top-left based; PDF user space is bottom-left, so every y is flipped.
func pageContent(page *layout.Page) (data []byte, err error) {
	var b bytes.Buffer
	h := page.Height
	if bg := page.Background; bg != nil {
		fmt.Fprintf(&b, "q %s rg 0 0 %s %s re f Q\n", rgb(*bg), num(page.Width), num(h))
	}
	for i, it := range page.Items {
		box := it.Box
		y := h - box.Y - box.Height
		if it.Fill != nil {
			fmt.Fprintf(&b, "q %s rg %s %s %s %s re f Q\n", rgb(*it.Fill), num(box.X), num(y), num(box.Width), num(box.Height))
		}
		if it.Stroke != nil {
			fmt.Fprintf(&b, "q %s RG %s w %s %s %s %s re S Q\n", rgb(*it.Stroke), num(it.StrokeWidth), num(box.X), num(y), num(box.Width), num(box.Height))
		}
		if it.Image != nil {
			fmt.Fprintf(&b, "q %s 0 0 %s %s %s cm /Im%d Do Q\n", num(box.Width), num(box.Height), num(box.X), num(y), i)
		}
		if it.Paint != nil {
			if err := paint(&b, it, h); err != nil {
				return nil, fmt.Errorf("canvas %s: %w", it.Path, err)
			}
		}
		for _, line := range it.Lines {
			for _, r := range line.Runs {
				if strings.TrimSpace(r.Text) == "" {
					continue
				}
				fmt.Fprintf(&b, "BT /F1 %s Tf %s rg %s %s Td %s Tj ET\n",
					num(r.Size), rgb(r.Color), num(r.X), num(h-line.Baseline), literal(r.Text))
			}
		}
	}
	return b.Bytes(), nil
}

// paint runs a canvas function in a flipped, clipped coordinate system.
func paint(b *bytes.Buffer, it layout.Item, pageH float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("paint panicked: %v", r)
		}
	}()
	box := it.Box
	fmt.Fprintf(b, "q 1 0 0 -1 %s %s cm 0 0 %s %s re W n\n", num(box.X), num(pageH-box.Y), num(box.Width), num(box.Height))
	it.Paint(&painter{b: b}, box.Width, box.Height)
	b.WriteString("Q\n")
	return nil
}

// painter emits path operators into a content stream.
type painter struct {
	b *bytes.Buffer
}

var _ domain.Painter = (*painter)(nil)

func (p *painter) op(operator string, args ...float64) {
	for _, a := range args {
		p.b.WriteString(num(a))
		p.b.WriteByte(' ')
	}
	p.b.WriteString(operator)
	p.b.WriteByte('\n')
}

func (p *painter) MoveTo(x, y float64)                    { p.op("m", x, y) }
func (p *painter) LineTo(x, y float64)                    { p.op("l", x, y) }
func (p *painter) CurveTo(x1, y1, x2, y2, x3, y3 float64) { p.op("c", x1, y1, x2, y2, x3, y3) }
func (p *painter) Rect(x, y, w, h float64)                { p.op("re", x, y, w, h) }
func (p *painter) ClosePath()                             { p.op("h") }
func (p *painter) Fill()                                  { p.op("f") }
func (p *painter) Stroke()                                { p.op("S") }
func (p *painter) FillStroke()                            { p.op("B") }
func (p *painter) SetFillColor(c domain.Color)            { p.op("rg", c.R, c.G, c.B) }
func (p *painter) SetStrokeColor(c domain.Color)          { p.op("RG", c.R, c.G, c.B) }
func (p *painter) SetLineWidth(w float64)                 { p.op("w", w) }
func (p *painter) Save()                                  { p.op("q") }
func (p *painter) Restore()                               { p.op("Q") }

// annotation is a link or note placed on a page, in layout coordinates.
type annotation struct {
	rect domain.Rect
	href string
	note string
	open bool
}

func annotations(page *layout.Page) []annotation {
	var out []annotation
	for _, it := range page.Items {
		if it.Kind == domain.KindNote {
			out = append(out, annotation{rect: it.Box, note: it.Note, open: it.NoteOpen})
			continue
		}
		for _, line := range it.Lines {
			for _, r := range line.Runs {
				if r.Href == "" {
					continue
				}
				out = append(out, annotation{
					rect: domain.Rect{X: r.X, Y: line.Baseline - r.Size, Width: r.Width, Height: r.Size * 1.25},
					href: r.Href,
				})
			}
		}
	}
	return out
}

func (a annotation) dict(pageH float64) string {
	r := a.rect
	rect := fmt.Sprintf("[%s %s %s %s]", num(r.X), num(pageH-r.Y-r.Height), num(r.X+r.Width), num(pageH-r.Y))
	if a.href != "" {
		return fmt.Sprintf("<< /Type /Annot /Subtype /Link /Rect %s /Border [0 0 0] /A << /S /URI /URI %s >> >>", rect, literal(a.href))
	}
	return fmt.Sprintf("<< /Type /Annot /Subtype /Text /Rect %s /Contents %s /Open %t /Name /Note >>", rect, literal(a.note), a.open)
}

// num formats a number with at most three decimals.
func num(f float64) string {
	f = math.Round(f*1000) / 1000
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func rgb(c domain.Color) string {
	return num(c.R) + " " + num(c.G) + " " + num(c.B)
}

// literal encodes s as a PDF string in WinAnsi.
func literal(s string) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, c := range fonts.Encode(s) {
		switch {
		case c == '(' || c == ')' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 32 || c > 126:
			fmt.Fprintf(&b, "\\%03o", c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// name escapes s for use as a PDF name object.
func name(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 33 || c > 126 || strings.IndexByte("()<>[]{}/%#", c) >= 0 {
			fmt.Fprintf(&b, "#%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	if b.Len() == 0 {
		return "Font"
	}
	return b.String()
}

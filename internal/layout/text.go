package layout

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/schema"
	"github.com/aretw0/quire/pkg/tree"
)

var linkColor = domain.Color{B: 0.8}

type style struct {
	size       float64
	lineHeight float64
	color      domain.Color
	href       string
}

// token is a piece of a word. Tokens without a leading space glue onto the
// previous one, so a word may span several styles.
type token struct {
	text  string
	style style
	space bool // whitespace precedes the token
	br    bool // hard line break, text is empty
}

func (p *pager) text(n *tree.Node, x, w float64) error {
	var props schema.TextProps
	if err := schema.DecodeProps(n.Props, &props); err != nil {
		return fmt.Errorf("element %s: %w", n.Path(), err)
	}
	base, err := inherit(style{size: DefaultFontSize, lineHeight: DefaultLineHeight}, n, props)
	if err != nil {
		return fmt.Errorf("element %s: %w", n.Path(), err)
	}

	var toks []token
	pending := false
	if err := tokenize(n, base, &toks, &pending); err != nil {
		return err
	}
	lines := p.wrap(toks, w)
	if len(lines) == 0 {
		// An empty text block still occupies one line.
		lines = [][]token{nil}
	}

	item := p.startText(n, x, w)
	for _, line := range lines {
		lh, asc := p.lineMetrics(line, base)
		if p.ensure(lh) {
			item = p.startText(n, x, w)
		}
		runs := p.runs(line)
		offset := 0.0
		if free := w - lineWidth(runs); free > 0 {
			switch props.TextAlign {
			case "center":
				offset = free / 2
			case "right":
				offset = free
			}
		}
		for i := range runs {
			runs[i].X += x + offset
		}
		it := &p.page.Items[item]
		it.Lines = append(it.Lines, Line{Baseline: p.y + asc, Runs: runs})
		p.y += lh
		it.Box.Height = p.y - it.Box.Y
	}
	return nil
}

func (p *pager) startText(n *tree.Node, x, w float64) int {
	p.page.Items = append(p.page.Items, Item{
		Kind: n.Kind,
		Key:  n.Key,
		Path: n.Path(),
		Box:  domain.Rect{X: x, Y: p.y, Width: w},
	})
	return len(p.page.Items) - 1
}

// inherit applies the text props of n over parent.
func inherit(parent style, n *tree.Node, props schema.TextProps) (style, error) {
	s := parent
	if props.FontSize > 0 {
		s.size = props.FontSize
	}
	if props.LineHeight > 0 {
		s.lineHeight = props.LineHeight
	}
	if n.Kind == domain.KindLink {
		var lp schema.LinkProps
		if err := schema.DecodeProps(n.Props, &lp); err != nil {
			return s, err
		}
		s.href = lp.Src
		s.color = linkColor
	}
	if props.Color != "" {
		c, err := schema.ParseColor(props.Color)
		if err != nil {
			return s, err
		}
		s.color = c
	}
	return s, nil
}

func tokenize(n *tree.Node, s style, out *[]token, pending *bool) error {
	for i, part := range strings.Split(n.Text, "\n") {
		if i > 0 {
			*out = append(*out, token{br: true, style: s})
			*pending = false
		}
		start := -1
		for j, r := range part {
			if unicode.IsSpace(r) {
				if start >= 0 {
					*out = append(*out, token{text: part[start:j], style: s, space: *pending})
					start = -1
				}
				*pending = true
				continue
			}
			if start < 0 {
				start = j
				if len(*out) == 0 || (*out)[len(*out)-1].br {
					*pending = false
				}
			}
		}
		if start >= 0 {
			*out = append(*out, token{text: part[start:], style: s, space: *pending})
			*pending = false
		}
	}

	for _, c := range n.Children {
		var props schema.TextProps
		if err := schema.DecodeProps(c.Props, &props); err != nil {
			return fmt.Errorf("element %s: %w", c.Path(), err)
		}
		cs, err := inherit(s, c, props)
		if err != nil {
			return fmt.Errorf("element %s: %w", c.Path(), err)
		}
		if err := tokenize(c, cs, out, pending); err != nil {
			return err
		}
	}
	return nil
}

// wrap breaks tokens into lines no wider than w. A single word wider than
// w is left on its own line.
func (p *pager) wrap(toks []token, w float64) [][]token {
	var lines [][]token
	var cur []token
	curW := 0.0

	for i := 0; i < len(toks); {
		if toks[i].br {
			lines = append(lines, cur)
			cur, curW = nil, 0
			i++
			continue
		}
		// A word is a token plus every following token glued to it.
		j := i + 1
		for j < len(toks) && !toks[j].space && !toks[j].br {
			j++
		}
		word := toks[i:j]
		ww := 0.0
		for _, t := range word {
			ww += p.e.face.Measure(t.text, t.style.size)
		}
		sp := 0.0
		if len(cur) > 0 && word[0].space {
			sp = p.e.face.Measure(" ", word[0].style.size)
		}
		if len(cur) > 0 && curW+sp+ww > w {
			lines = append(lines, cur)
			cur, curW, sp = nil, 0, 0
		}
		cur = append(cur, word...)
		curW += sp + ww
		i = j
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

func (p *pager) lineMetrics(line []token, base style) (height, ascent float64) {
	size, lh := base.size, base.lineHeight
	for _, t := range line {
		if t.style.size > size {
			size = t.style.size
		}
	}
	height = size * lh
	face := p.e.face
	glyph := face.LineHeight(size)
	ascent = (height-glyph)/2 + face.Ascent()*size/1000
	return height, ascent
}

// runs merges the tokens of a line into styled runs, with x relative to the line start.
func (p *pager) runs(line []token) []Run {
	var out []Run
	x := 0.0
	for i, t := range line {
		text := t.text
		if i > 0 && t.space {
			text = " " + text
		}
		width := p.e.face.Measure(text, t.style.size)
		if n := len(out); n > 0 && sameStyle(out[n-1], t.style) {
			out[n-1].Text += text
			out[n-1].Width += width
		} else {
			out = append(out, Run{X: x, Width: width, Text: text, Size: t.style.size, Color: t.style.color, Href: t.style.href})
		}
		x += width
	}
	return out
}

func sameStyle(r Run, s style) bool {
	return r.Size == s.size && r.Color == s.color && r.Href == s.href
}

func lineWidth(runs []Run) float64 {
	if len(runs) == 0 {
		return 0
	}
	last := runs[len(runs)-1]
	return last.X + last.Width
}

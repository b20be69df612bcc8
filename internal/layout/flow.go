package layout

import (
	"fmt"
	"math"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/schema"
	"github.com/aretw0/quire/pkg/tree"
)

// pager lays out the children of one PAGE node, producing as many physical
// pages as the content needs.
type pager struct {
	e   *Engine
	out *Document

	width, height float64
	top, bottom   float64
	left, right   float64
	background    *domain.Color

	page *Page
	y    float64

	// Items of fixed children, repeated on every page, and the flow start below them.
	fixed     []Item
	flowTop   float64
	inFixed   bool
	container []*segment // open VIEWs, outermost first
}

// segment is the background slot of an open VIEW on the current page.
type segment struct {
	slot   int
	startY float64
	minEnd float64
}

func (e *Engine) layoutPage(out *Document, n *tree.Node) error {
	var props schema.PageProps
	if err := schema.DecodeProps(n.Props, &props); err != nil {
		return fmt.Errorf("page %s: %w", n.Path(), err)
	}
	w, h, err := schema.ParsePageSize(props.Size)
	if err != nil {
		return fmt.Errorf("page %s: %w", n.Path(), err)
	}
	if props.Orientation == "landscape" && w < h {
		w, h = h, w
	}
	bg, err := parseColor(props.BackgroundColor)
	if err != nil {
		return fmt.Errorf("page %s: %w", n.Path(), err)
	}

	p := &pager{
		e:          e,
		out:        out,
		width:      w,
		height:     h,
		top:        props.Padding,
		bottom:     h - props.Padding,
		left:       props.Padding,
		right:      w - props.Padding,
		background: bg,
	}
	p.startPage()

	// Fixed children are placed first, stacked at the top, and repeated on
	// every page this PAGE produces.
	p.inFixed = true
	for _, c := range n.Children {
		if isFixed(c) {
			if err := p.block(c, p.left, p.right-p.left); err != nil {
				return err
			}
		}
	}
	p.inFixed = false
	p.fixed = append([]Item(nil), p.page.Items...)
	p.flowTop = p.y

	for _, c := range n.Children {
		if isFixed(c) {
			continue
		}
		if err := p.block(c, p.left, p.right-p.left); err != nil {
			return err
		}
	}
	return nil
}

func isFixed(n *tree.Node) bool {
	v, _ := n.Props[domain.PropFixed].(bool)
	if style, ok := n.Props[domain.PropStyle].(map[string]any); ok {
		if sv, ok := style[domain.PropFixed].(bool); ok {
			v = sv
		}
	}
	return v
}

func (p *pager) startPage() {
	p.page = &Page{
		Number:     len(p.out.Pages) + 1,
		Width:      p.width,
		Height:     p.height,
		Background: p.background,
	}
	p.out.Pages = append(p.out.Pages, p.page)
	p.page.Items = append(p.page.Items, p.fixed...)
	p.y = p.top
	if p.flowTop > 0 {
		p.y = p.flowTop
	}
}

// newPage closes the open VIEW fragments at the bottom of the current page
// and reopens them at the top of a fresh one.
func (p *pager) newPage() {
	for _, s := range p.container {
		p.closeSegment(s, p.bottom)
	}
	p.startPage()
	for _, s := range p.container {
		tmpl := p.out.Pages[len(p.out.Pages)-2].Items[s.slot]
		s.slot = len(p.page.Items)
		s.startY = p.y
		s.minEnd = 0
		p.page.Items = append(p.page.Items, tmpl)
	}
}

func (p *pager) closeSegment(s *segment, end float64) {
	it := &p.page.Items[s.slot]
	if s.minEnd > end {
		end = s.minEnd
	}
	it.Box.Y = s.startY
	it.Box.Height = end - s.startY
}

// ensure moves to a new page when h does not fit below the cursor and the
// page already holds flow content. It reports whether a break happened.
func (p *pager) ensure(h float64) bool {
	if p.inFixed || p.y+h <= p.bottom || p.y <= p.flowStart() {
		return false
	}
	p.newPage()
	return true
}

func (p *pager) flowStart() float64 {
	return math.Max(p.top, p.flowTop)
}

func (p *pager) block(n *tree.Node, x, w float64) error {
	var box schema.BoxProps
	if err := schema.DecodeProps(n.Props, &box); err != nil {
		return fmt.Errorf("element %s: %w", n.Path(), err)
	}
	if box.Break && !p.inFixed && p.y > p.flowStart() {
		p.newPage()
	}

	x += box.Margin
	w -= 2 * box.Margin
	p.y += box.Margin

	var err error
	switch n.Kind {
	case domain.KindView:
		err = p.view(n, box, x, w)
	case domain.KindText, domain.KindLink:
		err = p.text(n, x, w)
	case domain.KindNote:
		err = p.note(n, x)
	case domain.KindImage:
		err = p.image(n, box, x, w)
	case domain.KindCanvas:
		p.canvas(n, box, x, w)
	default:
		err = fmt.Errorf("element %s: %s cannot be laid out as a block", n.Path(), n.Kind)
	}
	if err != nil {
		return err
	}
	p.y += box.Margin
	return nil
}

func (p *pager) view(n *tree.Node, box schema.BoxProps, x, w float64) error {
	if box.Width > 0 && box.Width < w {
		w = box.Width
	}
	fill, err := parseColor(box.BackgroundColor)
	if err != nil {
		return fmt.Errorf("element %s: %w", n.Path(), err)
	}
	stroke, err := parseColor(box.BorderColor)
	if err != nil {
		return fmt.Errorf("element %s: %w", n.Path(), err)
	}
	if stroke != nil && box.BorderWidth == 0 {
		box.BorderWidth = 1
	}

	if box.Height > 0 {
		p.ensure(box.Height)
	}
	s := &segment{slot: len(p.page.Items), startY: p.y}
	if box.Height > 0 {
		s.minEnd = p.y + box.Height
	}
	p.page.Items = append(p.page.Items, Item{
		Kind:        n.Kind,
		Key:         n.Key,
		Path:        n.Path(),
		Box:         domain.Rect{X: x, Y: p.y, Width: w},
		Fill:        fill,
		Stroke:      stroke,
		StrokeWidth: box.BorderWidth,
	})
	p.container = append(p.container, s)

	p.y += box.Padding
	for _, c := range n.Children {
		if err := p.block(c, x+box.Padding, w-2*box.Padding); err != nil {
			return err
		}
	}
	p.y += box.Padding

	p.container = p.container[:len(p.container)-1]
	if s.minEnd > p.y {
		p.y = s.minEnd
	}
	p.closeSegment(s, p.y)
	return nil
}

func (p *pager) note(n *tree.Node, x float64) error {
	var props schema.NoteProps
	if err := schema.DecodeProps(n.Props, &props); err != nil {
		return fmt.Errorf("element %s: %w", n.Path(), err)
	}
	p.page.Items = append(p.page.Items, Item{
		Kind:     n.Kind,
		Key:      n.Key,
		Path:     n.Path(),
		Box:      domain.Rect{X: x, Y: p.y, Width: NoteIconSize, Height: NoteIconSize},
		Note:     n.Content(),
		NoteOpen: props.Open,
	})
	return nil
}

func (p *pager) image(n *tree.Node, box schema.BoxProps, x, w float64) error {
	var props schema.ImageProps
	if err := schema.DecodeProps(n.Props, &props); err != nil {
		return fmt.Errorf("element %s: %w", n.Path(), err)
	}
	img, err := LoadImage(props.Src, p.e.baseDir)
	if err != nil {
		return fmt.Errorf("element %s: %w", n.Path(), err)
	}

	dw, dh := box.Width, box.Height
	aspect := float64(img.Height) / float64(img.Width)
	switch {
	case dw > 0 && dh > 0:
	case dw > 0:
		dh = dw * aspect
	case dh > 0:
		dw = dh / aspect
	default:
		dw = math.Min(float64(img.Width), w)
		dh = dw * aspect
	}
	if dw > w {
		dw, dh = w, w*dh/dw
	}
	if avail := p.bottom - p.flowStart(); !p.inFixed && dh > avail && avail > 0 {
		dw, dh = dw*avail/dh, avail
	}
	p.ensure(dh)

	p.page.Items = append(p.page.Items, Item{
		Kind:  n.Kind,
		Key:   n.Key,
		Path:  n.Path(),
		Box:   domain.Rect{X: x, Y: p.y, Width: dw, Height: dh},
		Image: img,
	})
	p.y += dh
	return nil
}

func (p *pager) canvas(n *tree.Node, box schema.BoxProps, x, w float64) {
	cw, ch := w, box.Height
	if box.Width > 0 && box.Width < w {
		cw = box.Width
	}
	if ch <= 0 {
		ch = DefaultCanvasSize
	}
	p.ensure(ch)

	p.page.Items = append(p.page.Items, Item{
		Kind:  n.Kind,
		Key:   n.Key,
		Path:  n.Path(),
		Box:   domain.Rect{X: x, Y: p.y, Width: cw, Height: ch},
		Paint: n.Paint,
	})
	p.y += ch
}

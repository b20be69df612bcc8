package dsl

import (
	"github.com/aretw0/quire/pkg/domain"
)

// Props is a shorthand for element props.
type Props map[string]any

// node is the mutable tree behind the builders. Children are assembled on Build.
type node struct {
	el       domain.Element
	children []*node
}

func (n *node) add(el domain.Element) *node {
	child := &node{el: el}
	n.children = append(n.children, child)
	return child
}

func (n *node) setProp(key string, value any) {
	if n.el.Props == nil {
		n.el.Props = make(map[string]any)
	}
	n.el.Props[key] = value
}

func (n *node) setStyle(key string, value any) {
	style, _ := n.el.Props[domain.PropStyle].(map[string]any)
	if style == nil {
		style = make(map[string]any)
		n.setProp(domain.PropStyle, style)
	}
	style[key] = value
}

func (n *node) build() domain.Element {
	el := n.el
	if len(n.children) > 0 {
		el.Children = append([]domain.Element(nil), el.Children...)
		for _, c := range n.children {
			el.Children = append(el.Children, c.build())
		}
	}
	return el
}

// Builder assembles a DOCUMENT description.
type Builder struct {
	root *node
	doc  *Block
}

// New creates a new document builder.
func New() *Builder {
	b := &Builder{root: &node{el: domain.Element{Kind: domain.KindDocument}}}
	b.doc = &Block{builder: b, node: b.root}
	return b
}

// Title sets the document title.
func (b *Builder) Title(title string) *Builder { return b.Prop("title", title) }

// Author sets the document author.
func (b *Builder) Author(author string) *Builder { return b.Prop("author", author) }

// Subject sets the document subject.
func (b *Builder) Subject(subject string) *Builder { return b.Prop("subject", subject) }

// Keywords sets the document keywords.
func (b *Builder) Keywords(keywords string) *Builder { return b.Prop("keywords", keywords) }

// Prop sets an arbitrary document prop.
func (b *Builder) Prop(key string, value any) *Builder {
	b.root.setProp(key, value)
	return b
}

// OnRender registers the render-complete callback.
func (b *Builder) OnRender(fn domain.RenderFunc) *Builder {
	b.root.el.OnRender = fn
	return b
}

// Page appends a PAGE and returns its block.
func (b *Builder) Page(props ...Props) *Block {
	return b.doc.Page(props...)
}

// Build returns the description. The builder can keep being used afterwards.
func (b *Builder) Build() domain.Element {
	return b.root.build()
}

// Block builds a PAGE or a VIEW at any depth. End returns the enclosing
// block; ending a PAGE returns the document level, where only Page and
// Build apply.
type Block struct {
	builder *Builder
	parent  *Block
	node    *node
}

func (b *Block) child(el domain.Element) *Block {
	return &Block{builder: b.builder, parent: b, node: b.node.add(el)}
}

// End closes the block.
func (b *Block) End() *Block {
	if b.parent == nil {
		return b
	}
	return b.parent
}

// Page appends a new PAGE to the document, wherever b sits.
func (b *Block) Page(props ...Props) *Block {
	return b.builder.doc.child(element(domain.KindPage, "", props))
}

// Build returns the description of the whole document.
func (b *Block) Build() domain.Element {
	return b.builder.Build()
}

// Key sets the reconciliation key of the block.
func (b *Block) Key(key string) *Block {
	b.node.el.Key = key
	return b
}

// Prop sets a prop on the block.
func (b *Block) Prop(key string, value any) *Block {
	b.node.setProp(key, value)
	return b
}

// Style sets a style entry on the block.
func (b *Block) Style(key string, value any) *Block {
	b.node.setStyle(key, value)
	return b
}

// Size sets the page size (a name such as "A4" or a [width, height] pair).
func (b *Block) Size(size any) *Block { return b.Prop("size", size) }

// Landscape switches the page orientation.
func (b *Block) Landscape() *Block { return b.Prop("orientation", "landscape") }

// Padding sets the inner spacing.
func (b *Block) Padding(v float64) *Block { return b.Style("padding", v) }

// Fixed repeats the block on every page of its PAGE.
func (b *Block) Fixed() *Block { return b.Prop(domain.PropFixed, true) }

// Break starts the block on a new page.
func (b *Block) Break() *Block { return b.Prop(domain.PropBreak, true) }

// View opens a nested VIEW.
func (b *Block) View(props ...Props) *Block {
	return b.child(element(domain.KindView, "", props))
}

// Text appends a TEXT block.
func (b *Block) Text(text string, props ...Props) *Block {
	b.node.add(element(domain.KindText, text, props))
	return b
}

// Paragraph appends a TEXT block made of spans.
func (b *Block) Paragraph(spans ...domain.Element) *Block {
	el := element(domain.KindText, "", nil)
	el.Children = spans
	b.node.add(el)
	return b
}

// Link appends a LINK block pointing at href.
func (b *Block) Link(text, href string, props ...Props) *Block {
	el := element(domain.KindLink, text, props)
	el.Props = withProp(el.Props, domain.PropSrc, href)
	b.node.add(el)
	return b
}

// Note appends a NOTE annotation.
func (b *Block) Note(text string) *Block {
	b.node.add(element(domain.KindNote, text, nil))
	return b
}

// Image appends an IMAGE loaded from src (a path or a data URI).
func (b *Block) Image(src string, props ...Props) *Block {
	el := element(domain.KindImage, "", props)
	el.Props = withProp(el.Props, domain.PropSrc, src)
	b.node.add(el)
	return b
}

// Canvas appends a CANVAS of the given height painted by fn.
func (b *Block) Canvas(height float64, fn domain.CanvasFunc, props ...Props) *Block {
	el := element(domain.KindCanvas, "", props)
	el.Props = withProp(el.Props, "height", height)
	el.Paint = fn
	b.node.add(el)
	return b
}

// Span returns a TEXT span for Paragraph.
func Span(text string, props ...Props) domain.Element {
	return element(domain.KindText, text, props)
}

// LinkSpan returns a LINK span for Paragraph.
func LinkSpan(text, href string) domain.Element {
	return domain.Element{Kind: domain.KindLink, Text: text, Props: map[string]any{domain.PropSrc: href}}
}

func element(kind domain.Kind, text string, props []Props) domain.Element {
	el := domain.Element{Kind: kind, Text: text}
	for _, p := range props {
		for k, v := range p {
			el.Props = withProp(el.Props, k, v)
		}
	}
	return el
}

func withProp(props map[string]any, key string, value any) map[string]any {
	if props == nil {
		props = make(map[string]any)
	}
	props[key] = value
	return props
}

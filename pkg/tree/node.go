package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
)

// Node is one instance in the tree owned by a session.
type Node struct {
	Kind     domain.Kind
	Key      string
	Text     string
	Props    map[string]any
	Children []*Node
	Parent   *Node

	OnRender domain.RenderFunc
	Paint    domain.CanvasFunc
}

// CreateInstance is the node factory. It only builds kinds from the closed set.
func CreateInstance(kind domain.Kind) (*Node, error) {
	switch kind {
	case domain.KindRoot, domain.KindDocument, domain.KindPage, domain.KindView,
		domain.KindText, domain.KindLink, domain.KindNote, domain.KindImage, domain.KindCanvas:
		return &Node{Kind: kind}, nil
	default:
		return nil, fmt.Errorf("cannot create node of kind %s", kind)
	}
}

// AppendChild links child as the last child of n.
func (n *Node) AppendChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// ReplaceChild swaps the child at index i, detaching the previous one.
func (n *Node) ReplaceChild(i int, child *Node) {
	if old := n.Children[i]; old != nil {
		old.Parent = nil
	}
	child.Parent = n
	n.Children[i] = child
}

// TruncateChildren drops (and detaches) every child at index >= size.
func (n *Node) TruncateChildren(size int) {
	if size >= len(n.Children) {
		return
	}
	for _, c := range n.Children[size:] {
		c.Parent = nil
	}
	for i := size; i < len(n.Children); i++ {
		n.Children[i] = nil
	}
	n.Children = n.Children[:size]
}

// Walk visits n and its descendants depth-first.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Path returns the dotted index path of n below its DOCUMENT ("" for the document itself).
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur.Parent != nil && cur.Kind != domain.KindDocument; cur = cur.Parent {
		idx := 0
		for i, sibling := range cur.Parent.Children {
			if sibling == cur {
				idx = i
				break
			}
		}
		parts = append(parts, strconv.Itoa(idx))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// Content returns the text of n followed by the text of its nested spans.
func (n *Node) Content() string {
	if len(n.Children) == 0 {
		return n.Text
	}
	var b strings.Builder
	b.WriteString(n.Text)
	for _, c := range n.Children {
		b.WriteString(c.Content())
	}
	return b.String()
}

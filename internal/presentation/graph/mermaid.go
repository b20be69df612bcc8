package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
)

// Overlay carries layout facts to visualize on the tree.
type Overlay struct {
	Layout domain.LayoutData
}

// pages maps a node path to the page numbers it was placed on.
func (o *Overlay) pages() map[string][]int {
	out := make(map[string][]int)
	if o == nil {
		return out
	}
	for _, p := range o.Layout.Pages {
		for _, n := range p.Nodes {
			ps := out[n.Path]
			if len(ps) == 0 || ps[len(ps)-1] != p.Number {
				out[n.Path] = append(ps, p.Number)
			}
		}
	}
	return out
}

// GenerateMermaid produces a Mermaid flowchart of a description tree.
// Shapes follow the node kind:
// - DOCUMENT: ((Circle))
// - PAGE: [[Subroutine]]
// - TEXT, LINK, NOTE: [/Parallelogram/]
// - IMAGE, CANVAS: [(Cylinder)]
// - VIEW: [Rectangle]
// Children flagged as page breaks hang off a dotted edge. With an overlay,
// nodes are labelled with their pages and split nodes are highlighted.
func GenerateMermaid(doc domain.Element, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	pages := overlay.pages()
	var placed, split []string
	doc.Walk(func(path []int, el domain.Element) bool {
		id := nodeID(path)
		opener, closer := "[", "]"
		switch el.Kind {
		case domain.KindDocument:
			opener, closer = "((", "))"
		case domain.KindPage:
			opener, closer = "[[", "]]"
		case domain.KindText, domain.KindLink, domain.KindNote:
			opener, closer = "[/", "/]"
		case domain.KindImage, domain.KindCanvas:
			opener, closer = "[(", ")]"
		}

		label := el.Kind.String()
		if el.Key != "" {
			label += " " + el.Key
		}
		if el.Text != "" {
			label += "<br/>" + excerpt(el.Text)
		}
		p := pathString(path)
		if ps := pages[p]; len(ps) > 0 {
			label += "<br/>p." + joinInts(ps)
			placed = append(placed, id)
			if len(ps) > 1 {
				split = append(split, id)
			}
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escape(label), closer)

		for i, child := range el.Children {
			arrow := "-->"
			if brk, _ := child.Prop(domain.PropBreak); brk == true {
				arrow = "-. break .->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", id, arrow, nodeID(append(append([]int(nil), path...), i)))
		}
		return true
	})

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef placed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef split fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, id := range placed {
			fmt.Fprintf(&sb, "    class %s placed;\n", id)
		}
		for _, id := range split {
			fmt.Fprintf(&sb, "    class %s split;\n", id)
		}
	}
	return sb.String()
}

func nodeID(path []int) string {
	if len(path) == 0 {
		return "doc"
	}
	return "n_" + strings.ReplaceAll(pathString(path), ".", "_")
}

func pathString(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

func joinInts(ns []int) string {
	sort.Ints(ns)
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 24 {
		return string(r[:23]) + "…"
	}
	return s
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
